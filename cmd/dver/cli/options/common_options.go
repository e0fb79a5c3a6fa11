// Copyright 2025 The dver Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package options

import (
	"github.com/spf13/cobra"

	"github.com/uintptr/dver/pkg/hashing/digests"
	"github.com/uintptr/dver/pkg/tree"
)

// FlagAdder is implemented by any flag group that can register itself to a cobra command.
type FlagAdder interface {
	AddFlags(cmd *cobra.Command)
}

// KeyFlags selects the signing or verification key.
type KeyFlags struct {
	// Key is a key locator: an SSH key path, "gpg" or "gpg:<key-id>".
	Key string
}

// AddFlags adds the key flag to the cobra command.
func (o *KeyFlags) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.Key, "key", "k", "",
		"Key locator: path to an SSH key (*.pub, *id_ed25519, *id_ecdsa, *id_rsa), \"gpg\" or \"gpg:<key-id>\". [required]")
	_ = cmd.MarkFlagRequired("key")
}

// HashFlags controls how the directory tree is hashed.
// These flags are shared by the signing and verification commands.
type HashFlags struct {
	// Hash names the digest algorithm.
	Hash string
	// Exclude lists extra base names to skip at every level.
	Exclude []string
	// IgnoreGitPaths skips git metadata names.
	IgnoreGitPaths bool
}

// AddFlags adds hashing flags to the cobra command.
func (o *HashFlags) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Hash, "hash", "", "Hash algorithm ("+digests.AlgorithmNames()+"). [default: sha256]")
	cmd.Flags().StringArrayVarP(&o.Exclude, "exclude", "e", nil,
		"File or directory name to skip at every level. May be repeated. "+tree.DefaultSignatureName+" is always skipped.")
	cmd.Flags().BoolVar(&o.IgnoreGitPaths, "ignore-git-paths", false, "Skip git metadata (.git, .gitignore, .gitattributes, .github, .gitmodules).")
}

// SignatureOutputFlags contains the signature path flags for signing commands.
type SignatureOutputFlags struct {
	// SignaturePath specifies the location of the signature file to generate.
	SignaturePath string
	// SignatureType is "complete" or "short".
	SignatureType string
}

// AddFlags adds signature output flags for signing commands.
func (o *SignatureOutputFlags) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.SignaturePath, "output", "o", "",
		"Location of the signature file to generate. Defaults to DIR/"+tree.DefaultSignatureName)
	cmd.Flags().StringVar(&o.SignatureType, "signature-type", "complete",
		"Signature type: complete embeds the hashed tree, short keeps only the signature.")
}

// SignatureInputFlags contains the signature path flag for verification commands.
type SignatureInputFlags struct {
	// SignaturePath specifies the location of the signature file to verify.
	SignaturePath string
}

// AddFlags adds signature input flags for verification commands.
func (o *SignatureInputFlags) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.SignaturePath, "input", "i", "",
		"Location of the signature file to verify. Defaults to DIR/"+tree.DefaultSignatureName)
}

// AddAllFlags is a helper function to register multiple flag groups at once.
func AddAllFlags(cmd *cobra.Command, flagGroups ...FlagAdder) {
	for _, fg := range flagGroups {
		fg.AddFlags(cmd)
	}
}
