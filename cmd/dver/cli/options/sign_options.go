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

	"github.com/uintptr/dver/pkg/dver"
	"github.com/uintptr/dver/pkg/envelope"
)

// SignOptions holds the flags of the sign command.
type SignOptions struct {
	KeyFlags
	HashFlags
	SignatureOutputFlags
}

var _ FlagAdder = (*SignOptions)(nil)

// AddFlags adds all sign flags to the cobra command.
func (o *SignOptions) AddFlags(cmd *cobra.Command) {
	AddAllFlags(cmd, &o.KeyFlags, &o.HashFlags, &o.SignatureOutputFlags)
}

// ToStandardOptions converts CLI options to library options for signing.
func (o *SignOptions) ToStandardOptions(dir string, obs Observability) (dver.SignOptions, error) {
	mode, err := envelope.ParseMode(o.SignatureType)
	if err != nil {
		return dver.SignOptions{}, err
	}
	return dver.SignOptions{
		Directory:      dir,
		KeyLocator:     o.Key,
		Algorithm:      o.Hash,
		SignaturePath:  o.SignaturePath,
		Mode:           mode,
		Exclude:        o.Exclude,
		IgnoreGitPaths: o.IgnoreGitPaths,
		Signing:        obs.Signing,
		Logger:         obs.Logger,
		Out:            obs.Out,
	}, nil
}
