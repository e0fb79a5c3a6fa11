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
)

// VerifyOptions holds the flags of the verify command.
type VerifyOptions struct {
	KeyFlags
	HashFlags
	SignatureInputFlags
}

var _ FlagAdder = (*VerifyOptions)(nil)

// AddFlags adds all verify flags to the cobra command.
func (o *VerifyOptions) AddFlags(cmd *cobra.Command) {
	AddAllFlags(cmd, &o.KeyFlags, &o.HashFlags, &o.SignatureInputFlags)
}

// ToStandardOptions converts CLI options to library options for verification.
func (o *VerifyOptions) ToStandardOptions(dir string, obs Observability) dver.VerifyOptions {
	return dver.VerifyOptions{
		Directory:      dir,
		KeyLocator:     o.Key,
		Algorithm:      o.Hash,
		Exclude:        o.Exclude,
		IgnoreGitPaths: o.IgnoreGitPaths,
		SignaturePath:  o.SignaturePath,
		Signing:        obs.Signing,
		Logger:         obs.Logger,
		Out:            obs.Out,
	}
}
