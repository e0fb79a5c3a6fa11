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

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/uintptr/dver/cmd/dver/cli/options"
	"github.com/uintptr/dver/pkg/dver"
)

// Verify returns the verify command.
func Verify(ro *options.RootOptions) *cobra.Command {
	o := &options.VerifyOptions{}
	long := `Verify a directory against its signature.

Reads the signature from DIR/dver.sig, or from --input, rebuilds the tree
from the files on disk and checks the signature with the key given by
--key. A public key (*.pub), a private key or a GnuPG locator may be used.

Complete signatures record the hash algorithm and exclusions used at
signing time; --hash and --exclude only apply to short signatures.

Exit status is 0 on success, 1 when the directory or key does not match
and greater than 1 for malformed input or backend failures.`

	cmd := &cobra.Command{
		Use:   "verify [OPTIONS] DIR",
		Short: "Verify a directory.",
		Long:  long,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			obs := ro.NewObservability(cmd.OutOrStdout())
			opts := o.ToStandardOptions(args[0], obs)

			ctx, cancel := context.WithTimeout(cmd.Context(), ro.Timeout)
			defer cancel()

			res, err := dver.Verify(ctx, opts)
			if err != nil {
				return err
			}
			if !res.Verified {
				fmt.Fprintln(cmd.OutOrStdout(), "\nVerification Status: FAILED")
				return &dver.Error{Kind: dver.KindVerification, Op: "verify", Err: dver.ErrVerificationFailed}
			}
			fmt.Fprintln(cmd.OutOrStdout(), "\nVerification Status: OK")
			return nil
		},
	}

	o.AddFlags(cmd)
	return cmd
}
