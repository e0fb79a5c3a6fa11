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

	"github.com/spf13/cobra"

	"github.com/uintptr/dver/cmd/dver/cli/options"
	"github.com/uintptr/dver/pkg/dver"
)

// Sign returns the sign command.
func Sign(ro *options.RootOptions) *cobra.Command {
	o := &options.SignOptions{}
	long := `Sign a directory.

Hashes every file below DIR, folds the digests into a tree and signs the
tree with the key given by --key. The signature is written to DIR/dver.sig
unless --output is set. Files and directories named dver.sig, or named by
--exclude, are skipped at every level.

The key locator selects the backend:

  *id_ed25519, *id_ecdsa, *id_rsa  OpenSSH private key. Encrypted keys sign
                                   through the SSH agent, then fall back to
                                   a passphrase prompt or DVER_PASSPHRASE.
  gpg, gpg:<key-id>                GnuPG detached signature.

A complete signature embeds the hashed tree so verification can report
which files changed. A short signature only carries the signature bytes.`

	cmd := &cobra.Command{
		Use:   "sign [OPTIONS] DIR",
		Short: "Sign a directory.",
		Long:  long,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			obs := ro.NewObservability(cmd.OutOrStdout())
			opts, err := o.ToStandardOptions(args[0], obs)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), ro.Timeout)
			defer cancel()

			_, err = dver.Sign(ctx, opts)
			return err
		},
	}

	o.AddFlags(cmd)
	return cmd
}
