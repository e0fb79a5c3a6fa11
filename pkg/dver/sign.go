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

package dver

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/uintptr/dver/pkg/envelope"
	"github.com/uintptr/dver/pkg/hashing/digests"
	"github.com/uintptr/dver/pkg/logging"
	"github.com/uintptr/dver/pkg/signing"
	"github.com/uintptr/dver/pkg/tracing"
	"github.com/uintptr/dver/pkg/tree"
	"github.com/uintptr/dver/pkg/utils"
)

// SignOptions configures Sign.
type SignOptions struct {
	Directory string
	// KeyLocator selects the signing backend, see signing.ParseLocator.
	KeyLocator string
	// Algorithm is "sha256" (default) or "sha512".
	Algorithm string
	// SignaturePath defaults to <Directory>/dver.sig.
	SignaturePath string
	Mode          envelope.Mode
	// Exclude lists extra base names to skip at every level.
	Exclude        []string
	IgnoreGitPaths bool
	Signing        signing.Options
	Logger         logging.Logger
	// Out receives the progress report; nil means stdout.
	Out io.Writer
}

// SignResult describes a written signature.
type SignResult struct {
	SignaturePath string
	Mode          envelope.Mode
	Algorithm     digests.Algorithm
	RootDigest    digests.Digest
	Files         int
	Directories   int
	// Size is the signature file size in bytes.
	Size     int64
	Envelope *envelope.Envelope
}

// Sign performs the complete signing flow.
//
// This orchestrates:
// 1. Hashing the directory into a tree
// 2. Signing the canonical tree encoding with the selected key
// 3. Writing the armored signature to disk
func Sign(ctx context.Context, opts SignOptions) (*SignResult, error) {
	var res *SignResult
	attrs := map[string]interface{}{
		"dver.directory": opts.Directory,
		"dver.algorithm": opts.Algorithm,
		"dver.mode":      opts.Mode.String(),
	}
	err := tracing.Run(ctx, "dver.Sign", attrs, func(ctx context.Context) error {
		var err error
		res, err = sign(ctx, opts)
		return err
	})
	return res, newError("sign", err)
}

func sign(ctx context.Context, opts SignOptions) (*SignResult, error) {
	c, err := newCommon(opts.Directory, opts.KeyLocator, opts.SignaturePath, opts.Exclude, opts.Signing, opts.Logger, opts.Out)
	if err != nil {
		return nil, err
	}

	c.println("dver Signing")
	utils.PrintKV(c.out, "Directory", filepath.Clean(c.dir))
	utils.PrintKV(c.out, "Key", opts.KeyLocator)
	utils.PrintKV(c.out, "Hash", hashName(opts.Algorithm))
	utils.PrintKV(c.out, "Signature", c.sigPath)
	utils.PrintKV(c.out, "Type", opts.Mode)
	utils.PrintKV(c.out, "Exclude", opts.Exclude)

	if _, err := os.Stat(c.sigPath); err == nil {
		c.logger.Warn("signature file %s already exists and will be overwritten", c.sigPath)
	}

	// Step 1: Hash the directory
	c.println("\nStep 1: Hashing directory...")
	root, treeOpts, err := c.hashingConfig(opts.Algorithm, opts.Exclude, opts.IgnoreGitPaths).Hash(c.dir)
	if err != nil {
		return nil, fmt.Errorf("hash directory: %w", err)
	}
	files, dirs := root.Count()
	c.printf("  Hashed %d files in %d directories\n", files, dirs)
	c.printf("  Root digest: %s\n", root.Digest)

	// Step 2: Sign the encoded tree
	signer, err := signing.NewSigner(opts.KeyLocator, c.signing)
	if err != nil {
		return nil, fmt.Errorf("create signer: %w", err)
	}
	c.printf("\nStep 2: Signing with %s key...\n", signer.Kind())
	env, err := envelope.Sign(ctx, tree.NewDocument(root, treeOpts), signer)
	if err != nil {
		return nil, err
	}
	c.println("  Signing successful")

	// Step 3: Write the signature
	c.println("\nStep 3: Writing signature to disk...")
	if err := env.WriteFile(c.sigPath, opts.Mode); err != nil {
		return nil, err
	}
	info, err := os.Stat(c.sigPath)
	if err != nil {
		return nil, fmt.Errorf("stat signature: %w", err)
	}
	c.printf("  Signature written to: %s (%s)\n", c.sigPath, utils.FormatSize(info.Size()))

	return &SignResult{
		SignaturePath: c.sigPath,
		Mode:          opts.Mode,
		Algorithm:     treeOpts.Algorithm,
		RootDigest:    root.Digest,
		Files:         files,
		Directories:   dirs,
		Size:          info.Size(),
		Envelope:      env,
	}, nil
}

func hashName(name string) string {
	if name == "" {
		return digests.SHA256.String()
	}
	return name
}
