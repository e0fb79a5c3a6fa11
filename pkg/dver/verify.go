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
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/uintptr/dver/pkg/envelope"
	"github.com/uintptr/dver/pkg/hashing/digests"
	"github.com/uintptr/dver/pkg/logging"
	"github.com/uintptr/dver/pkg/signing"
	"github.com/uintptr/dver/pkg/tracing"
	"github.com/uintptr/dver/pkg/tree"
	"github.com/uintptr/dver/pkg/utils"
)

// VerifyOptions configures Verify.
type VerifyOptions struct {
	Directory string
	// KeyLocator selects the verification backend. A private SSH key
	// verifies with its public half.
	KeyLocator string
	// Algorithm and Exclude rebuild the tree for short signatures.
	// Complete signatures carry their own and these are ignored.
	Algorithm      string
	Exclude        []string
	IgnoreGitPaths bool
	// SignaturePath defaults to <Directory>/dver.sig.
	SignaturePath string
	Signing       signing.Options
	Logger        logging.Logger
	// Out receives the progress report; nil means stdout.
	Out io.Writer
}

// Result is the outcome of a verification that ran to completion.
type Result struct {
	Verified bool
	Message  string
	Mode     envelope.Mode
	// RootDigest is the digest of the live directory.
	RootDigest digests.Digest
	// Diff lists the differences between the signed and the live tree
	// when a complete signature is valid but the directory changed.
	Diff *tree.Diff
}

// Verify performs the complete verification flow.
//
// This orchestrates:
// 1. Reading the signature file
// 2. Hashing the live directory with the signed parameters
// 3. Verifying the signature and comparing the trees
//
// A directory that no longer matches, or a signature made by another key,
// yields Verified=false with a nil error.
func Verify(ctx context.Context, opts VerifyOptions) (Result, error) {
	var res Result
	attrs := map[string]interface{}{
		"dver.directory": opts.Directory,
		"dver.signature": opts.SignaturePath,
	}
	err := tracing.Run(ctx, "dver.Verify", attrs, func(ctx context.Context) error {
		var err error
		res, err = verify(ctx, opts)
		return err
	})
	return res, newError("verify", err)
}

func verify(ctx context.Context, opts VerifyOptions) (Result, error) {
	c, err := newCommon(opts.Directory, opts.KeyLocator, opts.SignaturePath, opts.Exclude, opts.Signing, opts.Logger, opts.Out)
	if err != nil {
		return Result{}, err
	}
	if err := utils.ValidateFileExists("signature", c.sigPath); err != nil {
		return Result{}, err
	}

	c.println("dver Verification")
	utils.PrintKV(c.out, "Directory", filepath.Clean(c.dir))
	utils.PrintKV(c.out, "Key", opts.KeyLocator)
	utils.PrintKV(c.out, "Signature", c.sigPath)

	// Step 1: Read the signature
	c.println("\nStep 1: Reading signature...")
	env, err := envelope.ReadFile(c.sigPath)
	if err != nil {
		return Result{}, err
	}

	var (
		signed   *tree.Document
		treeOpts tree.Options
		mode     = envelope.Short
	)
	if !env.IsShort() {
		mode = envelope.Complete
		if signed, err = env.Document(); err != nil {
			return Result{}, err
		}
		treeOpts = signed.Options()
		treeOpts.Logger = c.logger
		if opts.Algorithm != "" && opts.Algorithm != signed.Algorithm.String() {
			c.logger.Warn("signature records %s, ignoring requested %s", signed.Algorithm, opts.Algorithm)
		}
	} else {
		if treeOpts, err = c.hashingConfig(opts.Algorithm, opts.Exclude, opts.IgnoreGitPaths).Options(); err != nil {
			return Result{}, err
		}
	}
	utils.PrintKV(c.out, "Type", mode)
	utils.PrintKV(c.out, "Hash", treeOpts.Algorithm)

	// Step 2: Hash the live directory
	c.println("\nStep 2: Hashing directory...")
	live, err := tree.Build(c.dir, treeOpts)
	if err != nil {
		return Result{}, fmt.Errorf("hash directory: %w", err)
	}
	encoded, err := tree.NewDocument(live, treeOpts).Encode()
	if err != nil {
		return Result{}, err
	}
	files, dirs := live.Count()
	c.printf("  Hashed %d files in %d directories\n", files, dirs)

	// Step 3: Verify the signature
	verifier, err := signing.NewVerifier(opts.KeyLocator, c.signing)
	if err != nil {
		return Result{}, fmt.Errorf("create verifier: %w", err)
	}
	c.printf("\nStep 3: Verifying signature with %s key...\n", verifier.Kind())

	res := Result{Mode: mode, RootDigest: live.Digest}
	message := envelope.SigningDigest(encoded)
	if mode == envelope.Complete {
		message = envelope.SigningDigest(env.Tree)
	}
	if err := verifier.Verify(ctx, message, env.Signature); err != nil {
		if !errors.Is(err, signing.ErrSignatureMismatch) {
			return Result{}, err
		}
		c.logger.Debug("signature rejected: %v", err)
		res.Message = "signature does not match the key or the directory"
		c.printf("  %s\n", res.Message)
		return res, nil
	}

	if mode == envelope.Complete && !bytes.Equal(env.Tree, encoded) {
		res.Diff = tree.Compare(signed.Root, live)
		res.Message = "directory does not match the signed tree"
		c.printf("  Signature valid, but %s:\n%s", res.Message, res.Diff)
		return res, nil
	}

	res.Verified = true
	res.Message = "Verification succeeded"
	c.printf("  %s\n", res.Message)
	return res, nil
}
