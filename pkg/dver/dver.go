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

// Package dver signs and verifies directory trees.
//
// Sign hashes a directory into a tree of digests, signs the canonical
// encoding of that tree with an SSH or GnuPG key and writes an armored
// signature file. Verify rebuilds the tree from the live directory and
// reports whether it still matches the signature. A mismatch is an
// ordinary Result with Verified set to false; only malformed input and
// backend faults are returned as errors.
package dver

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/uintptr/dver/pkg/config"
	"github.com/uintptr/dver/pkg/logging"
	"github.com/uintptr/dver/pkg/signing"
	"github.com/uintptr/dver/pkg/tree"
	"github.com/uintptr/dver/pkg/utils"
)

// common holds the fields shared by SignOptions and VerifyOptions.
type common struct {
	dir     string
	sigPath string
	out     io.Writer
	logger  logging.Logger
	signing signing.Options
}

func newCommon(dir, locator, sigPath string, exclude []string, sopts signing.Options, logger logging.Logger, out io.Writer) (*common, error) {
	if err := utils.ValidateFolderExists("directory", dir); err != nil {
		return nil, err
	}
	if locator == "" {
		return nil, fmt.Errorf("%w: key locator is required", utils.ErrInvalidArgument)
	}
	if err := utils.ValidateBaseNames("exclude", exclude); err != nil {
		return nil, err
	}

	c := &common{
		dir:     dir,
		sigPath: sigPath,
		out:     out,
		logger:  logging.EnsureLogger(logger).With("dir", dir),
		signing: sopts,
	}
	if c.sigPath == "" {
		c.sigPath = filepath.Join(dir, tree.DefaultSignatureName)
	}
	if c.out == nil {
		c.out = os.Stdout
	}
	if c.signing.Logger == nil {
		c.signing.Logger = c.logger
	}
	return c, nil
}

// hashingConfig returns the configuration for algorithm and exclude, adding
// the signature file's base name when the file lives inside the directory.
func (c *common) hashingConfig(algorithm string, exclude []string, ignoreGit bool) *config.HashingConfig {
	cfg := config.NewHashingConfig().
		SetAlgorithm(algorithm).
		SetIgnoredNames(exclude, ignoreGit).
		SetLogger(c.logger)
	if name, ok := c.signatureExclusion(); ok {
		cfg.AddIgnoredNames(name)
	}
	return cfg
}

// signatureExclusion returns the base name of a custom signature path that
// lies inside the directory being hashed.
func (c *common) signatureExclusion() (string, bool) {
	name := filepath.Base(c.sigPath)
	if name == tree.DefaultSignatureName {
		return "", false
	}
	root, err := tree.ResolveRoot(c.dir)
	if err != nil {
		return "", false
	}
	parent, err := filepath.Abs(filepath.Dir(c.sigPath))
	if err != nil {
		return "", false
	}
	if resolved, err := filepath.EvalSymlinks(parent); err == nil {
		parent = resolved
	}
	rel, err := filepath.Rel(root, parent)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return name, true
}

func (c *common) println(a ...any) {
	_, _ = fmt.Fprintln(c.out, a...)
}

func (c *common) printf(format string, a ...any) {
	_, _ = fmt.Fprintf(c.out, format, a...)
}
