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

package config

import (
	"fmt"

	"github.com/uintptr/dver/pkg/hashing/digests"
	"github.com/uintptr/dver/pkg/logging"
	"github.com/uintptr/dver/pkg/tree"
)

// gitRelatedNames are the base names skipped when git paths are ignored.
var gitRelatedNames = []string{
	".git",
	".gitignore",
	".gitattributes",
	".github",
	".gitmodules",
}

// HashingConfig holds the parameters used to hash a directory.
//
// Ignored names are recorded in the encoded tree, so a verifier of a
// complete signature reapplies them without being told.
type HashingConfig struct {
	// Hash algorithm name (e.g., "sha256", "sha512")
	hashAlgorithm string

	// Base names to skip at every level
	ignoredNames []string

	// Whether to skip git metadata
	ignoreGitPaths bool

	// Read buffer size for file contents
	chunkSize int

	logger logging.Logger
}

// NewHashingConfig creates a hashing configuration with defaults: sha256,
// no extra ignored names, 8 KiB chunks.
func NewHashingConfig() *HashingConfig {
	return &HashingConfig{
		hashAlgorithm: digests.SHA256.String(),
		ignoredNames:  []string{},
		chunkSize:     8192,
	}
}

// SetAlgorithm sets the hash algorithm by name. An empty name keeps the
// current one.
//
// Returns the HashingConfig for method chaining.
func (c *HashingConfig) SetAlgorithm(name string) *HashingConfig {
	if name != "" {
		c.hashAlgorithm = name
	}
	return c
}

// SetIgnoredNames replaces the ignored base names. If ignoreGitPaths is
// true, git metadata names are added too.
//
// Returns the HashingConfig for method chaining.
func (c *HashingConfig) SetIgnoredNames(names []string, ignoreGitPaths bool) *HashingConfig {
	c.ignoredNames = append([]string{}, names...)
	c.ignoreGitPaths = ignoreGitPaths
	if ignoreGitPaths {
		c.ignoredNames = append(c.ignoredNames, gitRelatedNames...)
	}
	return c
}

// AddIgnoredNames appends base names to the ignore list.
//
// Returns the HashingConfig for method chaining.
func (c *HashingConfig) AddIgnoredNames(names ...string) *HashingConfig {
	c.ignoredNames = append(c.ignoredNames, names...)
	return c
}

// SetChunkSize sets the read buffer size. Zero selects the default.
//
// Returns the HashingConfig for method chaining.
func (c *HashingConfig) SetChunkSize(size int) *HashingConfig {
	c.chunkSize = size
	return c
}

// SetLogger sets the logger handed to the tree builder.
//
// Returns the HashingConfig for method chaining.
func (c *HashingConfig) SetLogger(logger logging.Logger) *HashingConfig {
	c.logger = logger
	return c
}

// Options resolves the configuration into tree build options.
func (c *HashingConfig) Options() (tree.Options, error) {
	alg, err := digests.ParseAlgorithm(c.hashAlgorithm)
	if err != nil {
		return tree.Options{}, fmt.Errorf("hash algorithm: %w", err)
	}
	opts := tree.Options{
		Algorithm: alg,
		Exclude:   append([]string{}, c.ignoredNames...),
		ChunkSize: c.chunkSize,
		Logger:    c.logger,
	}
	opts.Exclude = opts.ExcludeNames()
	return opts, nil
}

// Hash builds the tree of dir with this configuration.
func (c *HashingConfig) Hash(dir string) (*tree.Directory, tree.Options, error) {
	opts, err := c.Options()
	if err != nil {
		return nil, tree.Options{}, err
	}
	root, err := tree.Build(dir, opts)
	if err != nil {
		return nil, tree.Options{}, err
	}
	return root, opts, nil
}
