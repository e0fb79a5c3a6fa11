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

package tree

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/uintptr/dver/pkg/hashing/digests"
	fileio "github.com/uintptr/dver/pkg/hashing/engines/io"
	"github.com/uintptr/dver/pkg/hashing/engines/memory"
	"github.com/uintptr/dver/pkg/logging"
)

// DefaultSignatureName is the file name of the signature artifact. Entries
// with this name are skipped at every level of the walk.
const DefaultSignatureName = "dver.sig"

var (
	// ErrInvalidRoot is returned when the root cannot be resolved or is not
	// a directory.
	ErrInvalidRoot = errors.New("invalid root directory")
	// ErrInvalidPath is returned for entries that are neither regular files
	// nor directories (symlinks, sockets, devices, pipes).
	ErrInvalidPath = errors.New("unsupported file type")
	// ErrEmptyDigest is returned when a child aggregate is found empty at
	// fold time.
	ErrEmptyDigest = errors.New("empty digest")
)

// Options configures Build.
type Options struct {
	// Algorithm selects the digest; zero means SHA256.
	Algorithm digests.Algorithm
	// Exclude lists extra base names to skip at every level. The signature
	// name is always skipped.
	Exclude []string
	// ChunkSize is the file read buffer size; zero means 8 KiB.
	ChunkSize int
	// Logger receives per-entry debug output.
	Logger logging.Logger
}

// ExcludeNames returns the sorted, de-duplicated extra exclusions, without
// DefaultSignatureName.
func (o Options) ExcludeNames() []string {
	seen := make(map[string]struct{}, len(o.Exclude))
	var names []string
	for _, n := range o.Exclude {
		if n == "" || n == DefaultSignatureName {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (o Options) algorithm() digests.Algorithm {
	if o.Algorithm == 0 {
		return digests.SHA256
	}
	return o.Algorithm
}

type builder struct {
	algorithm digests.Algorithm
	exclude   map[string]struct{}
	files     *fileio.FileHasher
	logger    logging.Logger
}

// Build hashes the directory at root and returns the populated tree.
//
// Any error aborts the whole walk; no partial tree is returned.
func Build(root string, opts Options) (*Directory, error) {
	alg := opts.algorithm()
	if !alg.Valid() {
		return nil, fmt.Errorf("%w: %s", digests.ErrUnknownAlgorithm, alg)
	}

	resolved, err := ResolveRoot(root)
	if err != nil {
		return nil, err
	}

	content, err := memory.New(alg)
	if err != nil {
		return nil, err
	}
	files, err := fileio.NewFileHasher(content, opts.ChunkSize)
	if err != nil {
		return nil, err
	}

	b := &builder{
		algorithm: alg,
		exclude:   map[string]struct{}{DefaultSignatureName: {}},
		files:     files,
		logger:    logging.EnsureLogger(opts.Logger),
	}
	for _, n := range opts.Exclude {
		b.exclude[n] = struct{}{}
	}

	b.logger.Debug("hashing %s with %s", resolved, alg)

	dir, err := b.walk(resolved, ".", filepath.Base(resolved))
	if err != nil {
		return nil, err
	}
	return dir, nil
}

// ResolveRoot returns the absolute, symlink-free form of root and checks
// that it names a directory.
func ResolveRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidRoot, root, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidRoot, root, err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidRoot, root, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %q is not a directory", ErrInvalidRoot, root)
	}
	return resolved, nil
}

func (b *builder) walk(absDir, rel, name string) (*Directory, error) {
	entries, err := os.ReadDir(absDir)
	if err != nil {
		return nil, fmt.Errorf("read directory %q: %w", absDir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	dir := &Directory{Name: name, Path: rel}

	for _, entry := range entries {
		entryName := entry.Name()
		entryPath := filepath.Join(absDir, entryName)
		entryRel := path.Join(rel, entryName)

		if _, skip := b.exclude[entryName]; skip {
			b.logger.Debug("skipping excluded %s", entryRel)
			continue
		}

		switch mode := entry.Type(); {
		case mode.IsDir():
			sub, err := b.walk(entryPath, entryRel, entryName)
			if err != nil {
				return nil, err
			}
			dir.Directories = append(dir.Directories, sub)
		case mode.IsRegular():
			d, err := b.files.HashFile(entryPath)
			if err != nil {
				return nil, err
			}
			b.logger.Debug("%s %s", d.Hex(), entryRel)
			dir.Files = append(dir.Files, &File{Name: entryName, Path: entryRel, Digest: d})
		default:
			return nil, fmt.Errorf("%w: %q is a %s", ErrInvalidPath, entryPath, describeMode(mode))
		}
	}

	if err := b.fold(dir); err != nil {
		return nil, err
	}
	b.logger.Debug("%s %s/", dir.Digest.Hex(), rel)
	return dir, nil
}

// fold computes the aggregate digest of dir: every file digest in name
// order, then every subdirectory aggregate in name order.
func (b *builder) fold(dir *Directory) error {
	engine, err := memory.New(b.algorithm)
	if err != nil {
		return err
	}

	for _, f := range dir.Files {
		if f.Digest.IsEmpty() {
			return fmt.Errorf("%w: file %q", ErrEmptyDigest, f.Path)
		}
		engine.Update(f.Digest.Value())
	}
	for _, sub := range dir.Directories {
		if !sub.Valid() {
			return fmt.Errorf("%w: directory %q", ErrEmptyDigest, sub.Path)
		}
		engine.Update(sub.Digest.Value())
	}

	d, err := engine.Compute()
	if err != nil {
		return fmt.Errorf("fold %q: %w", dir.Path, err)
	}
	dir.Digest = d
	return nil
}

func describeMode(mode fs.FileMode) string {
	switch {
	case mode&fs.ModeSymlink != 0:
		return "symlink"
	case mode&fs.ModeNamedPipe != 0:
		return "named pipe"
	case mode&fs.ModeSocket != 0:
		return "socket"
	case mode&fs.ModeDevice != 0:
		return "device"
	default:
		return "special file"
	}
}
