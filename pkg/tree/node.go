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

// Package tree computes the deterministic fingerprint of a directory.
//
// Build walks a directory depth-first and produces a Directory whose digest
// is folded, post-order, from the digests of its files followed by the
// aggregate digests of its subdirectories, each group sorted by name. Two
// walks of byte-identical trees produce identical digests on any platform.
package tree

import (
	"github.com/uintptr/dver/pkg/hashing/digests"
)

// File is a regular file inside the hashed tree.
type File struct {
	// Name is the base name of the file.
	Name string
	// Path is the slash-separated path relative to the tree root.
	Path string
	// Digest is the hash of the full file contents.
	Digest digests.Digest
}

// Directory is a directory inside the hashed tree. Files and Directories are
// kept sorted by Name.
type Directory struct {
	// Name is the base name of the directory. For the root it is the base
	// name of the resolved root path.
	Name string
	// Path is the slash-separated path relative to the tree root; "." for
	// the root itself.
	Path        string
	Files       []*File
	Directories []*Directory
	// Digest is the aggregate digest; empty until the directory is folded.
	Digest digests.Digest
}

// Valid reports whether the aggregate digest has been computed.
func (d *Directory) Valid() bool {
	return d != nil && !d.Digest.IsEmpty()
}

// Count returns the number of files and subdirectories below d, excluding
// d itself.
func (d *Directory) Count() (files, dirs int) {
	files = len(d.Files)
	for _, sub := range d.Directories {
		f, s := sub.Count()
		files += f
		dirs += s + 1
	}
	return files, dirs
}

// Walk calls fn for d and every directory below it, parents first.
func (d *Directory) Walk(fn func(*Directory)) {
	fn(d)
	for _, sub := range d.Directories {
		sub.Walk(fn)
	}
}
