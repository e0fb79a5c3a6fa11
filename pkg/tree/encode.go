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
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path"

	"github.com/uintptr/dver/pkg/hashing/digests"
)

// FormatVersion is the version written into every encoded tree.
const FormatVersion = 1

// ErrMalformedTree is returned by Decode for documents that are not valid
// canonical tree encodings.
var ErrMalformedTree = errors.New("malformed tree encoding")

// Document is a tree together with the parameters needed to rebuild it.
type Document struct {
	Version   int
	Algorithm digests.Algorithm
	// Exclude holds the extra excluded names, sorted.
	Exclude []string
	Root    *Directory
}

// NewDocument wraps root with the parameters it was built with.
func NewDocument(root *Directory, opts Options) *Document {
	return &Document{
		Version:   FormatVersion,
		Algorithm: opts.algorithm(),
		Exclude:   opts.ExcludeNames(),
		Root:      root,
	}
}

// Options returns build options that reproduce the document's tree.
func (d *Document) Options() Options {
	exclude := make([]string, len(d.Exclude))
	copy(exclude, d.Exclude)
	return Options{Algorithm: d.Algorithm, Exclude: exclude}
}

type wireDocument struct {
	Version   int      `json:"version"`
	Algorithm string   `json:"algorithm"`
	Exclude   []string `json:"exclude,omitempty"`
	Root      wireNode `json:"root"`
}

type wireNode struct {
	Path        string     `json:"path"`
	Digest      string     `json:"digest"`
	Files       []wireFile `json:"files,omitempty"`
	Directories []wireNode `json:"directories,omitempty"`
}

type wireFile struct {
	Path   string `json:"path"`
	Digest string `json:"digest"`
}

// Encode returns the canonical byte encoding of the document: compact JSON
// with fixed field order and children in name order. Equal documents always
// encode to identical bytes.
func (d *Document) Encode() ([]byte, error) {
	if !d.Root.Valid() {
		return nil, fmt.Errorf("%w: root directory", ErrEmptyDigest)
	}
	if !d.Algorithm.Valid() {
		return nil, fmt.Errorf("%w: %s", digests.ErrUnknownAlgorithm, d.Algorithm)
	}

	root, err := toWire(d.Root)
	if err != nil {
		return nil, err
	}
	doc := wireDocument{
		Version:   d.Version,
		Algorithm: d.Algorithm.String(),
		Exclude:   d.Exclude,
		Root:      root,
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode tree: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Encode is shorthand for NewDocument(root, opts).Encode().
func Encode(root *Directory, opts Options) ([]byte, error) {
	return NewDocument(root, opts).Encode()
}

func toWire(dir *Directory) (wireNode, error) {
	if !dir.Valid() {
		return wireNode{}, fmt.Errorf("%w: directory %q", ErrEmptyDigest, dir.Path)
	}
	node := wireNode{Path: dir.Path, Digest: dir.Digest.Hex()}
	for _, f := range dir.Files {
		node.Files = append(node.Files, wireFile{Path: f.Path, Digest: f.Digest.Hex()})
	}
	for _, sub := range dir.Directories {
		child, err := toWire(sub)
		if err != nil {
			return wireNode{}, err
		}
		node.Directories = append(node.Directories, child)
	}
	return node, nil
}

// Decode parses a canonical tree encoding.
func Decode(data []byte) (*Document, error) {
	var doc wireDocument
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTree, err)
	}
	if doc.Version != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrMalformedTree, doc.Version)
	}
	alg, err := digests.ParseAlgorithm(doc.Algorithm)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTree, err)
	}
	if doc.Root.Path != "." {
		return nil, fmt.Errorf("%w: root path %q", ErrMalformedTree, doc.Root.Path)
	}

	root, err := fromWire(doc.Root, alg, ".")
	if err != nil {
		return nil, err
	}
	return &Document{
		Version:   doc.Version,
		Algorithm: alg,
		Exclude:   doc.Exclude,
		Root:      root,
	}, nil
}

func fromWire(node wireNode, alg digests.Algorithm, name string) (*Directory, error) {
	d, err := digests.ParseHex(alg, node.Digest)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrMalformedTree, node.Path, err)
	}
	dir := &Directory{Name: name, Path: node.Path, Digest: d}

	var prev string
	for i, f := range node.Files {
		fname, err := childName(node.Path, f.Path)
		if err != nil {
			return nil, err
		}
		if i > 0 && fname <= prev {
			return nil, fmt.Errorf("%w: files of %q out of order", ErrMalformedTree, node.Path)
		}
		prev = fname
		fd, err := digests.ParseHex(alg, f.Digest)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrMalformedTree, f.Path, err)
		}
		dir.Files = append(dir.Files, &File{Name: fname, Path: f.Path, Digest: fd})
	}

	prev = ""
	for i, sub := range node.Directories {
		dname, err := childName(node.Path, sub.Path)
		if err != nil {
			return nil, err
		}
		if i > 0 && dname <= prev {
			return nil, fmt.Errorf("%w: directories of %q out of order", ErrMalformedTree, node.Path)
		}
		prev = dname
		child, err := fromWire(sub, alg, dname)
		if err != nil {
			return nil, err
		}
		dir.Directories = append(dir.Directories, child)
	}
	return dir, nil
}

// childName checks that p is a direct child of parent and returns its base
// name.
func childName(parent, p string) (string, error) {
	name := path.Base(p)
	if name == "." || name == ".." || name == "/" || path.Join(parent, name) != p {
		return "", fmt.Errorf("%w: %q is not a child of %q", ErrMalformedTree, p, parent)
	}
	return name, nil
}
