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
	"fmt"
	"sort"
	"strings"
)

// Diff describes how an actual tree differs from an expected one. All slices
// are sorted by path.
type Diff struct {
	// ExtraFiles are present in actual but not in expected.
	ExtraFiles []string
	// MissingFiles are present in expected but not in actual.
	MissingFiles []string
	// ExtraDirectories are present in actual but not in expected.
	ExtraDirectories []string
	// MissingDirectories are present in expected but not in actual.
	MissingDirectories []string
	// Mismatches are files present in both with different digests.
	Mismatches []Mismatch
}

// Mismatch is a single file whose digest changed.
type Mismatch struct {
	Path     string
	Expected string
	Actual   string
}

// IsEmpty returns true if there are no differences.
func (d *Diff) IsEmpty() bool {
	return len(d.ExtraFiles) == 0 && len(d.MissingFiles) == 0 &&
		len(d.ExtraDirectories) == 0 && len(d.MissingDirectories) == 0 &&
		len(d.Mismatches) == 0
}

// String renders the diff one change per line, e.g. "+ a.txt".
func (d *Diff) String() string {
	var b strings.Builder
	for _, p := range d.MissingDirectories {
		fmt.Fprintf(&b, "- %s/\n", p)
	}
	for _, p := range d.ExtraDirectories {
		fmt.Fprintf(&b, "+ %s/\n", p)
	}
	for _, p := range d.MissingFiles {
		fmt.Fprintf(&b, "- %s\n", p)
	}
	for _, p := range d.ExtraFiles {
		fmt.Fprintf(&b, "+ %s\n", p)
	}
	for _, m := range d.Mismatches {
		fmt.Fprintf(&b, "~ %s (expected %s, got %s)\n", m.Path, m.Expected, m.Actual)
	}
	return b.String()
}

// Compare computes the differences between an expected tree (for example
// the one recorded in a signature) and an actual tree built from disk.
func Compare(expected, actual *Directory) *Diff {
	expFiles, expDirs := flatten(expected)
	actFiles, actDirs := flatten(actual)

	diff := &Diff{
		ExtraFiles:         onlyIn(actFiles, expFiles),
		MissingFiles:       onlyIn(expFiles, actFiles),
		ExtraDirectories:   onlyIn(actDirs, expDirs),
		MissingDirectories: onlyIn(expDirs, actDirs),
	}

	var common []string
	for p := range actFiles {
		if _, ok := expFiles[p]; ok {
			common = append(common, p)
		}
	}
	sort.Strings(common)

	for _, p := range common {
		if actFiles[p] != expFiles[p] {
			diff.Mismatches = append(diff.Mismatches, Mismatch{
				Path:     p,
				Expected: expFiles[p],
				Actual:   actFiles[p],
			})
		}
	}
	return diff
}

// flatten maps file paths to digest hex and collects directory paths below
// the root.
func flatten(root *Directory) (files, dirs map[string]string) {
	files = make(map[string]string)
	dirs = make(map[string]string)
	if root == nil {
		return files, dirs
	}
	root.Walk(func(d *Directory) {
		if d != root {
			dirs[d.Path] = d.Digest.Hex()
		}
		for _, f := range d.Files {
			files[f.Path] = f.Digest.Hex()
		}
	})
	return files, dirs
}

func onlyIn(a, b map[string]string) []string {
	var out []string
	for p := range a {
		if _, ok := b[p]; !ok {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}
