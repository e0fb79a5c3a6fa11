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

package digests

import (
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownAlgorithm is returned when an algorithm name is not one of the
// supported digests.
var ErrUnknownAlgorithm = errors.New("unknown hash algorithm")

// Algorithm identifies one of the supported hash functions. The set is
// closed: SHA256 and SHA512.
type Algorithm int

const (
	// SHA256 is the default algorithm for tree hashing.
	SHA256 Algorithm = iota + 1
	SHA512
)

// Algorithms lists the supported algorithms in preference order.
func Algorithms() []Algorithm {
	return []Algorithm{SHA256, SHA512}
}

// AlgorithmNames returns the names of Algorithms joined by ", ".
func AlgorithmNames() string {
	names := make([]string, 0, 2)
	for _, a := range Algorithms() {
		names = append(names, a.String())
	}
	return strings.Join(names, ", ")
}

// ParseAlgorithm converts a case-insensitive name ("sha256", "sha512") into an
// Algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	want := strings.ToLower(strings.TrimSpace(name))
	for _, a := range Algorithms() {
		if a.String() == want {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%w: %q (supported: %s)", ErrUnknownAlgorithm, name, AlgorithmNames())
}

// String returns the canonical lowercase name.
func (a Algorithm) String() string {
	switch a {
	case SHA256:
		return "sha256"
	case SHA512:
		return "sha512"
	default:
		return fmt.Sprintf("unknown(%d)", int(a))
	}
}

// Size returns the digest length in bytes, or 0 for an unknown algorithm.
func (a Algorithm) Size() int {
	switch a {
	case SHA256:
		return sha256.Size
	case SHA512:
		return sha512.Size
	default:
		return 0
	}
}

// Valid reports whether a is a supported algorithm.
func (a Algorithm) Valid() bool {
	return a == SHA256 || a == SHA512
}
