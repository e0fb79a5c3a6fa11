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

// Package digests provides types for representing cryptographic hash digests.
//
// A Digest pairs the algorithm with the computed hash value. Fields are
// unexported and accessors copy, so a Digest never changes once built.
package digests

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

// Digest represents a computed cryptographic hash digest.
//
// The zero value is the empty digest: it carries no algorithm and no bytes.
// The directory hash engine treats an empty digest at fold time as an
// integrity error, see IsEmpty.
type Digest struct {
	algorithm Algorithm
	value     []byte
}

// NewDigest creates a new Digest with the specified algorithm and hash value.
//
// The value slice is copied so later mutation by the caller has no effect.
func NewDigest(algorithm Algorithm, value []byte) Digest {
	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	return Digest{
		algorithm: algorithm,
		value:     valueCopy,
	}
}

// ParseHex builds a Digest from its lowercase hexadecimal encoding.
func ParseHex(algorithm Algorithm, s string) (Digest, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Digest{}, fmt.Errorf("decode %s digest: %w", algorithm, err)
	}
	if len(raw) != algorithm.Size() {
		return Digest{}, fmt.Errorf("%s digest must be %d bytes, got %d", algorithm, algorithm.Size(), len(raw))
	}
	return NewDigest(algorithm, raw), nil
}

// Algorithm returns the hash algorithm used to compute this digest.
func (d Digest) Algorithm() Algorithm {
	return d.algorithm
}

// Value returns a copy of the raw digest bytes.
func (d Digest) Value() []byte {
	valueCopy := make([]byte, len(d.value))
	copy(valueCopy, d.value)
	return valueCopy
}

// Hex returns the lowercase hexadecimal encoding of the digest value.
func (d Digest) Hex() string {
	return hex.EncodeToString(d.value)
}

// Size returns the length in bytes of the digest value.
func (d Digest) Size() int {
	return len(d.value)
}

// IsEmpty reports whether the digest holds no bytes.
func (d Digest) IsEmpty() bool {
	return len(d.value) == 0
}

// String returns the digest formatted as "algorithm:hexvalue".
func (d Digest) String() string {
	return fmt.Sprintf("%s:%s", d.algorithm, d.Hex())
}

// Equal reports whether both digests use the same algorithm and hold
// identical bytes.
func (d Digest) Equal(other Digest) bool {
	return d.algorithm == other.algorithm && bytes.Equal(d.value, other.value)
}
