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

package memory

import (
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"

	"github.com/uintptr/dver/pkg/hashing/digests"
	hashengines "github.com/uintptr/dver/pkg/hashing/engines"
)

// Ensure GenericHashEngine implements StreamingHashEngine at compile time.
var _ hashengines.StreamingHashEngine = (*GenericHashEngine)(nil)

// HashFactoryFunc is a function that creates a new hash.Hash instance.
type HashFactoryFunc func() hash.Hash

// GenericHashEngine wraps a hash.Hash constructor behind the
// StreamingHashEngine interface.
type GenericHashEngine struct {
	algorithm digests.Algorithm
	factory   HashFactoryFunc
	h         hash.Hash
}

// NewGenericHashEngine creates a new engine for algorithm, seeded with
// initialData when it is non-empty.
func NewGenericHashEngine(algorithm digests.Algorithm, factory HashFactoryFunc, initialData []byte) *GenericHashEngine {
	engine := &GenericHashEngine{
		algorithm: algorithm,
		factory:   factory,
		h:         factory(),
	}

	if len(initialData) > 0 {
		// hash.Hash.Write never returns an error.
		_, _ = engine.h.Write(initialData)
	}

	return engine
}

// New returns a fresh streaming engine for one of the supported algorithms.
func New(algorithm digests.Algorithm) (*GenericHashEngine, error) {
	switch algorithm {
	case digests.SHA256:
		return NewSHA256Engine(nil), nil
	case digests.SHA512:
		return NewSHA512Engine(nil), nil
	default:
		return nil, fmt.Errorf("%w: %s", digests.ErrUnknownAlgorithm, algorithm)
	}
}

// NewSHA256Engine constructs an engine over crypto/sha256.
func NewSHA256Engine(initialData []byte) *GenericHashEngine {
	return NewGenericHashEngine(digests.SHA256, sha256.New, initialData)
}

// NewSHA512Engine constructs an engine over crypto/sha512.
func NewSHA512Engine(initialData []byte) *GenericHashEngine {
	return NewGenericHashEngine(digests.SHA512, sha512.New, initialData)
}

// Sum hashes data in one shot.
func Sum(algorithm digests.Algorithm, data []byte) (digests.Digest, error) {
	e, err := New(algorithm)
	if err != nil {
		return digests.Digest{}, err
	}
	e.Update(data)
	return e.Compute()
}

// Update appends additional bytes to the data to be hashed.
func (e *GenericHashEngine) Update(data []byte) {
	if len(data) > 0 {
		_, _ = e.h.Write(data)
	}
}

// Reset clears the hash state and optionally seeds it with initial data.
func (e *GenericHashEngine) Reset(data []byte) {
	e.h = e.factory()
	if len(data) > 0 {
		_, _ = e.h.Write(data)
	}
}

// Compute finalizes the hash and returns a digests.Digest.
func (e *GenericHashEngine) Compute() (digests.Digest, error) {
	return digests.NewDigest(e.algorithm, e.h.Sum(nil)), nil
}

// Algorithm returns the algorithm of digests produced by this engine.
func (e *GenericHashEngine) Algorithm() digests.Algorithm {
	return e.algorithm
}

// DigestName returns the canonical name of the hash algorithm.
func (e *GenericHashEngine) DigestName() string {
	return e.algorithm.String()
}

// DigestSize returns the size, in bytes, of digests produced by this engine.
func (e *GenericHashEngine) DigestSize() int {
	return e.algorithm.Size()
}
