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

// Package hashengines defines the hashing interfaces used by the directory
// hash engine.
//
// Engines are streaming: data is fed incrementally with Update and the
// digest is produced by Compute. A fresh engine is created for every file
// and every directory fold; engines are never shared across goroutines.
package hashengines

import (
	"github.com/uintptr/dver/pkg/hashing/digests"
)

// HashEngine computes a digest for the data it has been given.
type HashEngine interface {
	// Compute finalizes the hash computation and returns the resulting digest.
	Compute() (digests.Digest, error)

	// DigestName returns the canonical name of the hash algorithm.
	DigestName() string

	// DigestSize returns the size in bytes of digests produced by this engine.
	// The returned value must match the Size() of the Digest returned by Compute.
	DigestSize() int
}

// Streaming defines the interface for incrementally feeding data to a hash engine.
type Streaming interface {
	// Update appends additional bytes to the data being hashed.
	Update(data []byte)

	// Reset clears the hash state and optionally initializes it with new data.
	Reset(data []byte)
}

// StreamingHashEngine combines HashEngine and Streaming for incremental hashing.
type StreamingHashEngine interface {
	HashEngine
	Streaming
}
