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

// Package io hashes file contents through streaming hash engines.
package io

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/uintptr/dver/pkg/hashing/digests"
	hashengines "github.com/uintptr/dver/pkg/hashing/engines"
)

// DefaultChunkSize is the read buffer size used when streaming a file.
const DefaultChunkSize = 8 * 1024

// FileHasher streams files through a content hasher in fixed-size chunks.
//
// Memory use is bounded by the chunk size regardless of file size. The inner
// engine is reset before every file, so one FileHasher can be reused
// sequentially but must not be shared between goroutines.
type FileHasher struct {
	contentHasher hashengines.StreamingHashEngine
	chunkSize     int
	buf           []byte
}

// NewFileHasher returns a FileHasher using contentHasher. A chunkSize of zero
// selects DefaultChunkSize.
func NewFileHasher(contentHasher hashengines.StreamingHashEngine, chunkSize int) (*FileHasher, error) {
	if chunkSize < 0 {
		return nil, fmt.Errorf("chunk size must be non-negative, got %d", chunkSize)
	}
	if contentHasher == nil {
		return nil, fmt.Errorf("content hasher must not be nil")
	}
	if chunkSize == 0 {
		chunkSize = DefaultChunkSize
	}

	return &FileHasher{
		contentHasher: contentHasher,
		chunkSize:     chunkSize,
	}, nil
}

// HashFile returns the digest of the full contents of the file at path.
func (h *FileHasher) HashFile(path string) (digests.Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return digests.Digest{}, fmt.Errorf("open file %q: %w", path, err)
	}
	defer f.Close()

	d, err := h.HashReader(f)
	if err != nil {
		return digests.Digest{}, fmt.Errorf("read file %q: %w", path, err)
	}
	return d, nil
}

// HashReader returns the digest of everything r yields until EOF.
func (h *FileHasher) HashReader(r io.Reader) (digests.Digest, error) {
	h.contentHasher.Reset(nil)

	if h.buf == nil {
		h.buf = make([]byte, h.chunkSize)
	}
	for {
		n, err := r.Read(h.buf)
		if n > 0 {
			h.contentHasher.Update(h.buf[:n])
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return digests.Digest{}, err
		}
	}

	d, err := h.contentHasher.Compute()
	if err != nil {
		return digests.Digest{}, fmt.Errorf("compute digest: %w", err)
	}
	return d, nil
}
