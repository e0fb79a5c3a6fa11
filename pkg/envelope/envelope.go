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

// Package envelope holds a signed tree and its text armor.
//
// An Envelope carries a format version, the canonical tree encoding and the
// signature over the SHA-512 digest of that encoding. It is persisted in one
// of two modes: complete, which keeps the encoded tree for offline audit,
// and short, which keeps only the signature bytes and requires the verifier
// to re-encode the live directory.
package envelope

import (
	"bytes"
	"context"
	"crypto/sha512"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/uintptr/dver/pkg/signing"
	"github.com/uintptr/dver/pkg/tree"
)

// FormatVersion is the only envelope version this package reads and writes.
const FormatVersion = 1

// armorType produces the marker lines "-----BEGIN SIGNATURE -----" and
// "-----END SIGNATURE -----".
const armorType = "SIGNATURE "

var beginMarker = []byte("-----BEGIN " + armorType + "-----")

// ErrMalformed is returned when armored text cannot be parsed.
var ErrMalformed = errors.New("malformed signature file")

// Mode selects what the armored text carries.
type Mode int

const (
	// Complete keeps the encoded tree alongside the signature.
	Complete Mode = iota
	// Short keeps only the signature bytes.
	Short
)

func (m Mode) String() string {
	switch m {
	case Complete:
		return "complete"
	case Short:
		return "short"
	default:
		return "unknown"
	}
}

// ParseMode parses "complete" or "short".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "complete", "":
		return Complete, nil
	case "short":
		return Short, nil
	default:
		return 0, fmt.Errorf("unknown signature type %q (supported: complete, short)", s)
	}
}

// Envelope is a signature together with what was signed.
type Envelope struct {
	Version int `json:"version"`
	// Tree is the canonical tree encoding; nil for short-mode envelopes
	// read back from text.
	Tree []byte `json:"tree,omitempty"`
	// Signature is the backend signature over SigningDigest(Tree).
	Signature []byte `json:"signature"`
}

// SigningDigest returns the SHA-512 digest of an encoded tree, the value
// every backend signs.
func SigningDigest(encoded []byte) []byte {
	sum := sha512.Sum512(encoded)
	return sum[:]
}

// Sign encodes doc, hashes the encoding and signs the digest with signer.
func Sign(ctx context.Context, doc *tree.Document, signer signing.Signer) (*Envelope, error) {
	encoded, err := doc.Encode()
	if err != nil {
		return nil, err
	}
	sig, err := signer.Sign(ctx, SigningDigest(encoded))
	if err != nil {
		return nil, fmt.Errorf("sign tree: %w", err)
	}
	return &Envelope{Version: FormatVersion, Tree: encoded, Signature: sig}, nil
}

// IsShort reports whether the envelope carries no tree.
func (e *Envelope) IsShort() bool {
	return len(e.Tree) == 0
}

// Document decodes the embedded tree.
func (e *Envelope) Document() (*tree.Document, error) {
	if e.IsShort() {
		return nil, fmt.Errorf("short signature carries no tree")
	}
	return tree.Decode(e.Tree)
}

// Marshal renders the armored text for mode.
func (e *Envelope) Marshal(mode Mode) ([]byte, error) {
	if len(e.Signature) == 0 {
		return nil, fmt.Errorf("envelope has no signature")
	}

	var body []byte
	switch mode {
	case Complete:
		if e.IsShort() {
			return nil, fmt.Errorf("complete mode needs the encoded tree")
		}
		var err error
		body, err = json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("encode envelope: %w", err)
		}
	case Short:
		if e.Signature[0] == '{' {
			return nil, fmt.Errorf("signature bytes would be read back as an envelope")
		}
		body = e.Signature
	default:
		return nil, fmt.Errorf("unknown mode %d", int(mode))
	}

	return pem.EncodeToMemory(&pem.Block{Type: armorType, Bytes: body}), nil
}

// Parse reads armored text. A decoded payload starting with '{' is a
// structured envelope; anything else is a bare short-mode signature. The
// text must be exactly one signature block, optionally surrounded by
// whitespace.
func Parse(text []byte) (*Envelope, error) {
	text = bytes.TrimLeft(text, " \t\r\n")
	if !bytes.HasPrefix(text, beginMarker) {
		return nil, fmt.Errorf("%w: text does not start with a signature block", ErrMalformed)
	}
	block, rest := pem.Decode(text)
	if block == nil {
		return nil, fmt.Errorf("%w: no signature block found", ErrMalformed)
	}
	// pem.Decode skips blocks it cannot decode and returns a later one.
	if consumed := text[:len(text)-len(rest)]; bytes.Count(consumed, []byte("-----BEGIN ")) != 1 {
		return nil, fmt.Errorf("%w: first signature block is not valid armor", ErrMalformed)
	}
	if block.Type != armorType {
		return nil, fmt.Errorf("%w: unexpected block type %q", ErrMalformed, strings.TrimSpace(block.Type))
	}
	if len(block.Headers) != 0 {
		return nil, fmt.Errorf("%w: unexpected armor headers", ErrMalformed)
	}
	if len(bytes.TrimSpace(rest)) != 0 {
		return nil, fmt.Errorf("%w: trailing data after signature block", ErrMalformed)
	}
	if len(block.Bytes) == 0 {
		return nil, fmt.Errorf("%w: empty signature block", ErrMalformed)
	}

	if block.Bytes[0] != '{' {
		return &Envelope{Version: FormatVersion, Signature: block.Bytes}, nil
	}

	var env Envelope
	dec := json.NewDecoder(bytes.NewReader(block.Bytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Version != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrMalformed, env.Version)
	}
	if len(env.Tree) == 0 || len(env.Signature) == 0 {
		return nil, fmt.Errorf("%w: envelope is missing its tree or signature", ErrMalformed)
	}
	return &env, nil
}

// WriteFile writes the armored envelope to path.
func (e *Envelope) WriteFile(path string, mode Mode) error {
	text, err := e.Marshal(mode)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, text, 0o644); err != nil {
		return fmt.Errorf("write signature: %w", err)
	}
	return nil
}

// ReadFile parses the armored envelope at path.
func ReadFile(path string) (*Envelope, error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read signature: %w", err)
	}
	return Parse(text)
}
