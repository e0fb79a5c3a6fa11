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

// Package sshagent is a minimal SSH agent protocol client.
//
// It speaks only the two exchanges dver needs: listing identities and
// asking for a signature. Every message is framed as a big-endian uint32
// length, a one-byte kind and a payload. A Client is used by one goroutine
// at a time and becomes unusable after any protocol error.
package sshagent

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/crypto/ssh"
)

// EnvSocket names the environment variable holding the agent socket path.
const EnvSocket = "SSH_AUTH_SOCK"

// Message kinds.
const (
	msgFailure           = 5
	msgRequestIdentities = 11
	msgIdentitiesAnswer  = 12
	msgSignRequest       = 13
	msgSignResponse      = 14
)

// FlagRSASHA512 asks the agent for an rsa-sha2-512 signature from an RSA key.
const FlagRSASHA512 uint32 = 4

// maxFrameSize bounds responses read from the agent.
const maxFrameSize = 256 * 1024

var (
	// ErrNotRunning is returned when no agent socket is configured.
	ErrNotRunning = errors.New("ssh agent not running: " + EnvSocket + " is not set")
	// ErrUnreachable is returned when the agent socket cannot be dialed.
	ErrUnreachable = errors.New("ssh agent unreachable")
	// ErrIdentityNotFound is returned when the agent does not hold the key.
	ErrIdentityNotFound = errors.New("identity not found in ssh agent")
	// ErrAgentFailure is returned when the agent answers with a failure
	// message.
	ErrAgentFailure = errors.New("ssh agent refused the request")
	// ErrMalformed is returned for responses that do not decode.
	ErrMalformed = errors.New("malformed ssh agent response")
	// ErrClosed is returned by a Client that was closed or broken.
	ErrClosed = errors.New("ssh agent client is closed")
)

// UnexpectedMessageError reports a response of the wrong kind.
type UnexpectedMessageError struct {
	Want byte
	Got  byte
}

func (e *UnexpectedMessageError) Error() string {
	return fmt.Sprintf("unexpected ssh agent message: got kind %d, want %d", e.Got, e.Want)
}

// Identity is a key held by the agent.
type Identity struct {
	// KeyBlob is the public key in SSH wire format.
	KeyBlob []byte
	Comment string
}

// Fingerprint returns the SHA256 fingerprint of the key.
func (id *Identity) Fingerprint() string {
	return Fingerprint(id.KeyBlob)
}

// Algorithm returns the key algorithm name stored at the start of the blob.
func (id *Identity) Algorithm() (string, error) {
	alg, _, ok := parseString(id.KeyBlob)
	if !ok {
		return "", fmt.Errorf("%w: key blob has no algorithm", ErrMalformed)
	}
	return string(alg), nil
}

// PublicKey parses the key blob.
func (id *Identity) PublicKey() (ssh.PublicKey, error) {
	return ssh.ParsePublicKey(id.KeyBlob)
}

// Fingerprint computes the SHA256 fingerprint of a public key blob in the
// format "SHA256:<base64>".
func Fingerprint(keyBlob []byte) string {
	hash := sha256.Sum256(keyBlob)
	return "SHA256:" + base64.RawStdEncoding.EncodeToString(hash[:])
}

type signRequestMsg struct {
	KeyBlob []byte `sshtype:"13"`
	Data    []byte
	Flags   uint32
}

type signResponseMsg struct {
	SigBlob []byte `sshtype:"14"`
}

// parseString reads one SSH string from in.
func parseString(in []byte) (out, rest []byte, ok bool) {
	if len(in) < 4 {
		return nil, nil, false
	}
	n := binary.BigEndian.Uint32(in)
	in = in[4:]
	if uint32(len(in)) < n {
		return nil, nil, false
	}
	return in[:n], in[n:], true
}

// parseIdentities decodes the body of an identities answer, after the
// kind byte.
func parseIdentities(body []byte) ([]*Identity, error) {
	if len(body) < 4 {
		return nil, fmt.Errorf("%w: identities answer too short", ErrMalformed)
	}
	count := binary.BigEndian.Uint32(body)
	body = body[4:]
	// Each identity takes at least two length prefixes.
	if uint64(count)*8 > uint64(len(body)) {
		return nil, fmt.Errorf("%w: %d identities do not fit in %d bytes", ErrMalformed, count, len(body))
	}

	ids := make([]*Identity, 0, count)
	for i := uint32(0); i < count; i++ {
		blob, rest, ok := parseString(body)
		if !ok {
			return nil, fmt.Errorf("%w: identity %d key blob", ErrMalformed, i)
		}
		comment, rest, ok := parseString(rest)
		if !ok {
			return nil, fmt.Errorf("%w: identity %d comment", ErrMalformed, i)
		}
		ids = append(ids, &Identity{
			KeyBlob: append([]byte(nil), blob...),
			Comment: string(comment),
		})
		body = rest
	}
	if len(body) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes after identities", ErrMalformed, len(body))
	}
	return ids, nil
}
