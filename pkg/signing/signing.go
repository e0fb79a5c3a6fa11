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

// Package signing provides the key backends that sign and verify tree
// digests.
//
// The set of backends is closed: SSH private keys (signing in-process or
// through an SSH agent), SSH public keys (verification) and an external
// GnuPG program. ParseLocator picks the backend from the key locator string
// and NewSigner and NewVerifier build it. Signer and Verifier cannot be
// implemented outside this package.
package signing

import (
	"context"
	"errors"
	"fmt"

	"github.com/uintptr/dver/pkg/logging"
)

var (
	// ErrUnsupportedKey is returned for locators that name no known backend.
	ErrUnsupportedKey = errors.New("unsupported key")
	// ErrKeyKind is returned when a key cannot perform the requested
	// operation, such as signing with a public key.
	ErrKeyKind = errors.New("key cannot be used for this operation")
	// ErrSignatureMismatch is returned by Verify when a well-formed
	// signature does not match the message. It is a verification failure,
	// not a fault.
	ErrSignatureMismatch = errors.New("signature mismatch")
)

// Signer produces a signature over a message.
type Signer interface {
	// Sign returns the signature bytes for message.
	Sign(ctx context.Context, message []byte) ([]byte, error)
	// Kind reports the backend.
	Kind() Kind

	sealed()
}

// Verifier checks a signature over a message.
type Verifier interface {
	// Verify returns nil when signature is valid for message, an error
	// wrapping ErrSignatureMismatch when it is well-formed but does not
	// match, and any other error when verification could not be performed.
	Verify(ctx context.Context, message, signature []byte) error
	// Kind reports the backend.
	Kind() Kind

	sealed()
}

// Options configures backend construction.
type Options struct {
	// AgentSocket is the SSH agent socket path. Empty means read
	// SSH_AUTH_SOCK.
	AgentSocket string
	// GPGProgram is the GnuPG executable name or path. Empty means "gpg".
	GPGProgram string
	// Credentials supplies passphrases when a key is locked. Nil disables
	// passphrase fallbacks.
	Credentials CredentialProvider
	// Logger receives backend diagnostics.
	Logger logging.Logger
}

func (o Options) logger() logging.Logger {
	return logging.EnsureLogger(o.Logger)
}

// NewSigner builds the signing backend for locator.
func NewSigner(locator string, opts Options) (Signer, error) {
	loc := ParseLocator(locator)
	switch loc.Kind {
	case KindSSHPrivate:
		return NewSSHKeySigner(loc.Path, opts)
	case KindGPG:
		return NewGPGSigner(loc.KeyID, opts)
	case KindSSHPublic:
		return nil, fmt.Errorf("%w: %s is a public key, signing needs the private key", ErrKeyKind, loc.Path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKey, locator)
	}
}

// NewVerifier builds the verification backend for locator. A private SSH key
// verifies with its public half.
func NewVerifier(locator string, opts Options) (Verifier, error) {
	loc := ParseLocator(locator)
	switch loc.Kind {
	case KindSSHPublic:
		return NewSSHKeyVerifier(loc.Path, opts)
	case KindSSHPrivate:
		pub, err := loadPublicHalf(loc.Path)
		if err != nil {
			return nil, err
		}
		return &SSHKeyVerifier{pub: pub, logger: opts.logger()}, nil
	case KindGPG:
		return NewGPGVerifier(opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKey, locator)
	}
}
