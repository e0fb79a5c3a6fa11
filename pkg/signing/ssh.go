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

package signing

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/ssh"

	"github.com/uintptr/dver/internal/sshagent"
	"github.com/uintptr/dver/internal/sshsig"
	"github.com/uintptr/dver/pkg/logging"
)

var (
	_ Signer   = (*SSHKeySigner)(nil)
	_ Signer   = (*AgentSigner)(nil)
	_ Verifier = (*SSHKeyVerifier)(nil)
)

// SSHKeySigner signs with an OpenSSH private key file.
//
// An unencrypted key signs in-process. An encrypted key is never decrypted
// up front: signing is delegated to the SSH agent holding the same
// identity. When no agent is running, or the agent does not hold the key,
// and a CredentialProvider is configured, the passphrase is requested and
// the key is decrypted for this one signature.
type SSHKeySigner struct {
	path   string
	pem    []byte
	pub    ssh.PublicKey
	signer ssh.Signer
	agent  *AgentSigner
	creds  CredentialProvider
	logger logging.Logger
}

// NewSSHKeySigner loads the private key at path.
func NewSSHKeySigner(path string, opts Options) (*SSHKeySigner, error) {
	pemBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}

	s := &SSHKeySigner{
		path:   path,
		pem:    pemBytes,
		creds:  opts.Credentials,
		logger: opts.logger(),
	}

	raw, err := ssh.ParseRawPrivateKey(pemBytes)
	var missing *ssh.PassphraseMissingError
	switch {
	case err == nil:
		signer, err := ssh.NewSignerFromKey(raw)
		if err != nil {
			return nil, fmt.Errorf("load private key %s: %w", path, err)
		}
		s.signer = signer
		s.pub = signer.PublicKey()
	case errors.As(err, &missing):
		pub := missing.PublicKey
		if pub == nil {
			// Legacy PEM keys do not embed the public half.
			if pub, err = readAuthorizedKey(path + ".pub"); err != nil {
				return nil, fmt.Errorf("encrypted key %s: public half unavailable: %w", path, err)
			}
		}
		s.pub = pub
		s.agent = NewAgentSigner(pub, opts)
		s.logger.Debug("%s is encrypted, signing through the ssh agent", path)
	default:
		return nil, fmt.Errorf("parse private key %s: %w", path, err)
	}
	return s, nil
}

// PublicKey returns the public half of the key.
func (s *SSHKeySigner) PublicKey() ssh.PublicKey {
	return s.pub
}

// Encrypted reports whether the key file is passphrase protected.
func (s *SSHKeySigner) Encrypted() bool {
	return s.signer == nil
}

// Kind reports KindSSHPrivate.
func (s *SSHKeySigner) Kind() Kind { return KindSSHPrivate }

func (s *SSHKeySigner) sealed() {}

// Sign returns the SSH wire signature of the SSHSIG structure over message.
func (s *SSHKeySigner) Sign(ctx context.Context, message []byte) ([]byte, error) {
	if !s.Encrypted() {
		return signInProcess(s.signer, message)
	}

	sig, err := s.agent.Sign(ctx, message)
	if err == nil {
		return sig, nil
	}
	if !sshagent.IsUnavailable(err) || s.creds == nil {
		return nil, err
	}

	s.logger.Warn("%v, falling back to passphrase", err)
	pass, perr := s.creds.Passphrase(fmt.Sprintf("Enter passphrase for %s: ", s.path))
	if perr != nil {
		return nil, perr
	}
	raw, perr := ssh.ParseRawPrivateKeyWithPassphrase(s.pem, pass)
	if perr != nil {
		return nil, fmt.Errorf("decrypt private key %s: %w", s.path, perr)
	}
	signer, perr := ssh.NewSignerFromKey(raw)
	if perr != nil {
		return nil, fmt.Errorf("load private key %s: %w", s.path, perr)
	}
	return signInProcess(signer, message)
}

func signInProcess(signer ssh.Signer, message []byte) ([]byte, error) {
	sig, err := sshsig.Sign(rand.Reader, signer, sshsig.Namespace, message)
	if err != nil {
		return nil, fmt.Errorf("ssh sign: %w", err)
	}
	return sshsig.Marshal(sig), nil
}

// AgentSigner signs through an SSH agent. It never sees private key
// material or passphrases.
type AgentSigner struct {
	pub    ssh.PublicKey
	socket string
	logger logging.Logger
}

// NewAgentSigner returns a signer that asks the agent for signatures by pub.
func NewAgentSigner(pub ssh.PublicKey, opts Options) *AgentSigner {
	return &AgentSigner{pub: pub, socket: opts.AgentSocket, logger: opts.logger()}
}

// Kind reports KindSSHPrivate: the agent holds the private half.
func (s *AgentSigner) Kind() Kind { return KindSSHPrivate }

func (s *AgentSigner) sealed() {}

// Sign opens a fresh agent connection, finds the identity and requests a
// signature of the SSHSIG structure over message.
func (s *AgentSigner) Sign(_ context.Context, message []byte) ([]byte, error) {
	var (
		c   *sshagent.Client
		err error
	)
	if s.socket == "" {
		c, err = sshagent.DialEnv(s.logger)
	} else {
		c, err = sshagent.Dial(s.socket, s.logger)
	}
	if err != nil {
		return nil, err
	}
	defer c.Close()

	id, err := c.Find(s.pub)
	if err != nil {
		return nil, err
	}

	var flags uint32
	if s.pub.Type() == ssh.KeyAlgoRSA {
		flags = sshagent.FlagRSASHA512
	}
	sig, err := c.Sign(id, sshsig.SignedData(sshsig.Namespace, message), flags)
	if err != nil {
		return nil, err
	}
	if err := sshsig.Verify(s.pub, sshsig.Namespace, message, sig); err != nil {
		return nil, fmt.Errorf("%w: agent signature does not verify: %v", sshagent.ErrMalformed, err)
	}
	return sshsig.Marshal(sig), nil
}

// SSHKeyVerifier checks signatures against an OpenSSH public key.
type SSHKeyVerifier struct {
	pub    ssh.PublicKey
	logger logging.Logger
}

// NewSSHKeyVerifier loads an authorized-keys formatted public key.
func NewSSHKeyVerifier(path string, opts Options) (*SSHKeyVerifier, error) {
	pub, err := readAuthorizedKey(path)
	if err != nil {
		return nil, err
	}
	return &SSHKeyVerifier{pub: pub, logger: opts.logger()}, nil
}

// PublicKey returns the verification key.
func (v *SSHKeyVerifier) PublicKey() ssh.PublicKey {
	return v.pub
}

// Kind reports KindSSHPublic.
func (v *SSHKeyVerifier) Kind() Kind { return KindSSHPublic }

func (v *SSHKeyVerifier) sealed() {}

// Verify rebuilds the SSHSIG structure for message and checks signature.
func (v *SSHKeyVerifier) Verify(_ context.Context, message, signature []byte) error {
	sig, err := sshsig.Parse(signature)
	if err != nil {
		return err
	}
	v.logger.Debug("verifying %s signature with %s", sig.Format, ssh.FingerprintSHA256(v.pub))
	if err := sshsig.Verify(v.pub, sshsig.Namespace, message, sig); err != nil {
		return fmt.Errorf("%w: %v", ErrSignatureMismatch, err)
	}
	return nil
}

func readAuthorizedKey(path string) (ssh.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}
	pub, _, _, _, err := ssh.ParseAuthorizedKey(data)
	if err != nil {
		return nil, fmt.Errorf("parse public key %s: %w", path, err)
	}
	return pub, nil
}

// loadPublicHalf returns the public key of the private key file at path
// without needing its passphrase.
func loadPublicHalf(path string) (ssh.PublicKey, error) {
	pemBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	raw, err := ssh.ParseRawPrivateKey(pemBytes)
	var missing *ssh.PassphraseMissingError
	switch {
	case err == nil:
		signer, err := ssh.NewSignerFromKey(raw)
		if err != nil {
			return nil, fmt.Errorf("load private key %s: %w", path, err)
		}
		return signer.PublicKey(), nil
	case errors.As(err, &missing) && missing.PublicKey != nil:
		return missing.PublicKey, nil
	case errors.As(err, &missing):
		return readAuthorizedKey(path + ".pub")
	default:
		return nil, fmt.Errorf("parse private key %s: %w", path, err)
	}
}
