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
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"encoding/pem"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"

	"github.com/uintptr/dver/internal/sshagent"
	"github.com/uintptr/dver/internal/sshsig"
)

// keyFiles writes key as an OpenSSH private key named name (encrypted when
// passphrase is non-empty) plus its .pub file, and returns the private path.
func keyFiles(t *testing.T, key interface{}, name, passphrase string) string {
	t.Helper()
	dir := t.TempDir()

	var block *pem.Block
	var err error
	if passphrase == "" {
		block, err = ssh.MarshalPrivateKey(key, "test")
	} else {
		block, err = ssh.MarshalPrivateKeyWithPassphrase(key, "test", []byte(passphrase))
	}
	require.NoError(t, err)

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(block), 0o600))

	signer, err := ssh.NewSignerFromKey(key)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path+".pub", ssh.MarshalAuthorizedKey(signer.PublicKey()), 0o644))
	return path
}

func newEd25519(t *testing.T) ed25519.PrivateKey {
	t.Helper()
	_, key, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return key
}

// startAgent serves a keyring holding keys and returns the socket path.
func startAgent(t *testing.T, keys ...interface{}) string {
	t.Helper()
	keyring := agent.NewKeyring()
	for _, k := range keys {
		require.NoError(t, keyring.Add(agent.AddedKey{PrivateKey: k}))
	}

	socketPath := filepath.Join(t.TempDir(), "agent.sock")
	l, err := net.Listen("unix", socketPath)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				_ = agent.ServeAgent(keyring, conn)
			}()
		}
	}()
	return socketPath
}

func TestSSHKeySigner_RoundTrip(t *testing.T) {
	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tests := []struct {
		name string
		key  interface{}
		file string
	}{
		{"ed25519", newEd25519(t), "id_ed25519"},
		{"rsa", rsaKey, "id_rsa"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			priv := keyFiles(t, tt.key, tt.file, "")

			signer, err := NewSigner(priv, Options{})
			require.NoError(t, err)
			require.Equal(t, KindSSHPrivate, signer.Kind())

			msg := []byte("sha512 of the encoded tree")
			sig, err := signer.Sign(ctx, msg)
			require.NoError(t, err)
			require.Equal(t, byte(0), sig[0])

			verifier, err := NewVerifier(priv+".pub", Options{})
			require.NoError(t, err)
			require.Equal(t, KindSSHPublic, verifier.Kind())
			require.NoError(t, verifier.Verify(ctx, msg, sig))

			err = verifier.Verify(ctx, []byte("something else"), sig)
			require.ErrorIs(t, err, ErrSignatureMismatch)

			// The private key file verifies through its public half.
			fromPriv, err := NewVerifier(priv, Options{})
			require.NoError(t, err)
			require.NoError(t, fromPriv.Verify(ctx, msg, sig))
		})
	}
}

func TestSSHKeyVerifier_WrongKey(t *testing.T) {
	ctx := context.Background()
	signer, err := NewSigner(keyFiles(t, newEd25519(t), "id_ed25519", ""), Options{})
	require.NoError(t, err)
	sig, err := signer.Sign(ctx, []byte("m"))
	require.NoError(t, err)

	other, err := NewVerifier(keyFiles(t, newEd25519(t), "id_ed25519", "")+".pub", Options{})
	require.NoError(t, err)
	require.ErrorIs(t, other.Verify(ctx, []byte("m"), sig), ErrSignatureMismatch)
}

func TestSSHKeyVerifier_RejectsSHA1RSA(t *testing.T) {
	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	priv := keyFiles(t, rsaKey, "id_rsa", "")

	signer, err := ssh.NewSignerFromKey(rsaKey)
	require.NoError(t, err)
	msg := []byte("sha512 of the encoded tree")
	sig, err := signer.(ssh.AlgorithmSigner).SignWithAlgorithm(rand.Reader, sshsig.SignedData(sshsig.Namespace, msg), ssh.KeyAlgoRSA)
	require.NoError(t, err)

	v, err := NewVerifier(priv+".pub", Options{})
	require.NoError(t, err)
	err = v.Verify(context.Background(), msg, sshsig.Marshal(sig))
	require.ErrorIs(t, err, ErrSignatureMismatch)
	require.Contains(t, err.Error(), "unexpected signature format")
}

func TestSSHKeyVerifier_MalformedSignature(t *testing.T) {
	v, err := NewVerifier(keyFiles(t, newEd25519(t), "id_ed25519", "")+".pub", Options{})
	require.NoError(t, err)

	err = v.Verify(context.Background(), []byte("m"), []byte{0, 0, 0, 99, 1})
	require.Error(t, err)
	require.ErrorIs(t, err, sshsig.ErrMalformedSignature)
	require.False(t, errors.Is(err, ErrSignatureMismatch))
}

func TestSSHKeySigner_EncryptedUsesAgent(t *testing.T) {
	key := newEd25519(t)
	priv := keyFiles(t, key, "id_ed25519", "hunter2")

	s, err := NewSSHKeySigner(priv, Options{AgentSocket: startAgent(t, key)})
	require.NoError(t, err)
	require.True(t, s.Encrypted())

	msg := []byte("digest")
	sig, err := s.Sign(context.Background(), msg)
	require.NoError(t, err)

	v, err := NewSSHKeyVerifier(priv+".pub", Options{})
	require.NoError(t, err)
	require.NoError(t, v.Verify(context.Background(), msg, sig))
}

func TestSSHKeySigner_EncryptedFallbacks(t *testing.T) {
	key := newEd25519(t)
	priv := keyFiles(t, key, "id_ed25519", "hunter2")
	otherAgent := startAgent(t, newEd25519(t))

	tests := []struct {
		name    string
		socket  string
		creds   CredentialProvider
		wantErr error
	}{
		{"no agent, no credentials", "", nil, sshagent.ErrNotRunning},
		{"no agent, passphrase", "", StaticPassphrase("hunter2"), nil},
		{"identity missing, passphrase", otherAgent, StaticPassphrase("hunter2"), nil},
		{"identity missing, no credentials", otherAgent, nil, sshagent.ErrIdentityNotFound},
		{"agent unreachable", filepath.Join(t.TempDir(), "gone.sock"), StaticPassphrase("hunter2"), sshagent.ErrUnreachable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(sshagent.EnvSocket, "")
			s, err := NewSSHKeySigner(priv, Options{AgentSocket: tt.socket, Credentials: tt.creds})
			require.NoError(t, err)

			sig, err := s.Sign(context.Background(), []byte("digest"))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			v, err := NewSSHKeyVerifier(priv+".pub", Options{})
			require.NoError(t, err)
			require.NoError(t, v.Verify(context.Background(), []byte("digest"), sig))
		})
	}
}

func TestSSHKeySigner_WrongPassphrase(t *testing.T) {
	t.Setenv(sshagent.EnvSocket, "")
	priv := keyFiles(t, newEd25519(t), "id_ed25519", "hunter2")

	s, err := NewSSHKeySigner(priv, Options{Credentials: StaticPassphrase("wrong")})
	require.NoError(t, err)
	_, err = s.Sign(context.Background(), []byte("digest"))
	require.Error(t, err)
}

func TestNewSigner_Errors(t *testing.T) {
	_, err := NewSigner("key.pem", Options{})
	require.ErrorIs(t, err, ErrUnsupportedKey)

	_, err = NewSigner("release.pub", Options{})
	require.ErrorIs(t, err, ErrKeyKind)

	_, err = NewSigner(filepath.Join(t.TempDir(), "id_ed25519"), Options{})
	require.Error(t, err)

	garbage := filepath.Join(t.TempDir(), "id_rsa")
	require.NoError(t, os.WriteFile(garbage, []byte("not a key"), 0o600))
	_, err = NewSigner(garbage, Options{})
	require.Error(t, err)

	_, err = NewVerifier("nothing", Options{})
	require.ErrorIs(t, err, ErrUnsupportedKey)
}

func TestStaticPassphrase(t *testing.T) {
	p := StaticPassphrase("secret")
	got, err := p.Passphrase("ignored")
	require.NoError(t, err)
	got[0] = 'X'
	again, _ := p.Passphrase("ignored")
	require.Equal(t, []byte("secret"), again)
}

func TestTerminalPrompt_Piped(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	_, err = w.WriteString("from-pipe\n")
	require.NoError(t, err)
	w.Close()
	defer r.Close()

	var out testWriter
	got, err := TerminalPrompt{In: r, Out: &out}.Passphrase("Passphrase: ")
	require.NoError(t, err)
	require.Equal(t, []byte("from-pipe"), got)
	require.Equal(t, "Passphrase: ", string(out))
}

type testWriter []byte

func (w *testWriter) Write(p []byte) (int, error) {
	*w = append(*w, p...)
	return len(p), nil
}
