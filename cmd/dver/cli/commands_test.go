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

package cli

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"

	"github.com/uintptr/dver/pkg/dver"
)

func writeKey(t *testing.T) string {
	t.Helper()
	_, key, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	block, err := ssh.MarshalPrivateKey(key, "")
	require.NoError(t, err)
	signer, err := ssh.NewSignerFromKey(key)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "id_ed25519")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(block), 0o600))
	require.NoError(t, os.WriteFile(path+".pub", ssh.MarshalAuthorizedKey(signer.PublicKey()), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := New()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSignVerifyCommands(t *testing.T) {
	t.Setenv("DVER_LOG_LEVEL", "silent")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello"), 0o644))
	key := writeKey(t)

	out, err := run(t, "sign", dir, "--key", key, "--signature-type", "short", "--hash", "sha512")
	require.NoError(t, err)
	require.Contains(t, out, "Step 3: Writing signature to disk...")

	text, err := os.ReadFile(filepath.Join(dir, "dver.sig"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(text), "-----BEGIN SIGNATURE -----\n"))

	out, err = run(t, "verify", dir, "--key", key+".pub", "--hash", "sha512")
	require.NoError(t, err)
	require.Contains(t, out, "Verification Status: OK")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("jello"), 0o644))
	out, err = run(t, "verify", dir, "--key", key+".pub", "--hash", "sha512")
	require.Error(t, err)
	require.Contains(t, out, "Verification Status: FAILED")

	var derr *dver.Error
	require.True(t, errors.As(err, &derr))
	require.Equal(t, dver.ExitFailure, ExitCode(err))
}

func TestExitCode(t *testing.T) {
	t.Setenv("DVER_LOG_LEVEL", "silent")
	dir := t.TempDir()

	tests := []struct {
		name string
		args []string
		want int
	}{
		{name: "unknown flag", args: []string{"verify", "--bogus", dir}, want: dver.ExitInput},
		{name: "missing argument", args: []string{"verify", "--key", "gpg"}, want: dver.ExitInput},
		{name: "bad signature type", args: []string{"sign", dir, "--key", writeKey(t), "--signature-type", "tiny"}, want: dver.ExitInput},
		{name: "missing signature", args: []string{"verify", dir, "--key", writeKey(t) + ".pub"}, want: dver.ExitInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			require.Error(t, err)
			code := ExitCode(err)
			require.Equal(t, tt.want, code)
			require.NotEqual(t, dver.ExitFailure, code)
		})
	}

	require.Equal(t, 0, ExitCode(nil))
	require.Equal(t, dver.ExitUnknown, ExitCode(&dver.Error{Kind: dver.KindUnknown, Op: "sign", Err: errors.New("boom")}))
}

func TestSignCommand_Errors(t *testing.T) {
	t.Setenv("DVER_LOG_LEVEL", "silent")
	dir := t.TempDir()

	tests := []struct {
		name string
		args []string
	}{
		{name: "missing key flag", args: []string{"sign", dir}},
		{name: "missing directory", args: []string{"sign", "--key", "gpg"}},
		{name: "bad signature type", args: []string{"sign", dir, "--key", writeKey(t), "--signature-type", "tiny"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			require.Error(t, err)
		})
	}
}

func TestVerifyCommand_MissingSignature(t *testing.T) {
	t.Setenv("DVER_LOG_LEVEL", "silent")
	_, err := run(t, "verify", t.TempDir(), "--key", writeKey(t)+".pub")
	require.True(t, dver.IsKind(err, dver.KindInput), "got %v", err)
}
