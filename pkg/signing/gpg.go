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
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/uintptr/dver/pkg/logging"
)

// DefaultGPGProgram is the GnuPG executable looked up on PATH.
const DefaultGPGProgram = "gpg"

var (
	_ Signer   = (*GPGSigner)(nil)
	_ Verifier = (*GPGVerifier)(nil)
)

// ErrToolNotFound is returned when the GnuPG program cannot be located.
var ErrToolNotFound = errors.New("external signing tool not found")

// ErrEmptyOutput is returned when gpg exits successfully without writing a
// signature.
var ErrEmptyOutput = errors.New("gpg produced an empty signature")

// ExecError reports a failed external tool invocation with its captured
// output.
type ExecError struct {
	Program  string
	Args     []string
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

func (e *ExecError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", filepath.Base(e.Program), e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *ExecError) Unwrap() error { return e.Err }

// gpgTool runs the GnuPG program in a scratch directory.
type gpgTool struct {
	program string
	logger  logging.Logger
}

func newGPGTool(opts Options) (*gpgTool, error) {
	program := opts.GPGProgram
	if program == "" {
		program = DefaultGPGProgram
	}
	path, err := exec.LookPath(program)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrToolNotFound, program, err)
	}
	return &gpgTool{program: path, logger: opts.logger()}, nil
}

func (g *gpgTool) run(ctx context.Context, stdin []byte, args ...string) error {
	cmd := exec.CommandContext(ctx, g.program, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	g.logger.Debug("running %s %s", g.program, strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return &ExecError{
			Program:  g.program,
			Args:     args,
			ExitCode: exitCode,
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
			Err:      err,
		}
	}
	return nil
}

// scratch creates a private temporary directory removed by the returned
// cleanup function.
func scratch() (string, func(), error) {
	dir, err := os.MkdirTemp("", "dver-gpg-")
	if err != nil {
		return "", nil, fmt.Errorf("create scratch directory: %w", err)
	}
	return dir, func() { _ = os.RemoveAll(dir) }, nil
}

// GPGSigner produces detached OpenPGP signatures with the GnuPG program.
type GPGSigner struct {
	tool  *gpgTool
	keyID string
	creds CredentialProvider
}

// NewGPGSigner locates the GnuPG program. An empty keyID uses GnuPG's
// default key.
func NewGPGSigner(keyID string, opts Options) (*GPGSigner, error) {
	tool, err := newGPGTool(opts)
	if err != nil {
		return nil, err
	}
	return &GPGSigner{tool: tool, keyID: keyID, creds: opts.Credentials}, nil
}

// Kind reports KindGPG.
func (s *GPGSigner) Kind() Kind { return KindGPG }

func (s *GPGSigner) sealed() {}

// Sign writes message to a scratch file and runs a detached signature.
// If the first attempt fails and credentials are configured, it retries
// once with the passphrase supplied on stdin.
func (s *GPGSigner) Sign(ctx context.Context, message []byte) ([]byte, error) {
	dir, cleanup, err := scratch()
	if err != nil {
		return nil, err
	}
	defer cleanup()

	in := filepath.Join(dir, "input.bin")
	out := filepath.Join(dir, "output.bin")
	if err := os.WriteFile(in, message, 0o600); err != nil {
		return nil, fmt.Errorf("write gpg input: %w", err)
	}

	err = s.tool.run(ctx, nil, s.args(false, in, out)...)
	if err != nil {
		if s.creds == nil || ctx.Err() != nil {
			return nil, err
		}
		s.tool.logger.Warn("gpg signing failed (%v), retrying with passphrase", err)
		pass, perr := s.creds.Passphrase("Enter GPG passphrase: ")
		if perr != nil {
			return nil, perr
		}
		if err := s.tool.run(ctx, append(pass, '\n'), s.args(true, in, out)...); err != nil {
			return nil, err
		}
	}

	sig, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("read gpg signature: %w", err)
	}
	if len(sig) == 0 {
		return nil, ErrEmptyOutput
	}
	return sig, nil
}

func (s *GPGSigner) args(withPassphrase bool, in, out string) []string {
	args := []string{"--batch", "--no-tty", "--pinentry-mode", "loopback", "--yes"}
	if s.keyID != "" {
		args = append(args, "--local-user", s.keyID)
	}
	if withPassphrase {
		args = append(args, "--passphrase-fd", "0")
	}
	return append(args, "--output", out, "--detach-sign", in)
}

// GPGVerifier checks detached OpenPGP signatures with the GnuPG program
// against the keys in the user's keyring.
type GPGVerifier struct {
	tool *gpgTool
}

// NewGPGVerifier locates the GnuPG program.
func NewGPGVerifier(opts Options) (*GPGVerifier, error) {
	tool, err := newGPGTool(opts)
	if err != nil {
		return nil, err
	}
	return &GPGVerifier{tool: tool}, nil
}

// Kind reports KindGPG.
func (v *GPGVerifier) Kind() Kind { return KindGPG }

func (v *GPGVerifier) sealed() {}

// Verify runs "gpg --verify". A non-zero exit is a signature mismatch; the
// tool's output is logged.
func (v *GPGVerifier) Verify(ctx context.Context, message, signature []byte) error {
	dir, cleanup, err := scratch()
	if err != nil {
		return err
	}
	defer cleanup()

	msg := filepath.Join(dir, "msg.bin")
	sig := filepath.Join(dir, "sig.bin")
	if err := os.WriteFile(msg, message, 0o600); err != nil {
		return fmt.Errorf("write gpg message: %w", err)
	}
	if err := os.WriteFile(sig, signature, 0o600); err != nil {
		return fmt.Errorf("write gpg signature: %w", err)
	}

	err = v.tool.run(ctx, nil, "--batch", "--no-tty", "--verify", sig, msg)
	var execErr *ExecError
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.As(err, &execErr) && execErr.ExitCode > 0:
		v.tool.logger.Error("gpg verification failed (exit %d)\nstdout: %s\nstderr: %s",
			execErr.ExitCode, strings.TrimSpace(execErr.Stdout), strings.TrimSpace(execErr.Stderr))
		return fmt.Errorf("%w: %v", ErrSignatureMismatch, err)
	default:
		return err
	}
}
