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
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// CredentialProvider supplies a passphrase for a locked key.
type CredentialProvider interface {
	Passphrase(prompt string) ([]byte, error)
}

// StaticPassphrase returns the same passphrase every time. It serves
// non-interactive use such as CI.
type StaticPassphrase []byte

// Passphrase returns a copy of p.
func (p StaticPassphrase) Passphrase(string) ([]byte, error) {
	out := make([]byte, len(p))
	copy(out, p)
	return out, nil
}

// TerminalPrompt asks on the controlling terminal with echo disabled. When
// In is not a terminal it reads one line instead.
type TerminalPrompt struct {
	// In defaults to os.Stdin.
	In *os.File
	// Out receives the prompt; defaults to os.Stderr.
	Out io.Writer
}

// Passphrase prints prompt and reads the answer.
func (p TerminalPrompt) Passphrase(prompt string) ([]byte, error) {
	in, out := p.In, p.Out
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stderr
	}

	fmt.Fprint(out, prompt)

	fd := int(in.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return nil, fmt.Errorf("read passphrase: %w", err)
		}
		return b, nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return nil, fmt.Errorf("read passphrase: %w", err)
	}
	return []byte(strings.TrimRight(line, "\r\n")), nil
}
