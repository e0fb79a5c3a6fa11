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

package sshagent

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"os"

	"golang.org/x/crypto/ssh"

	"github.com/uintptr/dver/pkg/logging"
)

// Client talks to an SSH agent over a stream connection.
type Client struct {
	conn   net.Conn
	logger logging.Logger
	err    error
}

// NewClient wraps an established connection.
func NewClient(conn net.Conn, logger logging.Logger) *Client {
	return &Client{conn: conn, logger: logging.EnsureLogger(logger)}
}

// Dial connects to the agent listening on socketPath. An empty path means
// no agent is configured.
func Dial(socketPath string, logger logging.Logger) (*Client, error) {
	if socketPath == "" {
		return nil, ErrNotRunning
	}
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	return NewClient(conn, logger), nil
}

// DialEnv connects to the agent named by SSH_AUTH_SOCK.
func DialEnv(logger logging.Logger) (*Client, error) {
	return Dial(os.Getenv(EnvSocket), logger)
}

// Close releases the connection.
func (c *Client) Close() error {
	if c.err == nil {
		c.err = ErrClosed
	}
	return c.conn.Close()
}

// List returns the identities held by the agent.
func (c *Client) List() ([]*Identity, error) {
	kind, body, err := c.call([]byte{msgRequestIdentities})
	if err != nil {
		return nil, err
	}
	if kind != msgIdentitiesAnswer {
		return nil, c.fail(&UnexpectedMessageError{Want: msgIdentitiesAnswer, Got: kind})
	}
	ids, err := parseIdentities(body[1:])
	if err != nil {
		return nil, c.fail(err)
	}
	c.logger.Debug("ssh agent holds %d identities", len(ids))
	return ids, nil
}

// Find returns the agent identity matching pub.
func (c *Client) Find(pub ssh.PublicKey) (*Identity, error) {
	ids, err := c.List()
	if err != nil {
		return nil, err
	}
	want := pub.Marshal()
	for _, id := range ids {
		if bytes.Equal(id.KeyBlob, want) {
			c.logger.Debug("found identity %s (%s)", id.Fingerprint(), id.Comment)
			return id, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrIdentityNotFound, Fingerprint(want))
}

// Sign asks the agent to sign data with id.
func (c *Client) Sign(id *Identity, data []byte, flags uint32) (*ssh.Signature, error) {
	req := ssh.Marshal(signRequestMsg{KeyBlob: id.KeyBlob, Data: data, Flags: flags})
	kind, body, err := c.call(req)
	if err != nil {
		return nil, err
	}

	switch kind {
	case msgSignResponse:
	case msgFailure:
		return nil, ErrAgentFailure
	default:
		return nil, c.fail(&UnexpectedMessageError{Want: msgSignResponse, Got: kind})
	}

	var resp signResponseMsg
	if err := ssh.Unmarshal(body, &resp); err != nil {
		return nil, c.fail(fmt.Errorf("%w: sign response: %v", ErrMalformed, err))
	}
	var sig ssh.Signature
	if err := ssh.Unmarshal(resp.SigBlob, &sig); err != nil {
		return nil, c.fail(fmt.Errorf("%w: signature blob: %v", ErrMalformed, err))
	}
	if len(sig.Rest) != 0 || sig.Format == "" {
		return nil, c.fail(fmt.Errorf("%w: signature blob", ErrMalformed))
	}
	c.logger.Debug("ssh agent returned %s signature", sig.Format)
	return &sig, nil
}

// call writes one framed request and reads one framed response. The
// returned body starts with the kind byte.
func (c *Client) call(req []byte) (byte, []byte, error) {
	if c.err != nil {
		return 0, nil, c.err
	}

	frame := make([]byte, 4+len(req))
	binary.BigEndian.PutUint32(frame, uint32(len(req)))
	copy(frame[4:], req)
	c.logger.Debug("ssh agent request kind=%d len=%d", req[0], len(req))
	if _, err := c.conn.Write(frame); err != nil {
		return 0, nil, c.fail(fmt.Errorf("write ssh agent request: %w", err))
	}

	var hdr [4]byte
	if _, err := io.ReadFull(c.conn, hdr[:]); err != nil {
		return 0, nil, c.fail(fmt.Errorf("%w: read length: %v", ErrMalformed, err))
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if n == 0 || n > maxFrameSize {
		return 0, nil, c.fail(fmt.Errorf("%w: frame length %d", ErrMalformed, n))
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(c.conn, body); err != nil {
		return 0, nil, c.fail(fmt.Errorf("%w: read body: %v", ErrMalformed, err))
	}
	c.logger.Debug("ssh agent response kind=%d len=%d", body[0], n)
	return body[0], body, nil
}

// fail marks the client unusable and returns err.
func (c *Client) fail(err error) error {
	if c.err == nil {
		c.err = fmt.Errorf("%w: %v", ErrClosed, err)
	}
	return err
}

// IsUnavailable reports whether err means no usable agent, as opposed to
// a broken one.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrNotRunning) || errors.Is(err, ErrIdentityNotFound)
}
