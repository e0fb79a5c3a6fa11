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

package dver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/uintptr/dver/internal/sshagent"
	"github.com/uintptr/dver/internal/sshsig"
	"github.com/uintptr/dver/pkg/envelope"
	"github.com/uintptr/dver/pkg/hashing/digests"
	"github.com/uintptr/dver/pkg/signing"
	"github.com/uintptr/dver/pkg/tree"
	"github.com/uintptr/dver/pkg/utils"
)

// ErrVerificationFailed is returned by the CLI when a verification
// completes with a Failure outcome.
var ErrVerificationFailed = errors.New("verification failed")

// ErrorKind represents the category of a failed operation.
type ErrorKind int

const (
	// KindUnknown indicates an unclassified error.
	KindUnknown ErrorKind = iota

	// KindInput covers bad locators, roots, tree entries and signature
	// files.
	KindInput

	// KindIntegrity indicates a broken internal invariant, such as an
	// aggregate digest found empty.
	KindIntegrity

	// KindProtocol covers SSH agent failures.
	KindProtocol

	// KindExecution covers external tool failures and cancellation.
	KindExecution

	// KindVerification marks a completed verification whose outcome is
	// Failure.
	KindVerification
)

// String returns a human-readable name for the error kind.
func (k ErrorKind) String() string {
	switch k {
	case KindInput:
		return "InputError"
	case KindIntegrity:
		return "IntegrityError"
	case KindProtocol:
		return "ProtocolError"
	case KindExecution:
		return "ExecutionError"
	case KindVerification:
		return "VerificationFailure"
	default:
		return "UnknownError"
	}
}

// Error is the structured error returned by Sign and Verify.
//
// Example usage:
//
//	var derr *dver.Error
//	if errors.As(err, &derr) && derr.Kind == dver.KindProtocol {
//	    log.Printf("agent problem during %s: %v", derr.Op, derr.Err)
//	}
type Error struct {
	// Kind categorizes the error for programmatic handling.
	Kind ErrorKind

	// Op names the operation that failed ("sign" or "verify").
	Op string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Exit statuses. Only a completed verification with a Failure outcome
// exits ExitFailure.
const (
	ExitFailure   = 1
	ExitInput     = 2
	ExitProtocol  = 3
	ExitExecution = 4
	ExitIntegrity = 5
	ExitUnknown   = 6
)

// ExitCode maps the kind to a process exit status.
func (e *Error) ExitCode() int {
	switch e.Kind {
	case KindVerification:
		return ExitFailure
	case KindInput:
		return ExitInput
	case KindProtocol:
		return ExitProtocol
	case KindExecution:
		return ExitExecution
	case KindIntegrity:
		return ExitIntegrity
	default:
		return ExitUnknown
	}
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var derr *Error
	if errors.As(err, &derr) {
		return derr.Kind == kind
	}
	return false
}

// newError wraps err for op with the kind derived from its chain. Errors
// that are already classified are returned unchanged.
func newError(op string, err error) error {
	if err == nil {
		return nil
	}
	var derr *Error
	if errors.As(err, &derr) {
		return err
	}
	return &Error{Kind: classify(err), Op: op, Err: err}
}

func classify(err error) ErrorKind {
	var (
		unexpected *sshagent.UnexpectedMessageError
		execErr    *signing.ExecError
	)
	switch {
	case errors.Is(err, tree.ErrEmptyDigest):
		return KindIntegrity
	case errors.As(err, &unexpected),
		errors.Is(err, sshagent.ErrNotRunning),
		errors.Is(err, sshagent.ErrUnreachable),
		errors.Is(err, sshagent.ErrIdentityNotFound),
		errors.Is(err, sshagent.ErrAgentFailure),
		errors.Is(err, sshagent.ErrMalformed),
		errors.Is(err, sshagent.ErrClosed):
		return KindProtocol
	case errors.As(err, &execErr),
		errors.Is(err, signing.ErrToolNotFound),
		errors.Is(err, signing.ErrEmptyOutput),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return KindExecution
	case errors.Is(err, signing.ErrSignatureMismatch):
		return KindVerification
	case errors.Is(err, utils.ErrInvalidArgument),
		errors.Is(err, tree.ErrInvalidRoot),
		errors.Is(err, tree.ErrInvalidPath),
		errors.Is(err, tree.ErrMalformedTree),
		errors.Is(err, digests.ErrUnknownAlgorithm),
		errors.Is(err, signing.ErrUnsupportedKey),
		errors.Is(err, signing.ErrKeyKind),
		errors.Is(err, envelope.ErrMalformed),
		errors.Is(err, sshsig.ErrMalformedSignature),
		errors.Is(err, fs.ErrNotExist),
		errors.Is(err, fs.ErrPermission):
		return KindInput
	default:
		return KindUnknown
	}
}
