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

// Package sshsig builds and checks SSHSIG signed structures.
//
// The structure is the one used by "ssh-keygen -Y sign": a fixed preamble
// followed by the namespace, an empty reserved field, the hash algorithm
// name and the hash of the message, each as an SSH string. The same bytes
// are signed in-process and by an agent, and rebuilt by the verifier.
package sshsig

import (
	"crypto/sha512"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/ssh"
)

const (
	// MagicPreamble starts every signed structure.
	MagicPreamble = "SSHSIG"
	// Namespace scopes dver signatures so they cannot be replayed as
	// signatures for another purpose.
	Namespace = "dverify"
	// HashAlgorithm is the message hash recorded in the structure.
	HashAlgorithm = "sha512"
)

// ErrMalformedSignature is returned when signature bytes are not a valid
// SSH wire signature.
var ErrMalformedSignature = errors.New("malformed ssh signature")

// ErrUnexpectedFormat is returned when a signature uses an algorithm other
// than the one SignatureFormat selects for the key, such as SHA-1 ssh-rsa.
var ErrUnexpectedFormat = errors.New("unexpected signature format")

type signedData struct {
	Namespace     string
	Reserved      string
	HashAlgorithm string
	HashedMessage []byte
}

// SignedData returns the exact bytes a key signs for message in namespace.
func SignedData(namespace string, message []byte) []byte {
	h := sha512.Sum512(message)
	body := ssh.Marshal(signedData{
		Namespace:     namespace,
		HashAlgorithm: HashAlgorithm,
		HashedMessage: h[:],
	})
	return append([]byte(MagicPreamble), body...)
}

// SignatureFormat returns the signature algorithm used for pub. RSA keys
// sign with rsa-sha2-512; every other key type signs with its own type.
func SignatureFormat(pub ssh.PublicKey) string {
	if pub.Type() == ssh.KeyAlgoRSA {
		return ssh.KeyAlgoRSASHA512
	}
	return pub.Type()
}

// Sign signs message with signer under namespace.
func Sign(rand io.Reader, signer ssh.Signer, namespace string, message []byte) (*ssh.Signature, error) {
	data := SignedData(namespace, message)

	format := SignatureFormat(signer.PublicKey())
	if format != signer.PublicKey().Type() {
		as, ok := signer.(ssh.AlgorithmSigner)
		if !ok {
			return nil, fmt.Errorf("key type %s cannot sign with %s", signer.PublicKey().Type(), format)
		}
		return as.SignWithAlgorithm(rand, data, format)
	}
	return signer.Sign(rand, data)
}

// Verify checks sig over message in namespace against pub. The signature
// must use the format Sign would have produced for pub.
func Verify(pub ssh.PublicKey, namespace string, message []byte, sig *ssh.Signature) error {
	if want := SignatureFormat(pub); sig.Format != want {
		return fmt.Errorf("%w: got %s, want %s", ErrUnexpectedFormat, sig.Format, want)
	}
	return pub.Verify(SignedData(namespace, message), sig)
}

// Marshal returns the SSH wire encoding of sig: string(format) ||
// string(blob). The first byte is always zero.
func Marshal(sig *ssh.Signature) []byte {
	return ssh.Marshal(sig)
}

// Parse decodes an SSH wire signature.
func Parse(data []byte) (*ssh.Signature, error) {
	var sig ssh.Signature
	if err := ssh.Unmarshal(data, &sig); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSignature, err)
	}
	if len(sig.Rest) > 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformedSignature, len(sig.Rest))
	}
	if sig.Format == "" || len(sig.Blob) == 0 {
		return nil, fmt.Errorf("%w: empty format or blob", ErrMalformedSignature)
	}
	return &sig, nil
}
