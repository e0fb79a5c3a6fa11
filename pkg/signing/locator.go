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
	"path/filepath"
	"strings"
)

// Kind identifies a key backend.
type Kind int

const (
	// KindUnknown is a locator that matches no backend.
	KindUnknown Kind = iota
	KindSSHPrivate
	KindSSHPublic
	KindGPG
)

func (k Kind) String() string {
	switch k {
	case KindSSHPrivate:
		return "ssh-private"
	case KindSSHPublic:
		return "ssh-public"
	case KindGPG:
		return "gpg"
	default:
		return "unknown"
	}
}

// gpgScheme prefixes a locator that selects a specific GnuPG key.
const gpgScheme = "gpg:"

// privateKeySuffixes are the default OpenSSH private key file names.
var privateKeySuffixes = []string{"id_ed25519", "id_ecdsa", "id_rsa"}

// Locator is a classified key locator.
type Locator struct {
	Kind Kind
	// Path is the key file for SSH kinds.
	Path string
	// KeyID selects the GnuPG key; empty means the default key.
	KeyID string
}

// ParseLocator classifies a key locator. It never fails: anything it does
// not recognize is KindUnknown.
//
//	gpg, gpg:<key-id>        GnuPG
//	*.pub                    SSH public key
//	*id_ed25519, *id_ecdsa,  SSH private key
//	*id_rsa
func ParseLocator(s string) Locator {
	switch {
	case s == "gpg":
		return Locator{Kind: KindGPG}
	case strings.HasPrefix(s, gpgScheme):
		return Locator{Kind: KindGPG, KeyID: strings.TrimPrefix(s, gpgScheme)}
	}

	base := filepath.Base(s)
	if s == "" || base == "." || base == string(filepath.Separator) {
		return Locator{Kind: KindUnknown, Path: s}
	}
	if strings.HasSuffix(base, ".pub") {
		return Locator{Kind: KindSSHPublic, Path: s}
	}
	for _, suffix := range privateKeySuffixes {
		if strings.HasSuffix(base, suffix) {
			return Locator{Kind: KindSSHPrivate, Path: s}
		}
	}
	return Locator{Kind: KindUnknown, Path: s}
}
