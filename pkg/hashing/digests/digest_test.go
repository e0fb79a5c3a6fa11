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

package digests

import (
	"errors"
	"strings"
	"testing"
)

func TestParseAlgorithm(t *testing.T) {
	tests := []struct {
		in      string
		want    Algorithm
		wantErr bool
	}{
		{"sha256", SHA256, false},
		{"SHA512", SHA512, false},
		{" sha512 ", SHA512, false},
		{"md5", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAlgorithm(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAlgorithm(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrUnknownAlgorithm) {
				t.Errorf("error %v is not ErrUnknownAlgorithm", err)
			}
			if got != tt.want {
				t.Errorf("ParseAlgorithm(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestAlgorithmNames(t *testing.T) {
	if got := AlgorithmNames(); got != "sha256, sha512" {
		t.Errorf("AlgorithmNames() = %q", got)
	}
	_, err := ParseAlgorithm("md5")
	if err == nil || !strings.Contains(err.Error(), "supported: sha256, sha512") {
		t.Errorf("ParseAlgorithm(md5) error = %v", err)
	}
}

func TestDigest_Immutable(t *testing.T) {
	raw := []byte{1, 2, 3}
	d := NewDigest(SHA256, raw)
	raw[0] = 9

	v := d.Value()
	if v[0] != 1 {
		t.Fatalf("digest changed after mutating constructor input: %v", v)
	}
	v[1] = 9
	if d.Value()[1] != 2 {
		t.Fatalf("digest changed after mutating Value() result")
	}
}

func TestDigest_EqualAndEmpty(t *testing.T) {
	a := NewDigest(SHA256, []byte{0xab})
	b := NewDigest(SHA256, []byte{0xab})
	c := NewDigest(SHA512, []byte{0xab})

	if !a.Equal(b) {
		t.Error("identical digests should be equal")
	}
	if a.Equal(c) {
		t.Error("digests with different algorithms should differ")
	}
	if a.String() != "sha256:ab" {
		t.Errorf("String() = %q", a.String())
	}
	if !(Digest{}).IsEmpty() {
		t.Error("zero Digest should be empty")
	}
	if a.IsEmpty() {
		t.Error("populated Digest reported empty")
	}
}

func TestParseHex(t *testing.T) {
	hex := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	d, err := ParseHex(SHA256, hex)
	if err != nil {
		t.Fatalf("ParseHex() error = %v", err)
	}
	if d.Hex() != hex {
		t.Errorf("Hex() = %s", d.Hex())
	}
	if _, err := ParseHex(SHA512, hex); err == nil {
		t.Error("expected length error for sha512")
	}
	if _, err := ParseHex(SHA256, "zz"); err == nil {
		t.Error("expected decode error")
	}
}
