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

package tree

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/uintptr/dver/pkg/hashing/digests"
)

func TestEncode_Canonical(t *testing.T) {
	files := map[string]string{"a.txt": "hello", "b/c.txt": "world", "b/a.txt": "!"}
	first, err := Encode(mustBuild(t, writeTree(t, files, "e"), Options{}), Options{})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	second, err := Encode(mustBuild(t, writeTree(t, files, "e"), Options{}), Options{})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("encodings differ:\n%s\n%s", first, second)
	}

	s := string(first)
	if !strings.HasPrefix(s, `{"version":1,"algorithm":"sha256","root":{"path":".","digest":"`) {
		t.Errorf("unexpected prefix: %s", s)
	}
	if strings.Index(s, `"b/a.txt"`) > strings.Index(s, `"b/c.txt"`) {
		t.Errorf("children not in name order: %s", s)
	}
	if strings.Contains(s, "exclude") {
		t.Errorf("empty exclusion list should be omitted: %s", s)
	}
	if strings.HasSuffix(s, "\n") {
		t.Error("encoding must not end with a newline")
	}
}

func TestEncode_FixtureLayout(t *testing.T) {
	root := mustBuild(t, writeTree(t, map[string]string{"a.txt": "hello", "b/c.txt": "world"}), Options{})
	data, err := Encode(root, Options{})
	if err != nil {
		t.Fatal(err)
	}

	want := `{"version":1,"algorithm":"sha256","root":{"path":".","digest":"` + root.Digest.Hex() + `",` +
		`"files":[{"path":"a.txt","digest":"2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"}],` +
		`"directories":[{"path":"b","digest":"` + root.Directories[0].Digest.Hex() + `",` +
		`"files":[{"path":"b/c.txt","digest":"486ea46224d1bb4fb680f34f7c9ad96a8f24ec88be73ea8e5a6c65260e9cb8a7"}]}]}}`
	if string(data) != want {
		t.Errorf("Encode() =\n%s\nwant\n%s", data, want)
	}
}

func TestEncode_RecordsParameters(t *testing.T) {
	opts := Options{Algorithm: digests.SHA512, Exclude: []string{".git"}}
	root := mustBuild(t, writeTree(t, map[string]string{"x": "y"}), opts)
	data, err := Encode(root, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte(`"algorithm":"sha512","exclude":[".git"]`)) {
		t.Errorf("parameters missing from %s", data)
	}
}

func TestEncode_RejectsUnfoldedTree(t *testing.T) {
	_, err := Encode(&Directory{Path: "."}, Options{})
	if !errors.Is(err, ErrEmptyDigest) {
		t.Fatalf("Encode() error = %v, want ErrEmptyDigest", err)
	}
}

func TestDecode_RoundTrip(t *testing.T) {
	opts := Options{Exclude: []string{"tmp"}}
	root := mustBuild(t, writeTree(t, map[string]string{"a.txt": "hello", "b/c.txt": "world"}, "b/d"), opts)
	data, err := Encode(root, opts)
	if err != nil {
		t.Fatal(err)
	}

	doc, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !doc.Root.Digest.Equal(root.Digest) {
		t.Errorf("decoded root digest = %s, want %s", doc.Root.Digest, root.Digest)
	}
	if got := doc.Options().Exclude; len(got) != 1 || got[0] != "tmp" {
		t.Errorf("decoded exclusions = %v", got)
	}
	if doc.Root.Directories[0].Directories[0].Name != "d" {
		t.Errorf("nested directory name = %q", doc.Root.Directories[0].Directories[0].Name)
	}
	if !Compare(root, doc.Root).IsEmpty() {
		t.Error("decoded tree differs from source")
	}

	again, err := doc.Encode()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(again, data) {
		t.Errorf("re-encoding changed bytes:\n%s\n%s", again, data)
	}
}

func TestDecode_Malformed(t *testing.T) {
	const d = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	tests := []struct {
		name string
		data string
	}{
		{"not json", "garbage"},
		{"wrong version", `{"version":2,"algorithm":"sha256","root":{"path":".","digest":"` + d + `"}}`},
		{"unknown algorithm", `{"version":1,"algorithm":"md5","root":{"path":".","digest":"` + d + `"}}`},
		{"bad root path", `{"version":1,"algorithm":"sha256","root":{"path":"x","digest":"` + d + `"}}`},
		{"short digest", `{"version":1,"algorithm":"sha256","root":{"path":".","digest":"abcd"}}`},
		{"unknown field", `{"version":1,"algorithm":"sha256","extra":1,"root":{"path":".","digest":"` + d + `"}}`},
		{"escaping child", `{"version":1,"algorithm":"sha256","root":{"path":".","digest":"` + d +
			`","files":[{"path":"../x","digest":"` + d + `"}]}}`},
		{"unsorted files", `{"version":1,"algorithm":"sha256","root":{"path":".","digest":"` + d +
			`","files":[{"path":"b","digest":"` + d + `"},{"path":"a","digest":"` + d + `"}]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode([]byte(tt.data)); !errors.Is(err, ErrMalformedTree) {
				t.Errorf("Decode() error = %v, want ErrMalformedTree", err)
			}
		})
	}
}
