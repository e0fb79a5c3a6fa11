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

package utils

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestValidateFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "key.pub")
	if err := os.WriteFile(file, []byte("ssh-ed25519 AAAA"), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{name: "valid file", path: file, wantErr: false},
		{name: "empty path", path: "", wantErr: true},
		{name: "non-existent file", path: filepath.Join(dir, "missing"), wantErr: true},
		{name: "directory instead of file", path: dir, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFileExists("key", tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFileExists() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("error %v does not wrap ErrInvalidArgument", err)
			}
		})
	}
}

func TestValidateFolderExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(file, []byte("a"), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	if err := ValidateFolderExists("directory", dir); err != nil {
		t.Errorf("ValidateFolderExists(dir) error = %v", err)
	}
	if err := ValidateFolderExists("directory", file); err == nil {
		t.Error("ValidateFolderExists(file) expected error")
	}
}

func TestValidateOptionalFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "sig")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{name: "empty path (optional)", path: "", wantErr: false},
		{name: "valid file", path: file, wantErr: false},
		{name: "invalid file", path: "/nonexistent.sig", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOptionalFile("signature", tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateOptionalFile() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateBaseNames(t *testing.T) {
	tests := []struct {
		name    string
		names   []string
		wantErr bool
	}{
		{name: "none", names: nil},
		{name: "plain names", names: []string{".git", "node_modules"}},
		{name: "empty entry", names: []string{"a", ""}, wantErr: true},
		{name: "dot dot", names: []string{".."}, wantErr: true},
		{name: "nested path", names: []string{"a/b"}, wantErr: true},
		{name: "windows separator", names: []string{`a\b`}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBaseNames("exclude", tt.names)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateBaseNames() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
