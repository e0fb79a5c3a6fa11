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

// Package utils holds argument validation and console formatting shared by
// the dver commands.
package utils

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrInvalidArgument marks every error produced by the validators below so
// callers can classify them as input errors.
var ErrInvalidArgument = errors.New("invalid argument")

// PathType represents the type of path to validate.
type PathType int

const (
	// PathTypeFile expects a regular file.
	PathTypeFile PathType = iota
	// PathTypeFolder expects a directory.
	PathTypeFolder
	// PathTypeAny accepts either file or directory.
	PathTypeAny
)

// PathValidator checks that a named argument points at an existing path of
// the expected type.
type PathValidator struct {
	fieldName string
	path      string
	pathType  PathType
}

// NewPathValidator creates a validator for the argument fieldName.
func NewPathValidator(fieldName, path string, pathType PathType) *PathValidator {
	return &PathValidator{
		fieldName: fieldName,
		path:      path,
		pathType:  pathType,
	}
}

// Validate checks that the path is set, exists and has the expected type.
func (v *PathValidator) Validate() error {
	if v.path == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidArgument, v.fieldName)
	}

	info, err := os.Stat(v.path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s %q does not exist", ErrInvalidArgument, v.fieldName, v.path)
		}
		return fmt.Errorf("%w: checking %s %q: %v", ErrInvalidArgument, v.fieldName, v.path, err)
	}

	switch v.pathType {
	case PathTypeFile:
		if info.IsDir() {
			return fmt.Errorf("%w: %s %q is a directory, expected file", ErrInvalidArgument, v.fieldName, v.path)
		}
	case PathTypeFolder:
		if !info.IsDir() {
			return fmt.Errorf("%w: %s %q is a file, expected directory", ErrInvalidArgument, v.fieldName, v.path)
		}
	case PathTypeAny:
	}

	return nil
}

// ValidateFileExists validates that a path exists and is a file.
func ValidateFileExists(fieldName, path string) error {
	return NewPathValidator(fieldName, path, PathTypeFile).Validate()
}

// ValidateFolderExists validates that a path exists and is a directory.
func ValidateFolderExists(fieldName, path string) error {
	return NewPathValidator(fieldName, path, PathTypeFolder).Validate()
}

// ValidateOptionalFile validates a file path only if it is not empty.
func ValidateOptionalFile(fieldName, path string) error {
	if path == "" {
		return nil
	}
	return ValidateFileExists(fieldName, path)
}

// ValidateBaseNames checks that every entry is a bare file name: non-empty,
// not "." or "..", and free of path separators.
func ValidateBaseNames(fieldName string, names []string) error {
	for i, n := range names {
		switch {
		case n == "":
			return fmt.Errorf("%w: %s contains empty name at index %d", ErrInvalidArgument, fieldName, i)
		case n == "." || n == "..":
			return fmt.Errorf("%w: %s[%d] %q is not a file name", ErrInvalidArgument, fieldName, i, n)
		case strings.ContainsAny(n, `/\`):
			return fmt.Errorf("%w: %s[%d] %q must be a base name, not a path", ErrInvalidArgument, fieldName, i, n)
		}
	}
	return nil
}
