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

package cli

import (
	"errors"

	"github.com/uintptr/dver/pkg/dver"
)

// ExitCoder is implemented by errors that carry a process exit status.
type ExitCoder interface {
	error
	ExitCode() int
}

// ExitCode returns the process exit status for an error returned by the
// root command. Errors raised before dver runs, such as unknown flags,
// missing arguments or bad environment values, are input errors.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ec ExitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}
	return dver.ExitInput
}
