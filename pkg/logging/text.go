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
package logging

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

type field struct {
	key   string
	value interface{}
}

// textLogger writes one line per entry: an optional level tag, the message
// and any attached fields in the order they were added.
type textLogger struct {
	// mu is shared with loggers derived through With so lines written to
	// the same output never interleave.
	mu        *sync.Mutex
	level     LogLevel
	out       io.Writer
	showLevel bool
	fields    []field
}

func (l *textLogger) With(key string, value interface{}) Logger {
	child := *l
	child.fields = append(append([]field(nil), l.fields...), field{key, value})
	return &child
}

func (l *textLogger) log(level LogLevel, format string, args ...interface{}) {
	if l.level == LevelSilent || level < l.level {
		return
	}

	var b strings.Builder
	if l.showLevel {
		fmt.Fprintf(&b, "[%s] ", strings.ToUpper(level.String()))
	}
	fmt.Fprintf(&b, format, args...)
	for _, f := range l.fields {
		fmt.Fprintf(&b, " %s=%v", f.key, f.value)
	}
	b.WriteByte('\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = io.WriteString(l.out, b.String())
}

func (l *textLogger) Debug(format string, args ...interface{}) {
	l.log(LevelDebug, format, args...)
}

func (l *textLogger) Info(format string, args ...interface{}) {
	l.log(LevelInfo, format, args...)
}

func (l *textLogger) Warn(format string, args ...interface{}) {
	l.log(LevelWarn, format, args...)
}

func (l *textLogger) Error(format string, args ...interface{}) {
	l.log(LevelError, format, args...)
}
