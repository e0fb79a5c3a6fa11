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
// Package logging is the leveled logger shared by the dver packages.
//
// Library code logs progress at debug level and warnings at warn level.
// The CLI chooses the output: plain text lines for terminals, or one JSON
// object per line through zerolog.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"
)

// LogLevel is the minimum severity a logger emits.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	// LevelSilent drops everything.
	LevelSilent
)

// String returns the lowercase level name.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelSilent:
		return "silent"
	default:
		return "unknown"
	}
}

// ParseLogLevel maps a DVER_LOG_LEVEL or --log-level value to a LogLevel.
// Unrecognized values select LevelInfo.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "trace":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "silent", "none", "off":
		return LevelSilent
	default:
		return LevelInfo
	}
}

// LogFormat selects the log line encoding.
type LogFormat int

const (
	FormatText LogFormat = iota
	FormatJSON
)

// String returns "text" or "json".
func (f LogFormat) String() string {
	if f == FormatJSON {
		return "json"
	}
	return "text"
}

// ParseLogFormat maps a DVER_LOG_FORMAT or --log-format value to a
// LogFormat. Anything but "json" selects FormatText.
func ParseLogFormat(s string) LogFormat {
	if strings.EqualFold(strings.TrimSpace(s), "json") {
		return FormatJSON
	}
	return FormatText
}

// Logger is the logging surface used by dver. Messages are printf-style.
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})

	// With returns a logger that attaches key=value to every entry.
	With(key string, value interface{}) Logger
}

// LoggerOptions configures New.
type LoggerOptions struct {
	Level  LogLevel
	Format LogFormat
	// Output defaults to os.Stderr so logs never mix with the report
	// written to stdout.
	Output io.Writer
	// ShowLevel prefixes text lines with the level, as in "[WARN]".
	ShowLevel bool
}

// New returns a text or JSON logger according to opts.
func New(opts LoggerOptions) Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	if opts.Format == FormatJSON {
		return newJSONLogger(out, opts.Level)
	}
	return &textLogger{mu: &sync.Mutex{}, level: opts.Level, out: out, showLevel: opts.ShowLevel}
}

// Discard returns a Logger that drops every message.
func Discard() Logger {
	return New(LoggerOptions{Level: LevelSilent, Output: io.Discard})
}

// EnsureLogger returns l, or an info-level text logger on stderr when l is
// nil.
func EnsureLogger(l Logger) Logger {
	if l == nil {
		return New(LoggerOptions{Level: LevelInfo, ShowLevel: true})
	}
	return l
}
