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

	"github.com/rs/zerolog"
)

// jsonLogger emits one JSON object per entry with "time", "level",
// "service" and "message" keys plus any attached fields.
type jsonLogger struct {
	zl zerolog.Logger
}

func newJSONLogger(w io.Writer, level LogLevel) *jsonLogger {
	zl := zerolog.New(w).
		Level(zerologLevel(level)).
		With().
		Timestamp().
		Str("service", "dver").
		Logger()
	return &jsonLogger{zl: zl}
}

func zerologLevel(level LogLevel) zerolog.Level {
	switch level {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.Disabled
	}
}

func (l *jsonLogger) With(key string, value interface{}) Logger {
	return &jsonLogger{zl: l.zl.With().Interface(key, value).Logger()}
}

func (l *jsonLogger) Debug(format string, args ...interface{}) {
	l.zl.Debug().Msg(fmt.Sprintf(format, args...))
}

func (l *jsonLogger) Info(format string, args ...interface{}) {
	l.zl.Info().Msg(fmt.Sprintf(format, args...))
}

func (l *jsonLogger) Warn(format string, args ...interface{}) {
	l.zl.Warn().Msg(fmt.Sprintf(format, args...))
}

func (l *jsonLogger) Error(format string, args ...interface{}) {
	l.zl.Error().Msg(fmt.Sprintf(format, args...))
}
