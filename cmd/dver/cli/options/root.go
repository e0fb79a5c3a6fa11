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

// Package options defines the command-line options and flags for the dver
// CLI.
package options

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/uintptr/dver/pkg/config"
	"github.com/uintptr/dver/pkg/logging"
)

// EnvPrefix is the prefix used for environment variables that configure the CLI.
const EnvPrefix = "DVER"

// RootOptions defines flags and options for the root CLI command.
// These options are available globally across all subcommands.
type RootOptions struct {
	// OutputFile specifies a file path to redirect output to instead of stdout.
	OutputFile string
	// LogLevel sets the minimum log level; empty falls back to DVER_LOG_LEVEL.
	LogLevel string
	// LogFormat sets the log output format; empty falls back to DVER_LOG_FORMAT.
	LogFormat string
	// Timeout sets the maximum duration for command execution.
	Timeout time.Duration

	// Env is the configuration read from the environment before any
	// command runs.
	Env config.Config
}

// DefaultTimeout specifies the default timeout duration for commands.
const DefaultTimeout = 3 * time.Minute

var logExts = []string{"log", "txt"}

var _ FlagAdder = (*RootOptions)(nil)

// AddFlags adds root-level flags to the cobra command.
func (o *RootOptions) AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&o.OutputFile, "output-file", "",
		"log output to a file")
	_ = cmd.MarkFlagFilename("output-file", logExts...)

	cmd.PersistentFlags().StringVar(&o.LogLevel, "log-level", "",
		"set the minimum log level (trace, debug, info, warn, error, silent) [env: "+EnvPrefix+"_LOG_LEVEL]")

	cmd.PersistentFlags().StringVar(&o.LogFormat, "log-format", "",
		"set the log output format (text, json) [env: "+EnvPrefix+"_LOG_FORMAT]")

	cmd.PersistentFlags().DurationVarP(&o.Timeout, "timeout", "t", DefaultTimeout,
		"timeout for commands")
}

// LoadEnv reads the environment configuration into o.Env.
func (o *RootOptions) LoadEnv() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	o.Env = cfg
	return nil
}

// GetLogLevel returns the effective log level: the flag, then the
// environment.
func (o *RootOptions) GetLogLevel() logging.LogLevel {
	if o.LogLevel != "" {
		return logging.ParseLogLevel(o.LogLevel)
	}
	return logging.ParseLogLevel(o.Env.LogLevel)
}

// GetLogFormat returns the effective log format: the flag, then the
// environment.
func (o *RootOptions) GetLogFormat() logging.LogFormat {
	if o.LogFormat != "" {
		return logging.ParseLogFormat(o.LogFormat)
	}
	return logging.ParseLogFormat(o.Env.LogFormat)
}

// NewLogger creates a new logger based on the root options.
func (o *RootOptions) NewLogger() logging.Logger {
	return logging.New(logging.LoggerOptions{
		Level:     o.GetLogLevel(),
		Format:    o.GetLogFormat(),
		ShowLevel: true,
	})
}
