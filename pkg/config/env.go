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

// Package config loads dver settings from the environment and assembles
// the hashing and signing options the commands pass down.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"

	"github.com/uintptr/dver/pkg/logging"
	"github.com/uintptr/dver/pkg/signing"
)

// Config is the environment-provided configuration. Command-line flags take
// precedence over every field.
type Config struct {
	// AgentSocket is the SSH agent socket path.
	AgentSocket string `env:"SSH_AUTH_SOCK"`
	// GPGProgram is the GnuPG executable name or path.
	GPGProgram string `env:"DVER_GPG_PROGRAM" envDefault:"gpg"`
	// Passphrase unlocks encrypted keys without prompting.
	Passphrase string `env:"DVER_PASSPHRASE"`
	LogLevel   string `env:"DVER_LOG_LEVEL" envDefault:"info"`
	LogFormat  string `env:"DVER_LOG_FORMAT" envDefault:"text"`
}

// ParseEnv loads configuration from environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load returns the Config read from the current environment.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Credentials returns a static provider when a passphrase is configured and
// an interactive terminal prompt otherwise.
func (c Config) Credentials() signing.CredentialProvider {
	if c.Passphrase != "" {
		return signing.StaticPassphrase(c.Passphrase)
	}
	return signing.TerminalPrompt{In: os.Stdin, Out: os.Stderr}
}

// SigningOptions builds the backend options for this configuration.
func (c Config) SigningOptions(logger logging.Logger) signing.Options {
	return signing.Options{
		AgentSocket: c.AgentSocket,
		GPGProgram:  c.GPGProgram,
		Credentials: c.Credentials(),
		Logger:      logger,
	}
}
