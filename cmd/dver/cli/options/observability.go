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

package options

import (
	"io"

	"github.com/uintptr/dver/pkg/logging"
	"github.com/uintptr/dver/pkg/signing"
)

// Observability holds what every command hands to the library: the logger,
// the progress writer and the backend options derived from the environment.
// Tracing is configured globally via pkg/tracing.
type Observability struct {
	Logger  logging.Logger
	Out     io.Writer
	Signing signing.Options
}

// NewObservability builds the shared command context. out receives the
// progress report.
func (o *RootOptions) NewObservability(out io.Writer) Observability {
	logger := o.NewLogger()
	return Observability{
		Logger:  logger,
		Out:     out,
		Signing: o.Env.SigningOptions(logger),
	}
}
