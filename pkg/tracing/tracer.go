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
// Package tracing records spans around the dver sign and verify pipelines.
//
// Nothing is traced until InitFromEnv finds an OTLP endpoint in the
// environment; until then Run calls straight through.
package tracing

import (
	"context"
	"sync"
)

// Span is a single timed operation in a trace.
type Span interface {
	SetAttribute(key string, value interface{})
	End()
}

// Tracer starts spans. The returned context carries the span to nested
// calls; the span must be ended by the caller.
type Tracer interface {
	Start(ctx context.Context, name string) (context.Context, Span)
}

var (
	mu     sync.RWMutex
	active Tracer
)

// SetTracer installs t for Run. Passing nil disables tracing.
func SetTracer(t Tracer) {
	mu.Lock()
	defer mu.Unlock()
	active = t
}

func current() Tracer {
	mu.RLock()
	defer mu.RUnlock()
	return active
}

// Enabled reports whether a tracer is installed.
func Enabled() bool {
	return current() != nil
}

// Run calls fn inside a span named name carrying attrs. A failing fn sets
// the "error" attribute. Without a tracer fn is called directly.
func Run(ctx context.Context, name string, attrs map[string]interface{}, fn func(context.Context) error) error {
	t := current()
	if t == nil {
		return fn(ctx)
	}
	ctx, span := t.Start(ctx, name)
	defer span.End()
	for k, v := range attrs {
		span.SetAttribute(k, v)
	}
	err := fn(ctx)
	if err != nil {
		span.SetAttribute("error", err.Error())
	}
	return err
}
