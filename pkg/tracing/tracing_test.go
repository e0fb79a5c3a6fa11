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

package tracing

import (
	"context"
	"errors"
	"testing"
)

type recordingSpan struct {
	attrs map[string]interface{}
	ended bool
}

func (s *recordingSpan) SetAttribute(k string, v interface{}) { s.attrs[k] = v }
func (s *recordingSpan) End() { s.ended = true }

type recordingTracer struct {
	names []string
	spans []*recordingSpan
}

func (r *recordingTracer) Start(ctx context.Context, name string) (context.Context, Span) {
	s := &recordingSpan{attrs: map[string]interface{}{}}
	r.names = append(r.names, name)
	r.spans = append(r.spans, s)
	return ctx, s
}

func TestRun_Disabled(t *testing.T) {
	SetTracer(nil)
	if Enabled() {
		t.Fatal("tracing reported as enabled without a tracer")
	}
	called := false
	if err := Run(context.Background(), "op", nil, func(context.Context) error {
		called = true
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Error("fn not called")
	}
}

func TestRun_RecordsSpan(t *testing.T) {
	rec := &recordingTracer{}
	SetTracer(rec)
	t.Cleanup(func() { SetTracer(nil) })

	want := errors.New("boom")
	err := Run(context.Background(), "dver.sign", map[string]interface{}{"dir": "/tmp"}, func(context.Context) error {
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("Run() error = %v", err)
	}
	if len(rec.spans) != 1 || rec.names[0] != "dver.sign" {
		t.Fatalf("spans = %v", rec.names)
	}
	span := rec.spans[0]
	if !span.ended {
		t.Error("span not ended")
	}
	if span.attrs["dir"] != "/tmp" || span.attrs["error"] != "boom" {
		t.Errorf("attrs = %v", span.attrs)
	}
}

func TestConfigured(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		traces   string
		exporter string
		want     bool
	}{
		{name: "nothing set"},
		{name: "endpoint", endpoint: "http://localhost:4318", want: true},
		{name: "traces endpoint", traces: "http://localhost:4318/v1/traces", want: true},
		{name: "exporter none", endpoint: "http://localhost:4318", exporter: "none"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", tt.endpoint)
			t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", tt.traces)
			t.Setenv("OTEL_TRACES_EXPORTER", tt.exporter)
			if got := Configured(); got != tt.want {
				t.Errorf("Configured() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInitFromEnv_Unconfigured(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "")
	if err := InitFromEnv(context.Background()); err != nil {
		t.Fatal(err)
	}
	if Enabled() {
		t.Error("tracer installed without an endpoint")
	}
	if err := Shutdown(context.Background()); err != nil {
		t.Error(err)
	}
}
