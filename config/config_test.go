// Copyright 2024 The Beacon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

const sample = `
service: checkout
filter:
  min_level: warn
  module: app::db
batch:
  size: 256
  flush_interval: 250ms
  max_retries: 3
  retry_base: 10ms
  retry_max: 500ms
  queue:
    policy: drop_oldest
    capacity: 4096
targets:
  - type: term
    color: false
  - type: file
    path: /var/log/checkout.log
  - type: otlp
    endpoint: http://localhost:4318
    transport: http/protobuf
    headers:
      Authorization: Bearer tok
`

func writeFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "beacon.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeFile(t, sample))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Service != "checkout" {
		t.Errorf("service = %q, want checkout", cfg.Service)
	}
	if cfg.Filter.MinLevel != "warn" || cfg.Filter.Module != "app::db" {
		t.Errorf("filter = %+v", cfg.Filter)
	}
	if cfg.Batch.Size != 256 {
		t.Errorf("batch size = %d, want 256", cfg.Batch.Size)
	}
	if got := time.Duration(cfg.Batch.FlushInterval); got != 250*time.Millisecond {
		t.Errorf("flush_interval = %v, want 250ms", got)
	}
	if cfg.Batch.Queue.Policy != "drop_oldest" || cfg.Batch.Queue.Capacity != 4096 {
		t.Errorf("queue = %+v", cfg.Batch.Queue)
	}

	var types []string
	for _, tc := range cfg.Targets {
		types = append(types, tc.Type)
	}
	if diff := cmp.Diff([]string{"term", "file", "otlp"}, types); diff != "" {
		t.Errorf("target types (-want +got):\n%s", diff)
	}
	if cfg.Targets[2].Headers["Authorization"] != "Bearer tok" {
		t.Errorf("otlp headers = %v", cfg.Targets[2].Headers)
	}
	if c := cfg.Targets[0].Color; c == nil || *c {
		t.Errorf("term color = %v, want explicit false", c)
	}
}

func TestLoadBadDuration(t *testing.T) {
	_, err := Load(writeFile(t, "batch:\n  flush_interval: soon\n"))
	if err == nil {
		t.Fatal("Load with bad duration succeeded")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("Load of missing file succeeded")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BEACON_MIN_LEVEL", "error")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://collector:4318")

	cfg, err := Load(writeFile(t, `
filter:
  min_level: info
targets:
  - type: otlp
  - type: otlp
    endpoint: http://pinned:4318
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Filter.MinLevel != "error" {
		t.Errorf("min_level = %q, want env override error", cfg.Filter.MinLevel)
	}
	if got := cfg.Targets[0].Endpoint; got != "http://collector:4318" {
		t.Errorf("endpoint = %q, want env default", got)
	}
	// An explicit endpoint wins over the environment.
	if got := cfg.Targets[1].Endpoint; got != "http://pinned:4318" {
		t.Errorf("endpoint = %q, want pinned value", got)
	}
}

func TestQueuePolicy(t *testing.T) {
	for _, test := range []struct {
		policy   string
		capacity int
		ok       bool
	}{
		{"", 0, true},
		{"unbounded", 0, true},
		{"drop_newest", 10, true},
		{"drop_oldest", 10, true},
		{"block", 10, true},
		{"random", 10, false},
		// Bounded policies need a positive capacity.
		{"drop_newest", 0, false},
		{"drop_oldest", 0, false},
		{"block", 0, false},
		{"drop_oldest", -1, false},
	} {
		_, err := QueueConfig{Policy: test.policy, Capacity: test.capacity}.policy()
		if ok := err == nil; ok != test.ok {
			t.Errorf("policy(%q, capacity %d) error = %v, want ok=%v",
				test.policy, test.capacity, err, test.ok)
		}
	}
}

func TestBuild(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	cfg, err := Load(writeFile(t, `
service: checkout
filter:
  min_level: debug
batch:
  flush_interval: 10ms
targets:
  - type: file
    path: `+path+"\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	rt, err := cfg.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := rt.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestBuildErrors(t *testing.T) {
	for _, test := range []struct {
		name string
		yaml string
	}{
		{"bad level", "filter:\n  min_level: loud\n"},
		{"bad policy", "batch:\n  queue:\n    policy: random\n"},
		{"bounded policy without capacity", "batch:\n  queue:\n    policy: drop_oldest\n"},
		{"bad target", "targets:\n  - type: pigeon\n"},
		{"file without path", "targets:\n  - type: file\n"},
	} {
		t.Run(test.name, func(t *testing.T) {
			cfg, err := Load(writeFile(t, test.yaml))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if _, err := cfg.Build(); err == nil {
				t.Error("Build succeeded, want error")
			}
		})
	}
}
