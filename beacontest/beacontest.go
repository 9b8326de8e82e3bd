// Copyright 2024 The Beacon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package beacontest supports testing code that emits diagnostic
// events. Target captures delivered batches in memory and can be
// scripted to fail; Runtime wires one straight into a runtime so a test
// can assert on exactly what was emitted.
package beacontest

import (
	"context"
	"sync"
	"testing"
	"time"

	beacon "github.com/diagio/beacon"
)

// Base is the fixed instant tests build timestamps from.
var Base = time.Date(2020, 3, 5, 14, 27, 48, 0, time.UTC)

// At returns Base plus n seconds.
func At(n int) time.Time { return Base.Add(time.Duration(n) * time.Second) }

// Target records every batch it is sent. Script, when non-empty, is
// consumed one outcome per Send; once exhausted every Send is accepted.
type Target struct {
	mu      sync.Mutex
	batches [][]*beacon.Event
	script  []beacon.Outcome
	sends   int
}

// NewTarget returns a capturing target that accepts everything.
func NewTarget() *Target { return &Target{} }

// Scripted returns a capturing target whose first Sends report the
// given outcomes in order.
func Scripted(outcomes ...beacon.Outcome) *Target {
	return &Target{script: outcomes}
}

func (t *Target) Send(_ context.Context, batch []*beacon.Event) beacon.Outcome {
	cp := make([]*beacon.Event, len(batch))
	copy(cp, batch)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sends++
	out := beacon.Accepted()
	if len(t.script) > 0 {
		out = t.script[0]
		t.script = t.script[1:]
	}
	switch out.Kind() {
	case beacon.OutcomeAccepted:
		t.batches = append(t.batches, cp)
	case beacon.OutcomePartial:
		if n := len(cp) - out.Rejected(); n > 0 {
			t.batches = append(t.batches, cp[:n])
		}
	}
	return out
}

// Sends returns how many delivery attempts the target has seen.
func (t *Target) Sends() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sends
}

// Batches returns the accepted batches in delivery order.
func (t *Target) Batches() [][]*beacon.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([][]*beacon.Event, len(t.batches))
	copy(out, t.batches)
	return out
}

// Events returns every accepted event, flattened in delivery order.
func (t *Target) Events() []*beacon.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []*beacon.Event
	for _, b := range t.batches {
		out = append(out, b...)
	}
	return out
}

// Messages returns the rendered message of every accepted event.
func (t *Target) Messages() []string {
	var out []string
	for _, ev := range t.Events() {
		out = append(out, ev.Msg())
	}
	return out
}

// Runtime returns a runtime delivering synchronously to a fresh capture
// target, torn down when the test ends.
func Runtime(tb testing.TB, opts ...beacon.Option) (*beacon.Runtime, *Target) {
	tb.Helper()
	target := NewTarget()
	opts = append(opts, beacon.WithPipeline(beacon.Direct(target)))
	rt := beacon.New(opts...)
	tb.Cleanup(func() { rt.Shutdown(context.Background()) })
	return rt, target
}
