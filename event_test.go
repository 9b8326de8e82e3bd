// Copyright 2024 The Beacon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package beacon_test

import (
	"testing"
	"time"

	beacon "github.com/diagio/beacon"
)

var t0 = time.Date(2020, 3, 5, 14, 27, 48, 0, time.UTC)

func TestExtent(t *testing.T) {
	point := beacon.At(t0)
	if point.IsSpan() {
		t.Error("point extent reports IsSpan")
	}
	if d := point.Duration(); d != 0 {
		t.Errorf("point Duration = %v, want 0", d)
	}

	span := beacon.SpanExtent(t0, t0.Add(time.Second))
	if !span.IsSpan() {
		t.Error("span extent does not report IsSpan")
	}
	if d := span.Duration(); d != time.Second {
		t.Errorf("span Duration = %v, want 1s", d)
	}

	// Reversed endpoints are normalized; end is never before start.
	rev := beacon.SpanExtent(t0.Add(time.Second), t0)
	if rev.End().Before(rev.Start()) {
		t.Error("reversed span has End before Start")
	}
	if d := rev.Duration(); d != time.Second {
		t.Errorf("reversed span Duration = %v, want 1s", d)
	}

	// A zero-duration span stays a span, distinct from a point.
	zero := beacon.SpanExtent(t0, t0)
	if !zero.IsSpan() {
		t.Error("zero-duration span decayed to a point")
	}
}

func TestPropertiesFind(t *testing.T) {
	ps := beacon.Properties{
		beacon.Int("n", 1),
		beacon.Int("n", 2),
		beacon.String("s", "a"),
	}
	v, ok := ps.Find("n")
	if !ok {
		t.Fatal("Find(n) not found")
	}
	if got := v.String(); got != "1" {
		t.Errorf("Find(n) = %s, want first match 1", got)
	}
	if _, ok := ps.Find("missing"); ok {
		t.Error("Find(missing) reported found")
	}
}

func TestIDs(t *testing.T) {
	tr := beacon.NewTraceID()
	if !tr.IsValid() {
		t.Error("NewTraceID returned the zero id")
	}
	back, err := beacon.ParseTraceID(tr.String())
	if err != nil {
		t.Fatalf("ParseTraceID(%q): %v", tr.String(), err)
	}
	if back != tr {
		t.Errorf("trace id round-trip: got %s, want %s", back, tr)
	}

	sp := beacon.NewSpanID()
	if !sp.IsValid() {
		t.Error("NewSpanID returned the zero id")
	}
	if _, err := beacon.ParseSpanID("zz"); err == nil {
		t.Error("ParseSpanID accepted malformed input")
	}

	var zero beacon.TraceID
	if zero.IsValid() {
		t.Error("zero trace id reports valid")
	}
}

func TestEventLevel(t *testing.T) {
	ev := beacon.NewEvent("app", beacon.At(t0), beacon.MustParseTemplate("hi"))
	if got := ev.Level(); got != beacon.LevelInfo {
		t.Errorf("default level = %v, want info", got)
	}
	ev = beacon.NewEvent("app", beacon.At(t0), beacon.MustParseTemplate("hi"),
		beacon.Lvl(beacon.LevelError))
	if got := ev.Level(); got != beacon.LevelError {
		t.Errorf("level = %v, want error", got)
	}
}

func TestEventWithTrace(t *testing.T) {
	ev := beacon.NewEvent("app", beacon.At(t0), beacon.MustParseTemplate("hi"))
	tr, sp := beacon.NewTraceID(), beacon.NewSpanID()
	ev2 := ev.WithTrace(tr, sp)
	if ev.TraceID.IsValid() {
		t.Error("WithTrace mutated the original event")
	}
	if ev2.TraceID != tr || ev2.SpanID != sp {
		t.Error("WithTrace did not set ids on the derived event")
	}
}

func TestLevelRoundTrip(t *testing.T) {
	for _, l := range []beacon.Level{beacon.LevelDebug, beacon.LevelInfo, beacon.LevelWarn, beacon.LevelError} {
		got, err := beacon.ParseLevel(l.String())
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", l, err)
		}
		if got != l {
			t.Errorf("round-trip %v -> %v", l, got)
		}
	}
	if _, err := beacon.ParseLevel("shout"); err == nil {
		t.Error("ParseLevel accepted garbage")
	}
}
