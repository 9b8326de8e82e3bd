// Copyright 2024 The Beacon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
	"time"

	beacon "github.com/diagio/beacon"
	"github.com/diagio/beacon/beacontest"
)

func TestDuration(t *testing.T) {
	for _, test := range []struct {
		d    time.Duration
		want string
	}{
		{0, "0ns"},
		{999 * time.Nanosecond, "999ns"},
		{1999 * time.Nanosecond, "1999ns"},
		{2 * time.Microsecond, "2µs"},
		{1500 * time.Microsecond, "1500µs"},
		{2 * time.Millisecond, "2ms"},
		{1999 * time.Millisecond, "1999ms"},
		{2 * time.Second, "2s"},
		{90 * time.Second, "90s"},
		{2 * time.Minute, "2m"},
		{time.Hour, "60m"},
	} {
		if got := Duration(test.d); got != test.want {
			t.Errorf("Duration(%v) = %q, want %q", test.d, got, test.want)
		}
	}
}

func TestLine(t *testing.T) {
	t0 := beacontest.Base
	for _, test := range []struct {
		name string
		ev   *beacon.Event
		want string
	}{
		{
			name: "point",
			ev: beacon.NewEvent("app::db", beacon.At(t0),
				beacon.MustParseTemplate("user {id} logged in"),
				beacon.Lvl(beacon.LevelInfo), beacon.Int("id", 42)),
			want: "14:27:48.000 info app::db user 42 logged in\n",
		},
		{
			name: "span",
			ev: beacon.NewEvent("app::db", beacon.SpanExtent(t0, t0.Add(3*time.Second)),
				beacon.MustParseTemplate("query ran"),
				beacon.Lvl(beacon.LevelDebug)),
			want: "14:27:48.000 [3s] debug app::db query ran\n",
		},
		{
			name: "no module no level",
			ev: beacon.NewEvent("", beacon.At(t0),
				beacon.MustParseTemplate("bare")),
			want: "14:27:48.000 bare\n",
		},
		{
			name: "error chain",
			ev: beacon.NewEvent("app", beacon.At(t0),
				beacon.MustParseTemplate("request failed"),
				beacon.Lvl(beacon.LevelError),
				beacon.Err(fmt.Errorf("query failed: %w", errors.New("connection reset")))),
			want: "14:27:48.000 error app request failed\n" +
				"  err: query failed: connection reset\n" +
				"  caused by: connection reset\n",
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			var buf bytes.Buffer
			Line(&buf, test.ev, false)
			if got := buf.String(); got != test.want {
				t.Errorf("Line:\n got %q\nwant %q", got, test.want)
			}
		})
	}
}

func TestLineColor(t *testing.T) {
	ev := beacon.NewEvent("app", beacon.At(beacontest.Base),
		beacon.MustParseTemplate("boom"), beacon.Lvl(beacon.LevelError))

	var buf bytes.Buffer
	Line(&buf, ev, true)
	got := buf.String()
	if !bytes.Contains([]byte(got), []byte(ansiRed+"error"+ansiReset)) {
		t.Errorf("colored line %q does not color the error level red", got)
	}

	buf.Reset()
	Line(&buf, ev, false)
	if bytes.Contains(buf.Bytes(), []byte("\x1b[")) {
		t.Errorf("plain line %q contains ANSI escapes", buf.String())
	}
}
