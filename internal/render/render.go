// Copyright 2024 The Beacon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package render holds the human-readable line renderer shared by the
// terminal and file targets.
package render

import (
	"bytes"
	"strconv"
	"time"

	beacon "github.com/diagio/beacon"
)

const (
	ansiReset = "\x1b[0m"
	ansiFaint = "\x1b[2m"
	ansiRed   = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiCyan  = "\x1b[36m"
)

// Line appends one rendered event to b:
//
//	HH:MM:SS.mmm [duration] level module message
//
// The duration segment appears only for span extents. An "err" property
// adds indented cause lines below the message.
func Line(b *bytes.Buffer, ev *beacon.Event, color bool) {
	ts := ev.Extent.Start()
	if !ts.IsZero() {
		writeColored(b, ts.Format("15:04:05.000"), ansiFaint, color)
		b.WriteByte(' ')
	}
	if ev.Extent.IsSpan() {
		writeColored(b, "["+Duration(ev.Extent.Duration())+"]", ansiYellow, color)
		b.WriteByte(' ')
	}
	if lvl, ok := ev.Props.Find(beacon.KeyLevel); ok {
		writeColored(b, lvl.String(), levelColor(ev.Level()), color)
		b.WriteByte(' ')
	}
	if ev.Module != "" {
		writeColored(b, ev.Module, ansiCyan, color)
		b.WriteByte(' ')
	}
	b.WriteString(ev.Msg())
	b.WriteByte('\n')

	if v, ok := ev.Props.Find(beacon.KeyErr); ok {
		if chain, ok := v.ErrorChain(); ok {
			for i, cause := range chain {
				label := "caused by"
				if i == 0 {
					label = "err"
				}
				b.WriteString("  ")
				writeColored(b, label, ansiRed, color)
				b.WriteString(": ")
				b.WriteString(cause)
				b.WriteByte('\n')
			}
		}
	}
}

// Duration renders d in the largest unit that keeps at least two whole
// units of precision: ns, µs, ms, s, then minutes.
func Duration(d time.Duration) string {
	n := d.Nanoseconds()
	switch {
	case n < 2*int64(time.Microsecond):
		return strconv.FormatInt(n, 10) + "ns"
	case n < 2*int64(time.Millisecond):
		return strconv.FormatInt(n/int64(time.Microsecond), 10) + "µs"
	case n < 2*int64(time.Second):
		return strconv.FormatInt(n/int64(time.Millisecond), 10) + "ms"
	case n < 2*int64(time.Minute):
		return strconv.FormatInt(n/int64(time.Second), 10) + "s"
	default:
		return strconv.FormatInt(n/int64(time.Minute), 10) + "m"
	}
}

func levelColor(l beacon.Level) string {
	switch l {
	case beacon.LevelDebug:
		return ansiFaint
	case beacon.LevelWarn:
		return ansiYellow
	case beacon.LevelError:
		return ansiRed
	default:
		return ""
	}
}

func writeColored(b *bytes.Buffer, s, code string, color bool) {
	if !color || code == "" {
		b.WriteString(s)
		return
	}
	b.WriteString(code)
	b.WriteString(s)
	b.WriteString(ansiReset)
}
