// Copyright 2024 The Beacon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package beacon

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TraceID is a 16-byte trace correlation identifier. The zero value
// means "not set".
type TraceID [16]byte

// SpanID is an 8-byte span correlation identifier. The zero value means
// "not set".
type SpanID [8]byte

// NewTraceID returns a random trace identifier.
func NewTraceID() TraceID { return TraceID(uuid.New()) }

// NewSpanID returns a random span identifier.
func NewSpanID() SpanID {
	var id SpanID
	rand.Read(id[:])
	return id
}

func (id TraceID) IsValid() bool { return id != TraceID{} }
func (id SpanID) IsValid() bool  { return id != SpanID{} }

func (id TraceID) String() string { return hex.EncodeToString(id[:]) }
func (id SpanID) String() string  { return hex.EncodeToString(id[:]) }

// ParseTraceID parses a 32-character hex trace id.
func ParseTraceID(s string) (TraceID, error) {
	var id TraceID
	if err := parseHexID(s, id[:]); err != nil {
		return TraceID{}, err
	}
	return id, nil
}

// ParseSpanID parses a 16-character hex span id.
func ParseSpanID(s string) (SpanID, error) {
	var id SpanID
	if err := parseHexID(s, id[:]); err != nil {
		return SpanID{}, err
	}
	return id, nil
}

func parseHexID(s string, dst []byte) error {
	if hex.DecodedLen(len(s)) != len(dst) {
		return fmt.Errorf("beacon: id %q: want %d hex bytes", s, len(dst))
	}
	_, err := hex.Decode(dst, []byte(s))
	return err
}

// Extent is an event's timing: either a single point (a log record) or
// an ordered interval (a span, or a cumulative metric window). The zero
// Extent has no timing at all.
type Extent struct {
	start time.Time
	end   time.Time
	span  bool
}

// At returns a point extent.
func At(t time.Time) Extent { return Extent{start: t} }

// SpanExtent returns an interval extent from start to end. Reversed
// endpoints are swapped so that End is never before Start; equal
// endpoints are a zero-duration span, which is distinct from a point.
func SpanExtent(start, end time.Time) Extent {
	if end.Before(start) {
		start, end = end, start
	}
	return Extent{start: start, end: end, span: true}
}

// IsZero reports whether the extent carries no timing.
func (x Extent) IsZero() bool { return !x.span && x.start.IsZero() }

// IsSpan reports whether the extent is an interval rather than a point.
func (x Extent) IsSpan() bool { return x.span }

// Start returns the point time, or the interval's start.
func (x Extent) Start() time.Time { return x.start }

// End returns the interval's end. For a point it equals Start.
func (x Extent) End() time.Time {
	if !x.span {
		return x.start
	}
	return x.end
}

// Duration returns End minus Start; zero for points.
func (x Extent) Duration() time.Duration { return x.End().Sub(x.start) }

// Property is one named value attached to an event.
type Property struct {
	Name  string
	Value Value
}

// Properties is an ordered list of properties. Names may repeat; all
// lookups take the first match, in supplied order.
type Properties []Property

// Find returns the value of the first property named name.
func (ps Properties) Find(name string) (Value, bool) {
	for _, p := range ps {
		if p.Name == name {
			return p.Value, true
		}
	}
	return Value{}, false
}

// Has reports whether any property is named name.
func (ps Properties) Has(name string) bool {
	_, ok := ps.Find(name)
	return ok
}

// Property constructors, in the manner of structured logging fields.

func String(name, v string) Property     { return Property{name, StringValue(v)} }
func Text(name, v string) Property       { return Property{name, TextValue(v)} }
func Int(name string, v int) Property    { return Property{name, IntValue(int64(v))} }
func Int64(name string, v int64) Property { return Property{name, IntValue(v)} }
func Float64(name string, v float64) Property { return Property{name, Float64Value(v)} }
func Bool(name string, v bool) Property  { return Property{name, BoolValue(v)} }
func Any(name string, v interface{}) Property { return Property{name, ValueOf(v)} }

// Err captures an error chain under the well-known "err" name.
func Err(err error) Property { return Property{KeyErr, ErrValue(err)} }

// Lvl attaches a severity level under the well-known "lvl" name.
func Lvl(l Level) Property { return Property{KeyLevel, StringValue(l.String())} }

// Event is the unified representation of a log record, trace span or
// metric sample: an extent, a message template, an ordered property
// list, and optional trace correlation identifiers.
//
// Events are immutable once constructed. Pipeline stages that need a
// different shape derive a new value or an encoding; they never mutate
// an Event in place.
type Event struct {
	Module   string
	Extent   Extent
	Template Template
	Props    Properties
	TraceID  TraceID
	SpanID   SpanID
}

// NewEvent builds an event. The properties are kept in supplied order.
func NewEvent(module string, extent Extent, tpl Template, props ...Property) *Event {
	return &Event{Module: module, Extent: extent, Template: tpl, Props: props}
}

// WithTrace returns a copy of the event carrying the given correlation
// identifiers.
func (e *Event) WithTrace(traceID TraceID, spanID SpanID) *Event {
	e2 := *e
	e2.TraceID = traceID
	e2.SpanID = spanID
	return &e2
}

// Msg renders the event's template against its properties.
func (e *Event) Msg() string { return e.Template.Render(e.Props) }

// Level returns the event's severity from the well-known "lvl"
// property, defaulting to LevelInfo.
func (e *Event) Level() Level {
	v, ok := e.Props.Find(KeyLevel)
	if !ok {
		return LevelInfo
	}
	l, err := ParseLevel(v.String())
	if err != nil {
		return LevelInfo
	}
	return l
}
