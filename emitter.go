// Copyright 2024 The Beacon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package beacon

import (
	"context"
	"time"
)

// Emitter is the sink-facing capability: it accepts one event and
// returns quickly. Implementations must not block on I/O; anything slow
// belongs behind a batcher.
type Emitter interface {
	Emit(ctx context.Context, ev *Event)
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(ctx context.Context, ev *Event)

func (f EmitterFunc) Emit(ctx context.Context, ev *Event) { f(ctx, ev) }

// OutcomeKind classifies a delivery attempt.
type OutcomeKind int

const (
	// OutcomeAccepted: the whole batch was accepted.
	OutcomeAccepted OutcomeKind = iota
	// OutcomePartial: the target rejected a subset of the batch.
	OutcomePartial
	// OutcomeRetryable: a transient failure; the same batch may be
	// redelivered.
	OutcomeRetryable
	// OutcomeFatal: a permanent failure; the batch must be dropped.
	OutcomeFatal
)

// Outcome is a target's report on one delivery attempt.
type Outcome struct {
	kind     OutcomeKind
	rejected int
	err      error
}

// Accepted reports full success.
func Accepted() Outcome { return Outcome{} }

// PartiallyRejected reports that rejected events of the batch were not
// accepted. By convention the rejected events are the trailing ones.
func PartiallyRejected(rejected int, err error) Outcome {
	return Outcome{kind: OutcomePartial, rejected: rejected, err: err}
}

// Retryable reports a transient failure.
func Retryable(err error) Outcome { return Outcome{kind: OutcomeRetryable, err: err} }

// Fatal reports a permanent, non-retryable failure.
func Fatal(err error) Outcome { return Outcome{kind: OutcomeFatal, err: err} }

func (o Outcome) Kind() OutcomeKind { return o.kind }
func (o Outcome) Rejected() int     { return o.rejected }
func (o Outcome) Err() error        { return o.err }

// Target is a delivery sink. Send consumes the batch and reports one of
// the four outcomes. Targets must tolerate redelivery of an
// already-accepted batch: the pipeline guarantees at-least-once, not
// exactly-once.
type Target interface {
	Send(ctx context.Context, batch []*Event) Outcome
}

// Pipeline is an Emitter whose buffered events can be flushed and that
// can be shut down. Batchers implement Pipeline; so does Direct.
type Pipeline interface {
	Emitter
	// BlockingFlush waits until every event accepted strictly before the
	// call has been delivered or dropped, or until timeout elapses. It
	// reports whether the full drain was observed.
	BlockingFlush(timeout time.Duration) bool
	// Shutdown stops accepting events and drains what is queued, bounded
	// by the context.
	Shutdown(ctx context.Context) error
}

// Direct returns a pipeline that sends each event to the target
// synchronously, one per batch, with no buffering, retry or backoff.
// It is intended for tests and tools; production sinks belong behind a
// batcher.
func Direct(t Target) Pipeline { return &direct{target: t} }

type direct struct {
	target Target
}

func (d *direct) Emit(ctx context.Context, ev *Event) {
	d.target.Send(ctx, []*Event{ev})
}

func (d *direct) BlockingFlush(time.Duration) bool { return true }

func (d *direct) Shutdown(context.Context) error { return nil }
