// Copyright 2024 The Beacon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package beacon

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Runtime composes a filter with one pipeline per installed target and
// exposes the process-facing emit and flush surface. Construct one with
// New, install it once with SetDefault, and tear it down once with
// Shutdown.
type Runtime struct {
	filter    Filter
	pipelines []Pipeline
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithFilter installs the admission predicate. A nil filter admits
// every event.
func WithFilter(f Filter) Option {
	return func(rt *Runtime) { rt.filter = f }
}

// WithPipeline installs a delivery pipeline. Give one per target.
func WithPipeline(ps ...Pipeline) Option {
	return func(rt *Runtime) { rt.pipelines = append(rt.pipelines, ps...) }
}

// New builds a Runtime from the given options.
func New(opts ...Option) *Runtime {
	rt := &Runtime{}
	for _, o := range opts {
		o(rt)
	}
	return rt
}

// Emit is the process-facing entry point. It is fire-and-forget: the
// event is filtered, then offered to every pipeline, and any admission
// failure stays inside the pipeline's own accounting. Emit never blocks
// on I/O.
func (rt *Runtime) Emit(ctx context.Context, ev *Event) {
	if rt == nil || ev == nil {
		return
	}
	if rt.filter != nil && !rt.filter(ev) {
		return
	}
	for _, p := range rt.pipelines {
		p.Emit(ctx, ev)
	}
}

// BlockingFlush flushes every pipeline in parallel and waits up to
// timeout. It reports whether every pipeline drained all events that
// were queued before the call.
func (rt *Runtime) BlockingFlush(timeout time.Duration) bool {
	if rt == nil {
		return true
	}
	var g errgroup.Group
	ok := int32(1)
	for _, p := range rt.pipelines {
		p := p
		g.Go(func() error {
			if !p.BlockingFlush(timeout) {
				atomic.StoreInt32(&ok, 0)
			}
			return nil
		})
	}
	g.Wait()
	return atomic.LoadInt32(&ok) == 1
}

// Shutdown drains and stops every pipeline, bounded by the context.
// After Shutdown the pipelines reject further events.
func (rt *Runtime) Shutdown(ctx context.Context) error {
	if rt == nil {
		return nil
	}
	g, ctx := errgroup.WithContext(ctx)
	for _, p := range rt.pipelines {
		p := p
		g.Go(func() error { return p.Shutdown(ctx) })
	}
	return g.Wait()
}

// The process-wide default runtime. The front end's emit entry point
// uses it when no explicit runtime is threaded through.
var (
	defaultRuntime atomic.Pointer[Runtime]
	disabled       atomic.Bool
)

// SetDefault installs rt as the process-wide runtime.
func SetDefault(rt *Runtime) {
	defaultRuntime.Store(rt)
	disabled.Store(false)
}

// Default returns the installed process-wide runtime, or nil.
func Default() *Runtime { return defaultRuntime.Load() }

// Disable suppresses package-level Emit until the next SetDefault.
// The check is a single atomic load, so a disabled process pays almost
// nothing per call site.
func Disable() { disabled.Store(true) }

// Emit delivers the event through the process-wide runtime, if one is
// installed and enabled.
func Emit(ctx context.Context, ev *Event) {
	if disabled.Load() {
		return
	}
	defaultRuntime.Load().Emit(ctx, ev)
}
