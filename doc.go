// Copyright 2024 The Beacon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package beacon provides a unified representation for diagnostic events
// and a reliable pipeline for delivering them to external sinks.
//
// An Event combines a time extent (a point for log records, an interval
// for spans and cumulative metrics), a message template, and an ordered
// list of named properties. Events are handed to a Runtime, which filters
// them, buffers them in per-target batchers, and flushes them in the
// background to targets such as the terminal, a file, or an OTLP
// collector.
//
// The hot path is Emit: it captures nothing lazily, performs only queue
// bookkeeping, and never waits on I/O. Delivery failures are retried with
// backoff by the batcher and are observable through counters, never
// through the Emit call itself.
//
// Most programs install a process-wide Runtime once at startup:
//
//	rt := beacon.New(
//		beacon.WithPipeline(batcher.New(term.New(), batcher.Config{})),
//	)
//	beacon.SetDefault(rt)
//	defer rt.Shutdown(context.Background())
//
// and then emit from anywhere:
//
//	beacon.Emit(ctx, beacon.NewEvent("app::auth",
//		beacon.At(time.Now()),
//		beacon.MustParseTemplate("user {id} logged in"),
//		beacon.Int("id", 42),
//	))
package beacon
