// Copyright 2024 The Beacon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package batcher

import "github.com/prometheus/client_golang/prometheus"

// Metrics are the batcher's delivery counters. They are the only place
// delivery failures become observable; nothing is ever reported back to
// the emit call site.
type Metrics struct {
	// Enqueued counts events accepted into the queue.
	Enqueued prometheus.Counter
	// Delivered counts events a target accepted.
	Delivered prometheus.Counter
	// Dropped counts events discarded: fatal outcomes, exhausted
	// retries, queue overflow, and shutdown-deadline drops.
	Dropped prometheus.Counter
	// Retries counts redelivery attempts after transient failures.
	Retries prometheus.Counter
	// Overflow counts admissions that hit a full queue.
	Overflow prometheus.Counter
}

// NewMetrics returns fresh, unregistered counters. Call Register to
// expose them.
func NewMetrics() *Metrics {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "beacon",
			Subsystem: "batcher",
			Name:      name,
			Help:      help,
		})
	}
	return &Metrics{
		Enqueued:  counter("enqueued_total", "Events accepted into the delivery queue."),
		Delivered: counter("delivered_total", "Events accepted by the target."),
		Dropped:   counter("dropped_total", "Events discarded without delivery."),
		Retries:   counter("retries_total", "Redelivery attempts after transient failures."),
		Overflow:  counter("queue_overflow_total", "Admissions that found the queue full."),
	}
}

// Register registers every counter with r.
func (m *Metrics) Register(r prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.Enqueued, m.Delivered, m.Dropped, m.Retries, m.Overflow} {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}
