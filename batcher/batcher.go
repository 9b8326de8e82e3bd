// Copyright 2024 The Beacon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package batcher implements the delivery engine between emitters and a
// target: a concurrency-safe queue with configurable capacity policies,
// a background flush loop, retries with exponential backoff, and a
// bounded blocking-flush and shutdown protocol.
package batcher

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	beacon "github.com/diagio/beacon"
)

// Admission errors returned by Enqueue.
var (
	ErrQueueFull = errors.New("batcher: queue full")
	ErrClosed    = errors.New("batcher: closed")
)

type policyKind int

const (
	unbounded policyKind = iota
	dropNewest
	dropOldest
	block
)

// Policy is the queue capacity policy applied on admission.
type Policy struct {
	kind     policyKind
	capacity int
}

// Unbounded never rejects or drops on admission. Use only when the
// target is trusted to keep up.
func Unbounded() Policy { return Policy{} }

// DropNewest rejects the incoming event with ErrQueueFull once capacity
// events are queued. A capacity of zero or less means unbounded.
func DropNewest(capacity int) Policy { return Policy{kind: dropNewest, capacity: capacity} }

// DropOldest discards the oldest queued event to admit the incoming one
// once capacity events are queued. A capacity of zero or less means
// unbounded.
func DropOldest(capacity int) Policy { return Policy{kind: dropOldest, capacity: capacity} }

// Block makes Enqueue wait for queue space. This trades the hot-path
// guarantee for losslessness; use it for audit-grade events only. A
// capacity of zero or less means unbounded.
func Block(capacity int) Policy { return Policy{kind: block, capacity: capacity} }

// NoRetries configures MaxRetries so that a failing batch is attempted
// exactly once and then dropped.
const NoRetries = -1

// Config tunes a Batcher. The zero value gets sensible defaults.
type Config struct {
	// BatchSize triggers a flush when this many events are queued, and
	// bounds the size of a single delivery. Default 1024.
	BatchSize int
	// FlushInterval triggers a flush when this long has passed since the
	// last one, even if the queue is below BatchSize. Default 1s.
	FlushInterval time.Duration
	// MaxRetries bounds redelivery of a transiently failing batch. A
	// batch is attempted at most MaxRetries+1 times. Zero means the
	// default of 10; NoRetries disables redelivery entirely.
	MaxRetries int
	// RetryBase, RetryMultiplier and RetryMax shape the exponential
	// backoff between attempts. Defaults 50ms, 2.0, 1s.
	RetryBase       time.Duration
	RetryMultiplier float64
	RetryMax        time.Duration
	// DeliveryTimeout bounds a single Send call. Default 30s.
	DeliveryTimeout time.Duration
	// ShutdownTimeout bounds Shutdown when its context has no deadline.
	// Default 5s.
	ShutdownTimeout time.Duration
	// Queue is the capacity policy. Default Unbounded.
	Queue Policy
	// Metrics receives delivery counters. Nil means fresh, unregistered
	// counters.
	Metrics *Metrics
	// SelfLog, when set, receives diagnostic messages about dropped
	// batches. Delivery failures are never surfaced to emitters.
	SelfLog func(format string, args ...interface{})
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = 1024
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = time.Second
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 10
	} else if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RetryBase <= 0 {
		c.RetryBase = 50 * time.Millisecond
	}
	if c.RetryMultiplier <= 1 {
		c.RetryMultiplier = 2
	}
	if c.RetryMax <= 0 {
		c.RetryMax = time.Second
	}
	if c.DeliveryTimeout <= 0 {
		c.DeliveryTimeout = 30 * time.Second
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
	if c.Queue.kind != unbounded && c.Queue.capacity <= 0 {
		c.Queue = Policy{}
	}
	if c.Metrics == nil {
		c.Metrics = NewMetrics()
	}
	return c
}

type state int

const (
	running state = iota
	draining
	stopped
)

// A waiter is released once the finished watermark passes target.
// Exactly one of ch and fn is set.
type waiter struct {
	target uint64
	ch     chan struct{}
	fn     func()
}

// Batcher buffers events from any number of concurrent emitters and
// flushes them to one Target from a single background goroutine.
// Batches are delivered strictly in admission order: batch k+1 is never
// handed to the target before batch k's delivery has concluded.
type Batcher struct {
	cfg    Config
	target beacon.Target

	mu       sync.Mutex
	space    *sync.Cond // signalled when queue space frees or the batcher closes
	queue    []*beacon.Event
	admitted uint64 // events accepted into the queue, ever
	finished uint64 // events delivered or dropped, ever
	st       state
	waiters  []waiter

	wake     chan struct{} // nudges the flush loop
	quit     chan struct{} // closed on hard stop; aborts backoff sleeps
	done     chan struct{} // closed when the flush loop exits
	stopOnce sync.Once
}

// New starts a batcher delivering to target. Stop it with Shutdown.
func New(target beacon.Target, cfg Config) *Batcher {
	b := &Batcher{
		cfg:    cfg.withDefaults(),
		target: target,
		wake:   make(chan struct{}, 1),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	b.space = sync.NewCond(&b.mu)
	go b.run()
	return b
}

// Enqueue appends the event to the queue under the capacity policy.
// It performs queue bookkeeping only and never touches the target;
// with the drop policies it returns in O(1) regardless of target
// latency. After Shutdown it returns ErrClosed.
func (b *Batcher) Enqueue(ev *beacon.Event) error {
	b.mu.Lock()
	var fired []func()
	for {
		if b.st != running {
			b.mu.Unlock()
			return ErrClosed
		}
		p := b.cfg.Queue
		if p.kind == unbounded || len(b.queue) < p.capacity {
			break
		}
		switch p.kind {
		case dropNewest:
			b.mu.Unlock()
			b.cfg.Metrics.Overflow.Inc()
			return ErrQueueFull
		case dropOldest:
			b.queue[0] = nil
			b.queue = b.queue[1:]
			b.finished++
			fired = b.advanceLocked(fired)
			b.cfg.Metrics.Overflow.Inc()
			b.cfg.Metrics.Dropped.Inc()
		case block:
			b.space.Wait()
			continue
		}
		break
	}
	b.queue = append(b.queue, ev)
	b.admitted++
	full := len(b.queue) >= b.cfg.BatchSize
	b.mu.Unlock()

	b.cfg.Metrics.Enqueued.Inc()
	for _, fn := range fired {
		fn()
	}
	if full {
		b.kick()
	}
	return nil
}

// Emit implements beacon.Emitter. Admission failures are absorbed: the
// event is dropped and counted, the caller is never slowed down or
// failed.
func (b *Batcher) Emit(_ context.Context, ev *beacon.Event) {
	if err := b.Enqueue(ev); err != nil && !errors.Is(err, ErrQueueFull) {
		b.selflog("batcher: event dropped: %v", err)
	}
}

// OnNextFlush registers fn to run once every event currently queued has
// been delivered or dropped. fn runs at most once, on an internal
// goroutine's stack.
func (b *Batcher) OnNextFlush(fn func()) {
	b.mu.Lock()
	if b.finished >= b.admitted {
		b.mu.Unlock()
		fn()
		return
	}
	b.waiters = append(b.waiters, waiter{target: b.admitted, fn: fn})
	b.mu.Unlock()
	b.kick()
}

// BlockingFlush waits until every event admitted strictly before the
// call has been delivered or permanently dropped, or until timeout
// elapses, whichever comes first. It reports whether the full drain was
// observed. Concurrent Enqueue calls proceed freely; events they add
// are not waited for.
func (b *Batcher) BlockingFlush(timeout time.Duration) bool {
	b.mu.Lock()
	target := b.admitted
	if b.finished >= target {
		b.mu.Unlock()
		return true
	}
	ch := make(chan struct{})
	b.waiters = append(b.waiters, waiter{target: target, ch: ch})
	b.mu.Unlock()
	b.kick()

	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-ch:
		return true
	case <-t.C:
		return false
	}
}

// Shutdown moves the batcher to draining: no new events are accepted
// and the queue is flushed. It returns once the queue is empty or the
// deadline passes, whichever comes first; on deadline the remaining
// queue is dropped and counted, and an in-flight delivery attempt is
// left to finish in the background. Safe to call more than once.
func (b *Batcher) Shutdown(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.cfg.ShutdownTimeout)
		defer cancel()
	}

	b.mu.Lock()
	if b.st == running {
		b.st = draining
		b.space.Broadcast()
	}
	b.mu.Unlock()
	b.kick()

	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
	}

	// Deadline passed with events still queued or in flight. Drop what
	// remains so the process can exit.
	b.stopOnce.Do(func() { close(b.quit) })
	b.mu.Lock()
	b.st = stopped
	dropped := len(b.queue)
	b.queue = nil
	b.finished += uint64(dropped)
	fired := b.advanceLocked(nil)
	b.space.Broadcast()
	b.mu.Unlock()

	if dropped > 0 {
		b.cfg.Metrics.Dropped.Add(float64(dropped))
		b.selflog("batcher: shutdown deadline passed, dropped %d queued events", dropped)
	}
	for _, fn := range fired {
		fn()
	}
	// The flush goroutine may still be inside Send. It drops its batch
	// and exits on its own once that call returns; waiting for it here
	// would hold the caller past its deadline by up to DeliveryTimeout.
	b.kick()
	return ctx.Err()
}

// run is the flush loop. It is the only goroutine that dequeues, so a
// single flush is in flight at any time and batch order is preserved.
func (b *Batcher) run() {
	defer close(b.done)
	timer := time.NewTimer(b.cfg.FlushInterval)
	defer timer.Stop()
	for {
		select {
		case <-b.wake:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		case <-timer.C:
		case <-b.quit:
		}
		for {
			batch := b.takeBatch()
			if len(batch) == 0 {
				break
			}
			b.deliver(batch)
		}
		b.mu.Lock()
		if b.st != running && len(b.queue) == 0 {
			b.st = stopped
			b.mu.Unlock()
			return
		}
		b.mu.Unlock()
		timer.Reset(b.cfg.FlushInterval)
	}
}

// takeBatch dequeues up to BatchSize events, oldest first.
func (b *Batcher) takeBatch() []*beacon.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := len(b.queue)
	if n == 0 {
		return nil
	}
	if n > b.cfg.BatchSize {
		n = b.cfg.BatchSize
	}
	batch := make([]*beacon.Event, n)
	copy(batch, b.queue[:n])
	rest := copy(b.queue, b.queue[n:])
	for i := rest; i < len(b.queue); i++ {
		b.queue[i] = nil
	}
	b.queue = b.queue[:rest]
	b.space.Broadcast()
	return batch
}

// deliver attempts the batch until it is accepted, permanently
// rejected, or retries are exhausted. Transient failures back off
// exponentially; a partial rejection retries only the rejected tail.
func (b *Batcher) deliver(batch []*beacon.Event) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = b.cfg.RetryBase
	bo.Multiplier = b.cfg.RetryMultiplier
	bo.MaxInterval = b.cfg.RetryMax
	bo.MaxElapsedTime = 0
	bo.Reset()

	attempts := 0
	for {
		attempts++
		ctx, cancel := context.WithTimeout(context.Background(), b.cfg.DeliveryTimeout)
		out := b.target.Send(ctx, batch)
		cancel()

		switch out.Kind() {
		case beacon.OutcomeAccepted:
			b.cfg.Metrics.Delivered.Add(float64(len(batch)))
			b.complete(len(batch))
			return
		case beacon.OutcomeFatal:
			b.cfg.Metrics.Dropped.Add(float64(len(batch)))
			b.complete(len(batch))
			b.selflog("batcher: dropping batch of %d: %v", len(batch), out.Err())
			return
		case beacon.OutcomePartial:
			rej := out.Rejected()
			if rej <= 0 {
				b.cfg.Metrics.Delivered.Add(float64(len(batch)))
				b.complete(len(batch))
				return
			}
			if rej > len(batch) {
				rej = len(batch)
			}
			accepted := len(batch) - rej
			if accepted > 0 {
				b.cfg.Metrics.Delivered.Add(float64(accepted))
				b.complete(accepted)
				batch = batch[accepted:]
			}
		case beacon.OutcomeRetryable:
		}

		if attempts > b.cfg.MaxRetries {
			b.cfg.Metrics.Dropped.Add(float64(len(batch)))
			b.complete(len(batch))
			b.selflog("batcher: retries exhausted after %d attempts, dropping %d events: %v",
				attempts, len(batch), out.Err())
			return
		}
		b.cfg.Metrics.Retries.Inc()
		select {
		case <-time.After(bo.NextBackOff()):
		case <-b.quit:
			b.cfg.Metrics.Dropped.Add(float64(len(batch)))
			b.complete(len(batch))
			return
		}
	}
}

// complete advances the finished watermark by n and releases waiters it
// satisfies.
func (b *Batcher) complete(n int) {
	b.mu.Lock()
	b.finished += uint64(n)
	fired := b.advanceLocked(nil)
	b.mu.Unlock()
	for _, fn := range fired {
		fn()
	}
}

// advanceLocked releases waiters whose target the finished watermark
// has passed, returning any callbacks to run outside the lock.
func (b *Batcher) advanceLocked(fired []func()) []func() {
	kept := b.waiters[:0]
	for _, w := range b.waiters {
		if w.target > b.finished {
			kept = append(kept, w)
			continue
		}
		if w.ch != nil {
			close(w.ch)
		} else {
			fired = append(fired, w.fn)
		}
	}
	b.waiters = kept
	return fired
}

func (b *Batcher) kick() {
	select {
	case b.wake <- struct{}{}:
	default:
	}
}

func (b *Batcher) selflog(format string, args ...interface{}) {
	if b.cfg.SelfLog != nil {
		b.cfg.SelfLog(format, args...)
	}
}
