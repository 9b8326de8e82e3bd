// Copyright 2024 The Beacon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package eotel bridges beacon span events into an OpenTelemetry SDK
// tracer, so existing OTel exporters and processors can consume them.
package eotel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	beacon "github.com/diagio/beacon"
)

// Target forwards span-extent events to an OTel tracer. Point events
// are ignored: they belong on a log target. Sends never fail; the SDK's
// own exporters handle delivery.
type Target struct {
	tracer trace.Tracer
}

// New builds a bridge on the given provider.
func New(tp trace.TracerProvider) *Target {
	return &Target{tracer: tp.Tracer("github.com/diagio/beacon/adapter/eotel")}
}

func (t *Target) Send(ctx context.Context, batch []*beacon.Event) beacon.Outcome {
	for _, ev := range batch {
		if !ev.Extent.IsSpan() {
			continue
		}
		_, span := t.tracer.Start(ctx, ev.Msg(),
			trace.WithTimestamp(ev.Extent.Start()),
			trace.WithAttributes(attrs(ev.Props)...),
		)
		span.End(trace.WithTimestamp(ev.Extent.End()))
	}
	return beacon.Accepted()
}

func attrs(props beacon.Properties) []attribute.KeyValue {
	var kvs []attribute.KeyValue
	for _, p := range props {
		kvs = append(kvs, attr(p.Name, p.Value))
	}
	return kvs
}

func attr(name string, v beacon.Value) attribute.KeyValue {
	t, err := v.AsTree()
	if err != nil {
		return attribute.String(name, v.String())
	}
	switch t.Kind() {
	case beacon.BoolKind:
		return attribute.Bool(name, t.AsBool())
	case beacon.NumberKind:
		if t.IsInteger() {
			return attribute.Int64(name, t.AsInt64())
		}
		return attribute.Float64(name, t.AsFloat64())
	case beacon.StringKind:
		return attribute.String(name, t.AsString())
	default:
		return attribute.String(name, v.String())
	}
}
