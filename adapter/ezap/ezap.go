// Copyright 2024 The Beacon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ezap provides a zapcore.Core that forwards zap log entries
// into a beacon emitter.
package ezap

import (
	"context"

	"go.uber.org/zap/zapcore"

	beacon "github.com/diagio/beacon"
)

type core struct {
	em     beacon.Emitter
	module string
	props  []beacon.Property
}

var _ zapcore.Core = (*core)(nil)

// NewCore returns a core emitting under the given module name. Install
// it with zap.New or zapcore.NewTee.
func NewCore(em beacon.Emitter, module string) zapcore.Core {
	return &core{em: em, module: module}
}

func (c *core) Enabled(zapcore.Level) bool { return true }

func (c *core) With(fields []zapcore.Field) zapcore.Core {
	c2 := *c
	c2.props = appendFields(c.props, fields)
	return &c2
}

func (c *core) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	return ce.AddCore(e, c)
}

func (c *core) Write(e zapcore.Entry, fields []zapcore.Field) error {
	props := make([]beacon.Property, 0, len(c.props)+len(fields)+3)
	props = append(props, beacon.Lvl(level(e.Level)))
	props = append(props, c.props...)
	props = appendFields(props, fields)
	if e.Stack != "" {
		props = append(props, beacon.String("stack", e.Stack))
	}
	if e.Caller.Defined {
		props = append(props, beacon.String("caller", e.Caller.String()))
	}
	module := c.module
	if e.LoggerName != "" {
		module = module + "::" + e.LoggerName
	}
	ev := beacon.NewEvent(module, beacon.At(e.Time),
		beacon.NewTemplate(beacon.Literal(e.Message)), props...)
	c.em.Emit(context.Background(), ev)
	return nil
}

func (c *core) Sync() error { return nil }

// appendFields converts zap fields through an object encoder, which
// handles every field type zap defines.
func appendFields(props []beacon.Property, fields []zapcore.Field) []beacon.Property {
	if len(fields) == 0 {
		return props
	}
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		if v, ok := enc.Fields[f.Key]; ok {
			props = append(props, beacon.Any(f.Key, v))
		}
	}
	return props
}

func level(l zapcore.Level) beacon.Level {
	switch {
	case l <= zapcore.DebugLevel:
		return beacon.LevelDebug
	case l == zapcore.InfoLevel:
		return beacon.LevelInfo
	case l == zapcore.WarnLevel:
		return beacon.LevelWarn
	default:
		return beacon.LevelError
	}
}
