// Copyright 2024 The Beacon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package elogr provides a logr.LogSink backed by a beacon emitter.
package elogr

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	beacon "github.com/diagio/beacon"
)

type sink struct {
	em     beacon.Emitter
	module string
	name   string
	props  []beacon.Property
}

var _ logr.LogSink = (*sink)(nil)

// NewLogger returns a logr.Logger emitting under the given module
// name. Successive WithName calls extend the module with "::" segments.
func NewLogger(em beacon.Emitter, module string) logr.Logger {
	return logr.New(&sink{em: em, module: module})
}

func (s *sink) Init(logr.RuntimeInfo) {}

func (s *sink) Enabled(int) bool { return true }

func (s *sink) Info(verbosity int, msg string, keysAndValues ...interface{}) {
	lvl := beacon.LevelInfo
	if verbosity > 0 {
		lvl = beacon.LevelDebug
	}
	s.emit(msg, append([]beacon.Property{beacon.Lvl(lvl)}, kvProps(keysAndValues)...))
}

func (s *sink) Error(err error, msg string, keysAndValues ...interface{}) {
	props := []beacon.Property{beacon.Lvl(beacon.LevelError), beacon.Err(err)}
	s.emit(msg, append(props, kvProps(keysAndValues)...))
}

func (s *sink) emit(msg string, props []beacon.Property) {
	module := s.module
	if s.name != "" {
		module = module + "::" + s.name
	}
	props = append(props, s.props...)
	s.em.Emit(context.Background(), beacon.NewEvent(module,
		beacon.At(time.Now()),
		beacon.NewTemplate(beacon.Literal(msg)), props...))
}

func (s *sink) WithValues(keysAndValues ...interface{}) logr.LogSink {
	s2 := *s
	s2.props = append(append([]beacon.Property(nil), s.props...), kvProps(keysAndValues)...)
	return &s2
}

func (s *sink) WithName(name string) logr.LogSink {
	s2 := *s
	if s.name == "" {
		s2.name = name
	} else {
		s2.name = s.name + "::" + name
	}
	return &s2
}

func kvProps(keysAndValues []interface{}) []beacon.Property {
	var props []beacon.Property
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		props = append(props, beacon.Any(fmt.Sprint(keysAndValues[i]), keysAndValues[i+1]))
	}
	return props
}
