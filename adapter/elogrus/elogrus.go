// Copyright 2024 The Beacon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package elogrus provides a logrus Formatter that forwards entries
// into a beacon emitter.
//
// Logrus first calls the Formatter to get bytes, then writes them to
// its output. Events have no byte form, so the formatter emits the
// event itself and returns nothing; set the logrus output to io.Discard:
//
//	logger.SetFormatter(elogrus.NewFormatter(rt, "app"))
//	logger.SetOutput(io.Discard)
package elogrus

import (
	"context"
	"sort"

	"github.com/sirupsen/logrus"

	beacon "github.com/diagio/beacon"
)

type formatter struct {
	em     beacon.Emitter
	module string
}

// NewFormatter returns a formatter emitting under the given module
// name.
func NewFormatter(em beacon.Emitter, module string) logrus.Formatter {
	return &formatter{em: em, module: module}
}

var _ logrus.Formatter = (*formatter)(nil)

func (f *formatter) Format(e *logrus.Entry) ([]byte, error) {
	props := make([]beacon.Property, 0, len(e.Data)+1)
	props = append(props, beacon.Lvl(level(e.Level)))
	for _, k := range sortedKeys(e.Data) {
		if err, ok := e.Data[k].(error); ok && k == logrus.ErrorKey {
			props = append(props, beacon.Err(err))
			continue
		}
		props = append(props, beacon.Any(k, e.Data[k]))
	}
	ctx := e.Context
	if ctx == nil {
		ctx = context.Background()
	}
	f.em.Emit(ctx, beacon.NewEvent(f.module, beacon.At(e.Time),
		beacon.NewTemplate(beacon.Literal(e.Message)), props...))
	return nil, nil
}

func sortedKeys(data logrus.Fields) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func level(l logrus.Level) beacon.Level {
	switch l {
	case logrus.TraceLevel, logrus.DebugLevel:
		return beacon.LevelDebug
	case logrus.InfoLevel:
		return beacon.LevelInfo
	case logrus.WarnLevel:
		return beacon.LevelWarn
	default:
		return beacon.LevelError
	}
}
