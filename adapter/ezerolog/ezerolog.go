// Copyright 2024 The Beacon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ezerolog provides a zerolog hook that forwards log events
// into a beacon emitter.
//
// A zerolog hook sees the level and final message but not the
// accumulated fields, which zerolog keeps in its serialized buffer.
// Programs that need fields as structured properties should emit
// beacon events directly instead of bridging.
package ezerolog

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	beacon "github.com/diagio/beacon"
)

// Hook forwards each zerolog event under the given module name.
type Hook struct {
	Emitter beacon.Emitter
	Module  string
}

var _ zerolog.Hook = Hook{}

func (h Hook) Run(e *zerolog.Event, lvl zerolog.Level, msg string) {
	if h.Emitter == nil || lvl == zerolog.NoLevel {
		return
	}
	h.Emitter.Emit(context.Background(), beacon.NewEvent(h.Module,
		beacon.At(time.Now()),
		beacon.NewTemplate(beacon.Literal(msg)),
		beacon.Lvl(level(lvl))))
}

func level(l zerolog.Level) beacon.Level {
	switch {
	case l <= zerolog.DebugLevel:
		return beacon.LevelDebug
	case l == zerolog.InfoLevel:
		return beacon.LevelInfo
	case l == zerolog.WarnLevel:
		return beacon.LevelWarn
	default:
		return beacon.LevelError
	}
}
