// Copyright 2024 The Beacon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package egokit provides a go-kit logger that forwards log calls into
// a beacon emitter.
package egokit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kit/kit/log"

	beacon "github.com/diagio/beacon"
)

type logger struct {
	em     beacon.Emitter
	module string
}

// NewLogger returns a go-kit logger emitting under the given module
// name. The "msg" (or "message") key becomes the event message; every
// other pair becomes a property.
func NewLogger(em beacon.Emitter, module string) log.Logger {
	return &logger{em: em, module: module}
}

func (l *logger) Log(keyvals ...interface{}) error {
	var (
		msg   string
		props []beacon.Property
	)
	for i := 0; i+1 < len(keyvals); i += 2 {
		key := fmt.Sprint(keyvals[i])
		value := keyvals[i+1]
		switch key {
		case "msg", "message":
			msg = fmt.Sprint(value)
		case "err", "error":
			if err, ok := value.(error); ok {
				props = append(props, beacon.Err(err))
				continue
			}
			props = append(props, beacon.Any(key, value))
		default:
			props = append(props, beacon.Any(key, value))
		}
	}
	l.em.Emit(context.Background(), beacon.NewEvent(l.module,
		beacon.At(time.Now()),
		beacon.NewTemplate(beacon.Literal(msg)), props...))
	return nil
}
