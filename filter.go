// Copyright 2024 The Beacon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package beacon

import "strings"

// Filter decides whether an event enters the pipeline. It runs on the
// hot path before any buffering, so it should be a cheap test. A
// filtered event is indistinguishable from one that was never emitted.
type Filter func(ev *Event) bool

// MinLevel admits events at or above the given severity.
func MinLevel(min Level) Filter {
	return func(ev *Event) bool { return ev.Level() >= min }
}

// ModulePrefix admits events whose module equals prefix or sits beneath
// it in the "::"-separated module hierarchy.
func ModulePrefix(prefix string) Filter {
	return func(ev *Event) bool {
		return ev.Module == prefix || strings.HasPrefix(ev.Module, prefix+"::")
	}
}

// AllOf admits events that every given filter admits.
func AllOf(filters ...Filter) Filter {
	return func(ev *Event) bool {
		for _, f := range filters {
			if !f(ev) {
				return false
			}
		}
		return true
	}
}

// AnyOf admits events that at least one given filter admits.
func AnyOf(filters ...Filter) Filter {
	return func(ev *Event) bool {
		for _, f := range filters {
			if f(ev) {
				return true
			}
		}
		return false
	}
}
