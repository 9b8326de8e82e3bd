// Copyright 2024 The Beacon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package elogr_test

import (
	"errors"
	"testing"

	beacon "github.com/diagio/beacon"
	"github.com/diagio/beacon/adapter/elogr"
	"github.com/diagio/beacon/beacontest"
)

func TestInfo(t *testing.T) {
	rt, target := beacontest.Runtime(t)
	logger := elogr.NewLogger(rt, "app")

	logger.Info("reconciled", "objects", 12)

	events := target.Events()
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	ev := events[0]
	if ev.Msg() != "reconciled" || ev.Level() != beacon.LevelInfo {
		t.Errorf("event = %q %v", ev.Msg(), ev.Level())
	}
	if v, ok := ev.Props.Find("objects"); !ok || v.String() != "12" {
		t.Errorf("objects = %v %v, want 12", v, ok)
	}
}

func TestVerbosityMapsToDebug(t *testing.T) {
	rt, target := beacontest.Runtime(t)
	logger := elogr.NewLogger(rt, "app")

	logger.V(1).Info("noisy detail")

	if got := target.Events()[0].Level(); got != beacon.LevelDebug {
		t.Errorf("level = %v, want debug", got)
	}
}

func TestError(t *testing.T) {
	rt, target := beacontest.Runtime(t)
	logger := elogr.NewLogger(rt, "app")

	logger.Error(errors.New("conflict"), "apply failed", "object", "deploy/web")

	ev := target.Events()[0]
	if ev.Level() != beacon.LevelError {
		t.Errorf("level = %v, want error", ev.Level())
	}
	v, ok := ev.Props.Find(beacon.KeyErr)
	if !ok {
		t.Fatal("no err property")
	}
	chain, _ := v.ErrorChain()
	if len(chain) != 1 || chain[0] != "conflict" {
		t.Errorf("error chain = %v, want [conflict]", chain)
	}
}

func TestWithNameAndValues(t *testing.T) {
	rt, target := beacontest.Runtime(t)
	logger := elogr.NewLogger(rt, "app").WithName("ctrl").WithName("nodes").
		WithValues("cluster", "prod")

	logger.Info("synced")

	ev := target.Events()[0]
	if ev.Module != "app::ctrl::nodes" {
		t.Errorf("module = %q, want app::ctrl::nodes", ev.Module)
	}
	if v, ok := ev.Props.Find("cluster"); !ok || v.String() != "prod" {
		t.Errorf("cluster = %v %v, want prod", v, ok)
	}
}
