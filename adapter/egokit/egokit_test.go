// Copyright 2024 The Beacon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package egokit_test

import (
	"errors"
	"testing"

	beacon "github.com/diagio/beacon"
	"github.com/diagio/beacon/adapter/egokit"
	"github.com/diagio/beacon/beacontest"
)

func TestLog(t *testing.T) {
	rt, target := beacontest.Runtime(t)
	logger := egokit.NewLogger(rt, "app")

	if err := logger.Log("msg", "payment settled", "amount", 1250, "currency", "EUR"); err != nil {
		t.Fatalf("Log: %v", err)
	}

	events := target.Events()
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	ev := events[0]
	if ev.Msg() != "payment settled" || ev.Module != "app" {
		t.Errorf("event = %q %q", ev.Msg(), ev.Module)
	}
	if v, ok := ev.Props.Find("amount"); !ok || v.String() != "1250" {
		t.Errorf("amount = %v %v, want 1250", v, ok)
	}
	if _, ok := ev.Props.Find("msg"); ok {
		t.Error("msg key leaked into properties")
	}
}

func TestLogError(t *testing.T) {
	rt, target := beacontest.Runtime(t)
	logger := egokit.NewLogger(rt, "app")

	logger.Log("msg", "refund failed", "err", errors.New("ledger locked"))

	v, ok := target.Events()[0].Props.Find(beacon.KeyErr)
	if !ok {
		t.Fatal("no err property")
	}
	chain, _ := v.ErrorChain()
	if len(chain) != 1 || chain[0] != "ledger locked" {
		t.Errorf("error chain = %v, want [ledger locked]", chain)
	}
}

func TestLogNonErrorValueUnderErrKey(t *testing.T) {
	rt, target := beacontest.Runtime(t)
	logger := egokit.NewLogger(rt, "app")

	logger.Log("msg", "x", "error", "just a string")

	if v, ok := target.Events()[0].Props.Find("error"); !ok || v.String() != "just a string" {
		t.Errorf("error property = %v %v, want the plain string", v, ok)
	}
}
