// SPDX-License-Identifier: BSD-3-Clause

package rpcnotify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

func startTestServer(t *testing.T) (*server.Server, *nats.Conn) {
	t.Helper()

	opts := &server.Options{
		Host:           "127.0.0.1",
		Port:           -1,
		NoLog:          true,
		NoSigs:         true,
		MaxControlLine: 4096,
	}
	ns, err := server.NewServer(opts)
	if err != nil {
		t.Fatalf("creating test NATS server: %v", err)
	}
	ns.Start()
	if !ns.ReadyForConnections(5 * time.Second) {
		t.Fatal("test NATS server not ready")
	}
	t.Cleanup(ns.Shutdown)

	nc, err := nats.Connect(ns.ClientURL())
	if err != nil {
		t.Fatalf("connecting to test NATS server: %v", err)
	}
	t.Cleanup(nc.Close)

	return ns, nc
}

func TestObservableFlushOnlyOnChange(t *testing.T) {
	_, nc := startTestServer(t)

	sub, err := nc.SubscribeSync("config.brightness")
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}

	o := NewObservable[int](nc, "config.brightness", nil)

	o.Set(50)
	if err := o.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	nc.Flush()

	msg, err := sub.NextMsg(time.Second)
	if err != nil {
		t.Fatalf("expected a publish after first Set, got none: %v", err)
	}
	var got int
	if err := json.Unmarshal(msg.Data, &got); err != nil {
		t.Fatalf("unmarshaling: %v", err)
	}
	if got != 50 {
		t.Fatalf("got %d, want 50", got)
	}

	// Flushing again without an intervening Set must not republish.
	if err := o.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	nc.Flush()
	if _, err := sub.NextMsg(100 * time.Millisecond); err == nil {
		t.Fatal("expected no publish when value did not change")
	}

	// Setting the same value again must also not mark it dirty.
	o.Set(50)
	if err := o.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	nc.Flush()
	if _, err := sub.NextMsg(100 * time.Millisecond); err == nil {
		t.Fatal("expected no publish when Set with the same value")
	}

	// A genuine change publishes again.
	o.Set(75)
	if err := o.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	nc.Flush()
	msg, err = sub.NextMsg(time.Second)
	if err != nil {
		t.Fatalf("expected a publish after changed Set, got none: %v", err)
	}
	if err := json.Unmarshal(msg.Data, &got); err != nil {
		t.Fatalf("unmarshaling: %v", err)
	}
	if got != 75 {
		t.Fatalf("got %d, want 75", got)
	}
}

func TestObservableMultipleWritesCoalesceToOnePublish(t *testing.T) {
	_, nc := startTestServer(t)

	sub, err := nc.SubscribeSync("canvas.hue")
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}

	o := NewObservable[float64](nc, "canvas.hue", nil)

	for _, v := range []float64{10, 20, 30, 40} {
		o.Set(v)
	}
	if err := o.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	nc.Flush()

	msg, err := sub.NextMsg(time.Second)
	if err != nil {
		t.Fatalf("expected one publish, got none: %v", err)
	}
	var got float64
	if err := json.Unmarshal(msg.Data, &got); err != nil {
		t.Fatalf("unmarshaling: %v", err)
	}
	if got != 40 {
		t.Fatalf("got %v, want the last-written value 40", got)
	}
	if _, err := sub.NextMsg(100 * time.Millisecond); err == nil {
		t.Fatal("expected exactly one publish for four writes in a tick")
	}
}

func TestRegistryFlushAll(t *testing.T) {
	_, nc := startTestServer(t)

	subA, err := nc.SubscribeSync("profile.active")
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}
	subB, err := nc.SubscribeSync("slot.active")
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}

	reg := NewRegistry()
	oa := NewObservable[int](nc, "profile.active", nil)
	ob := NewObservable[int](nc, "slot.active", nil)
	Register(reg, oa)
	Register(reg, ob)

	oa.Set(1)
	ob.Set(2)
	reg.FlushAll(context.Background())
	nc.Flush()

	if _, err := subA.NextMsg(time.Second); err != nil {
		t.Fatalf("expected profile.active publish: %v", err)
	}
	if _, err := subB.NextMsg(time.Second); err != nil {
		t.Fatalf("expected slot.active publish: %v", err)
	}

	// A second FlushAll with no intervening Set must publish nothing.
	reg.FlushAll(context.Background())
	nc.Flush()
	if _, err := subA.NextMsg(100 * time.Millisecond); err == nil {
		t.Fatal("expected no publish on unchanged FlushAll")
	}
	if _, err := subB.NextMsg(100 * time.Millisecond); err == nil {
		t.Fatal("expected no publish on unchanged FlushAll")
	}
}
