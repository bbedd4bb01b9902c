// SPDX-License-Identifier: BSD-3-Clause

package scripthost

import (
	"context"
	"testing"
	"time"
)

const tickCountingScript = `
var ticks = 0;
function on_tick() {
  ticks = ticks + 1;
  set_pixel(0, 0, ticks, 0, 0, 255);
}
`

func waitForCondition(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}

func TestWorkerProcessesTicksInOrder(t *testing.T) {
	h := New(1, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := h.Load(ctx, "counter", tickCountingScript, nil); err != nil {
		t.Fatalf("Load: %v", err)
	}

	h.BroadcastTick()

	w, _ := h.Get("counter")
	waitForCondition(t, time.Second, func() bool {
		return w.Frame().Get(0, 0).R >= 1
	})

	// A queued Tick coalesces with the next one, so the second Tick is sent
	// only after the first has been taken off the queue.
	h.BroadcastTick()
	waitForCondition(t, time.Second, func() bool {
		return w.Frame().Get(0, 0).R >= 2
	})
}

const faultingScript = `
function on_tick() {
  throw new Error("boom");
}
`

func TestFaultingScriptIsMarkedFaulted(t *testing.T) {
	h := New(1, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := h.Load(ctx, "bad", faultingScript, nil); err != nil {
		t.Fatalf("Load: %v", err)
	}

	h.BroadcastTick()

	w, _ := h.Get("bad")
	waitForCondition(t, time.Second, func() bool {
		return w.Faulted()
	})

	if len(h.FaultedScripts()) != 1 {
		t.Errorf("FaultedScripts() = %v, want one entry", h.FaultedScripts())
	}
}

const paramScript = `
var last = "";
function on_apply_parameter(name, value) {
  last = name + "=" + value;
}
function on_tick() {
  if (last == "speed=5") {
    set_pixel(0, 0, 1, 1, 1, 1);
  }
}
`

func TestParameterUpdateReachesWorker(t *testing.T) {
	h := New(1, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := h.Load(ctx, "param", paramScript, nil); err != nil {
		t.Fatalf("Load: %v", err)
	}

	w, _ := h.Get("param")
	w.Enqueue(Message{Kind: MsgParameterUpdate, ParamName: "speed", ParamValue: "5"})
	w.Enqueue(Message{Kind: MsgTick})

	waitForCondition(t, time.Second, func() bool {
		return w.Frame().Get(0, 0).R == 1
	})
}
