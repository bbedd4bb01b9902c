// SPDX-License-Identifier: BSD-3-Clause

// Package scripthost embeds a sandboxed scripting engine (one goja runtime
// per script) and runs each loaded script on its own worker goroutine,
// dispatching Tick, InputEvent, ParameterUpdate, and Shutdown messages from
// a bounded per-worker queue. A script never writes the shared canvas
// directly; it owns a private frame the compositor blends in z-order.
package scripthost

import (
	"context"
	"sync"

	"github.com/eruption-core/eruptiond/pkg/hal"
)

// Host owns every loaded script's worker and the small set of system
// plugins scripts may call into: a persistence key/value store and an
// audio spectrum buffer fed by the audio proxy socket.
type Host struct {
	mu      sync.RWMutex
	workers map[string]*Worker
	order   []string

	kv       *kvStore
	spectrum *spectrumBuffer

	frameW, frameH int
}

// New creates an empty script host for a canvas of the given dimensions.
func New(frameW, frameH int) *Host {
	return &Host{
		workers:  make(map[string]*Worker),
		kv:       newKVStore(),
		spectrum: newSpectrumBuffer(),
		frameW:   frameW,
		frameH:   frameH,
	}
}

// Load compiles source and starts a new worker for name, replacing any
// existing worker of the same name (e.g. on profile reload). Scripts in a
// profile are loaded in declared order, which becomes the compositor's
// z-order.
func (h *Host) Load(ctx context.Context, name, source string, params map[string]string) error {
	w, err := newWorker(h, name, source, h.frameW, h.frameH, params)
	if err != nil {
		return err
	}

	h.mu.Lock()
	if old, ok := h.workers[name]; ok {
		h.mu.Unlock()
		old.Stop()
		h.mu.Lock()
	} else {
		h.order = append(h.order, name)
	}
	h.workers[name] = w
	h.mu.Unlock()

	w.Start(ctx)
	return nil
}

// Unload stops and removes a script's worker.
func (h *Host) Unload(name string) {
	h.mu.Lock()
	w, ok := h.workers[name]
	if ok {
		delete(h.workers, name)
		for i, n := range h.order {
			if n == name {
				h.order = append(h.order[:i], h.order[i+1:]...)
				break
			}
		}
	}
	h.mu.Unlock()

	if ok {
		w.Stop()
	}
}

// UnloadAll stops and removes every loaded script, e.g. during a slot
// switch's quiescence step.
func (h *Host) UnloadAll() {
	h.mu.Lock()
	names := append([]string(nil), h.order...)
	h.order = nil
	h.mu.Unlock()

	for _, name := range names {
		h.Unload(name)
	}
}

// Get returns the named worker, if loaded.
func (h *Host) Get(name string) (*Worker, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	w, ok := h.workers[name]
	return w, ok
}

// BroadcastTick enqueues a Tick message on every loaded worker.
func (h *Host) BroadcastTick() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, w := range h.workers {
		w.Enqueue(Message{Kind: MsgTick})
	}
}

// BroadcastInput enqueues an input event on every loaded worker, used by
// the event router to fan out normalized HID events to the active profile.
func (h *Host) BroadcastInput(ev hal.RawEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, w := range h.workers {
		w.Enqueue(Message{Kind: MsgInputEvent, Event: ev})
	}
}

// UpdateSpectrum replaces the current audio spectrum sample, called by the
// audio proxy bridge whenever a new PCM frame is decoded into band energies.
func (h *Host) UpdateSpectrum(bins []float64) {
	h.spectrum.Update(bins)
}

// Frames returns every loaded script's frame in declared z-order, the
// input the compositor blends each tick.
func (h *Host) Frames() []Layer {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Layer, 0, len(h.order))
	for _, name := range h.order {
		w := h.workers[name]
		out = append(out, Layer{Name: name, Worker: w})
	}
	return out
}

// Layer pairs a script's name with its worker, in z-order.
type Layer struct {
	Name   string
	Worker *Worker
}

// FaultedScripts returns the names of every currently faulted script.
func (h *Host) FaultedScripts() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []string
	for _, name := range h.order {
		if h.workers[name].Faulted() {
			out = append(out, name)
		}
	}
	return out
}
