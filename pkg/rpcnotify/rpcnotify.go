// SPDX-License-Identifier: BSD-3-Clause

// Package rpcnotify coalesces property mutations into at most one NATS
// publish per tick. An Observable holds one property's value and Set marks
// it dirty when the value changes; the scheduler's tick loop calls
// Registry.FlushAll on rpcsrv's Registry once per frame, publishing only the
// properties that actually changed since the last flush. rpcsrv registers
// no Observable in that Registry, so the daemon publishes no
// property-change signal. Coalescing keeps a
// property being written many times per tick (e.g. a script-driven
// brightness ramp) from flooding the bus with one message per write.
package rpcnotify

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/eruption-core/eruptiond/pkg/log"
)

// Observable holds the last-published value of a single RPC property and
// tracks whether it has changed since the last Flush.
type Observable[T any] struct {
	mu      sync.Mutex
	nc      *nats.Conn
	subject string
	equal   func(a, b T) bool

	value T
	dirty bool
}

// NewObservable creates an Observable that publishes JSON-encoded values to
// subject over nc. equal may be nil, in which case reflect.DeepEqual decides
// whether a new Set value actually changes the property.
func NewObservable[T any](nc *nats.Conn, subject string, equal func(a, b T) bool) *Observable[T] {
	if equal == nil {
		equal = func(a, b T) bool { return reflect.DeepEqual(a, b) }
	}
	return &Observable[T]{nc: nc, subject: subject, equal: equal}
}

// Get returns the current value.
func (o *Observable[T]) Get() T {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.value
}

// Set updates the value. If it differs from the previously set value (per
// the Observable's equal func), the property is marked dirty and will be
// published on the next Flush.
func (o *Observable[T]) Set(v T) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.equal(o.value, v) {
		return
	}
	o.value = v
	o.dirty = true
}

// Flush publishes the current value and clears the dirty flag, but only if
// the value changed since the last Flush. Returns nil without publishing
// when nothing changed.
func (o *Observable[T]) Flush(ctx context.Context) error {
	o.mu.Lock()
	if !o.dirty {
		o.mu.Unlock()
		return nil
	}
	v := o.value
	o.dirty = false
	o.mu.Unlock()

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("rpcnotify: marshaling %s: %w", o.subject, err)
	}
	if err := o.nc.Publish(o.subject, data); err != nil {
		return fmt.Errorf("rpcnotify: publishing %s: %w", o.subject, err)
	}
	return nil
}

// flusher is the type-erased half of Observable's interface the Registry
// needs; it lets a Registry hold Observables of different T.
type flusher interface {
	Flush(ctx context.Context) error
}

// Registry collects every Observable an rpcsrv object-path service owns so
// the scheduler's tick loop can flush all of them with a single call.
type Registry struct {
	mu        sync.Mutex
	observers []flusher
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds an Observable to the registry. Safe to call concurrently
// with FlushAll.
func Register[T any](r *Registry, o *Observable[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, o)
}

// FlushAll flushes every registered Observable once, logging (but not
// aborting on) individual publish failures, since one property's transient
// error should not suppress signals for the rest.
func (r *Registry) FlushAll(ctx context.Context) {
	r.mu.Lock()
	observers := make([]flusher, len(r.observers))
	copy(observers, r.observers)
	r.mu.Unlock()

	l := log.GetGlobalLogger()
	for _, o := range observers {
		if err := o.Flush(ctx); err != nil {
			l.WarnContext(ctx, "rpcnotify: failed to flush property change", "error", err)
		}
	}
}
