// SPDX-License-Identifier: BSD-3-Clause

// Package eventrouter runs one input-reader loop per bound device and a
// hotplug watcher that scans the HID bus, binds newly seen devices into the
// HAL device table, and retires devices that vanished. Normalized events
// are fanned out to every loaded script via the script host's bounded
// per-worker queues.
package eventrouter

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/eruption-core/eruptiond/pkg/hal"
	"github.com/eruption-core/eruptiond/pkg/log"
)

// Default hotplug scan period and per-read timeout, exported so callers
// configuring a service wrapper can reference them rather than duplicate
// the literal.
const (
	DefaultScanInterval = 2 * time.Second
	DefaultReadTimeout  = 2 * time.Second
)

// ScriptHost is the subset of *scripthost.Host the router needs to fan
// normalized input events out to every loaded script.
type ScriptHost interface {
	BroadcastInput(ev hal.RawEvent)
}

// eventSource is satisfied by hal.Keyboard and hal.Mouse; Misc devices have
// no input stream and are excluded from reader loops.
type eventSource interface {
	NextEvent(timeout time.Duration) (hal.RawEvent, error)
}

// Router owns the hotplug watcher and one reader goroutine per bound input
// device.
type Router struct {
	table        *hal.Table
	bindingTable *hal.BindingTable
	host         ScriptHost

	scanInterval time.Duration
	readTimeout  time.Duration

	onHotplug func(info hal.DeviceInfo, connected bool)

	mu      sync.Mutex
	readers map[hal.DeviceHandle]context.CancelFunc
	wg      sync.WaitGroup
}

// Option configures a Router.
type Option interface {
	apply(*Router)
}

type optionFunc func(*Router)

func (f optionFunc) apply(r *Router) { f(r) }

// WithScanInterval sets the hotplug bus-scan period.
func WithScanInterval(d time.Duration) Option {
	return optionFunc(func(r *Router) { r.scanInterval = d })
}

// WithReadTimeout bounds how long a device's blocking event read waits
// before the loop rechecks for cancellation.
func WithReadTimeout(d time.Duration) Option {
	return optionFunc(func(r *Router) { r.readTimeout = d })
}

// WithOnHotplug registers a callback fired whenever a device is bound or
// retired, used to emit the DeviceHotplug RPC signal.
func WithOnHotplug(fn func(info hal.DeviceInfo, connected bool)) Option {
	return optionFunc(func(r *Router) { r.onHotplug = fn })
}

// New creates a Router over table, using bindingTable to construct drivers
// for newly discovered devices and fanning normalized events into host.
func New(table *hal.Table, bindingTable *hal.BindingTable, host ScriptHost, opts ...Option) *Router {
	r := &Router{
		table:        table,
		bindingTable: bindingTable,
		host:         host,
		scanInterval: DefaultScanInterval,
		readTimeout:  DefaultReadTimeout,
		readers:      make(map[hal.DeviceHandle]context.CancelFunc),
	}
	for _, opt := range opts {
		opt.apply(r)
	}
	return r
}

// Run scans the bus once to bind whatever is already present, then runs the
// hotplug watcher until ctx is canceled, blocking until every reader
// goroutine has exited.
func (r *Router) Run(ctx context.Context) error {
	r.scanOnce(ctx)

	ticker := time.NewTicker(r.scanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.wg.Wait()
			return ctx.Err()
		case <-ticker.C:
			r.scanOnce(ctx)
		}
	}
}

// scanOnce binds newly seen (vendor_id, product_id) pairs and retires
// previously bound devices no longer present on the bus.
func (r *Router) scanOnce(ctx context.Context) {
	present := make(map[hal.DeviceInfo]struct{})
	for _, info := range hal.Scan() {
		present[info] = struct{}{}
	}

	known := make(map[hal.DeviceInfo]*hal.ManagedDevice)
	for _, md := range r.table.All() {
		known[md.Info] = md
	}

	for info := range present {
		if _, ok := known[info]; ok {
			continue
		}
		r.bind(ctx, info)
	}

	for info, md := range known {
		if _, ok := present[info]; ok {
			continue
		}
		r.retire(ctx, md)
	}
}

func (r *Router) bind(ctx context.Context, info hal.DeviceInfo) {
	l := log.GetGlobalLogger()

	drv, err := r.bindingTable.Bind(info)
	if err != nil {
		l.WarnContext(ctx, "device not supported, skipping", "vendor_id", info.VendorID, "product_id", info.ProductID, "error", err)
		return
	}

	md, err := r.table.Bind(ctx, info, drv)
	if err != nil {
		l.ErrorContext(ctx, "failed to register device", "error", err)
		return
	}

	if err := drv.Open(ctx); err != nil {
		_ = md.Fire(ctx, hal.TriggerFail)
		l.ErrorContext(ctx, "failed to open device", "error", err)
		return
	}
	_ = md.Fire(ctx, hal.TriggerOpen)

	if err := drv.SendInitSequence(ctx); err != nil {
		_ = md.Fire(ctx, hal.TriggerFail)
		l.ErrorContext(ctx, "failed to initialize device", "error", err)
		return
	}
	_ = md.Fire(ctx, hal.TriggerInit)

	if r.onHotplug != nil {
		r.onHotplug(info, true)
	}

	if src, ok := drv.(eventSource); ok {
		r.startReader(ctx, md, src)
	}
}

func (r *Router) retire(ctx context.Context, md *hal.ManagedDevice) {
	r.mu.Lock()
	if cancel, ok := r.readers[md.Handle]; ok {
		cancel()
		delete(r.readers, md.Handle)
	}
	r.mu.Unlock()

	_ = md.Fire(ctx, hal.TriggerUnplug)
	r.table.Remove(md.Handle)

	if r.onHotplug != nil {
		r.onHotplug(md.Info, false)
	}
}

func (r *Router) startReader(ctx context.Context, md *hal.ManagedDevice, src eventSource) {
	readerCtx, cancel := context.WithCancel(ctx)

	r.mu.Lock()
	r.readers[md.Handle] = cancel
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer cancel()

		l := log.GetGlobalLogger()
		for {
			select {
			case <-readerCtx.Done():
				return
			default:
			}

			ev, err := src.NextEvent(r.readTimeout)
			if errors.Is(err, hal.ErrReadTimeout) {
				continue
			}
			if err != nil {
				l.WarnContext(readerCtx, "device read failed, marking failed", "handle", md.Handle, "error", err)
				md.Driver.Fail(err)
				return
			}
			if ev.Kind == hal.EventTimeout {
				continue
			}

			r.host.BroadcastInput(ev)
		}
	}()
}
