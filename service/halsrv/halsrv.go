// SPDX-License-Identifier: BSD-3-Clause

// Package halsrv owns the hardware abstraction layer: the device binding
// table, the zone allocator, and the hotplug bus-scan watcher. Other
// services reach the live device/zone state through its accessor methods
// rather than a NATS round-trip, since every Eruption service runs in the
// same process; halsrv's own NATS connection exists only to satisfy the
// uniform service.Service contract and to let it log under the shared
// embedded bus's tracing context.
package halsrv

import (
	"context"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/eruption-core/eruptiond/pkg/eventrouter"
	"github.com/eruption-core/eruptiond/pkg/hal"
	"github.com/eruption-core/eruptiond/pkg/log"
	"github.com/eruption-core/eruptiond/pkg/zone"
	"github.com/eruption-core/eruptiond/service"
)

// Compile-time assertion that HalSrv implements service.Service.
var _ service.Service = (*HalSrv)(nil)

// HalSrv owns the device table, zone allocator, and binding table for the
// lifetime of the daemon.
type HalSrv struct {
	config config

	table        *hal.Table
	bindingTable *hal.BindingTable
	zones        *zone.Allocator
	router       *eventrouter.Router

	scriptHost eventrouter.ScriptHost
	onHotplug  func(info hal.DeviceInfo, connected bool)

	tracer trace.Tracer
	meter  metric.Meter

	hotplugEventsTotal metric.Int64Counter

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
}

// New creates a new HalSrv instance with the provided options. The binding
// table starts empty, so every device pair binds to GenericDriver until a
// concrete constructor is registered; callers wanting vendor support should
// call Register on the returned instance's BindingTable before Run.
func New(opts ...Option) *HalSrv {
	cfg := &config{
		serviceName:        DefaultServiceName,
		serviceDescription: DefaultServiceDescription,
		serviceVersion:     DefaultServiceVersion,
		scanInterval:       eventrouter.DefaultScanInterval,
		readTimeout:        eventrouter.DefaultReadTimeout,
		enableMetrics:      true,
	}
	for _, opt := range opts {
		opt.apply(cfg)
	}
	return &HalSrv{
		config:       *cfg,
		table:        hal.NewTable(),
		bindingTable: hal.NewBindingTable(),
		zones:        zone.NewAllocator(),
	}
}

// Name returns the service name.
func (s *HalSrv) Name() string {
	return s.config.serviceName
}

// Table returns the live device table.
func (s *HalSrv) Table() *hal.Table { return s.table }

// BindingTable returns the (vendor_id, product_id) -> driver constructor table.
func (s *HalSrv) BindingTable() *hal.BindingTable { return s.bindingTable }

// Zones returns the device zone allocator.
func (s *HalSrv) Zones() *zone.Allocator { return s.zones }

// SetScriptHost wires the script host that input events are forwarded to.
// Must be called before Run.
func (s *HalSrv) SetScriptHost(host eventrouter.ScriptHost) {
	s.scriptHost = host
}

// OnHotplug registers a callback fired whenever a device is bound or
// retired, used by rpcsrv to emit the devices.hotplug signal.
func (s *HalSrv) OnHotplug(fn func(info hal.DeviceInfo, connected bool)) {
	s.onHotplug = fn
}

// Run starts the hotplug watcher and blocks until ctx is canceled.
func (s *HalSrv) Run(ctx context.Context, ipcConn nats.InProcessConnProvider) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrServiceAlreadyStarted
	}
	s.started = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.tracer = otel.Tracer(s.config.serviceName)
	s.meter = otel.Meter(s.config.serviceName)

	ctx, span := s.tracer.Start(ctx, "halsrv.Run")
	defer span.End()

	l := log.GetGlobalLogger().With("service", s.config.serviceName)
	l.InfoContext(ctx, "Starting hardware abstraction service")

	if err := s.initializeMetrics(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	nc, err := nats.Connect("", nats.InProcessServer(ipcConn))
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: %w", ErrNATSConnectionFailed, err)
	}
	defer nc.Drain() //nolint:errcheck

	s.router = eventrouter.New(s.table, s.bindingTable, s.scriptHost,
		eventrouter.WithScanInterval(s.config.scanInterval),
		eventrouter.WithReadTimeout(s.config.readTimeout),
		eventrouter.WithOnHotplug(func(info hal.DeviceInfo, connected bool) {
			if s.hotplugEventsTotal != nil {
				s.hotplugEventsTotal.Add(ctx, 1)
			}
			if connected {
				l.InfoContext(ctx, "device connected", "vendor_id", info.VendorID, "product_id", info.ProductID)
			} else {
				l.InfoContext(ctx, "device disconnected", "vendor_id", info.VendorID, "product_id", info.ProductID)
			}
			if s.onHotplug != nil {
				s.onHotplug(info, connected)
			}
		}),
	)

	l.InfoContext(ctx, "Hardware abstraction service started, watching bus")

	err = s.router.Run(ctx)
	ctx = context.WithoutCancel(ctx)
	l.InfoContext(ctx, "Stopping hardware abstraction service", "reason", err)

	return err
}

func (s *HalSrv) initializeMetrics() error {
	if !s.config.enableMetrics {
		return nil
	}

	var err error
	s.hotplugEventsTotal, err = s.meter.Int64Counter(
		"halsrv_hotplug_events_total",
		metric.WithDescription("Total number of device bind/retire transitions"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create hotplug events counter: %w", err)
	}

	return nil
}
