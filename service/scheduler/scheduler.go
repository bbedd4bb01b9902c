// SPDX-License-Identifier: BSD-3-Clause

// Package scheduler drives the render tick: broadcast Tick to every loaded
// script, blend the resulting per-script frames onto the shared canvas, and
// fan the composed canvas out to every active device's LED map. It owns no
// NATS endpoints; Run exists to satisfy the uniform service.Service
// contract and to report tick timing as OTel metrics.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arunsworld/nursery"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/eruption-core/eruptiond/pkg/color"
	"github.com/eruption-core/eruptiond/pkg/compositor"
	"github.com/eruption-core/eruptiond/pkg/hal"
	"github.com/eruption-core/eruptiond/pkg/log"
	"github.com/eruption-core/eruptiond/pkg/zone"
	"github.com/eruption-core/eruptiond/service"
)

// Compile-time assertion that Scheduler implements service.Service.
var _ service.Service = (*Scheduler)(nil)

// Scheduler owns the tick timer for the lifetime of the daemon.
type Scheduler struct {
	config config

	tracer trace.Tracer
	meter  metric.Meter

	framesDropped   metric.Int64Counter
	tickDurationsMs metric.Float64Histogram

	renderBusy atomic.Bool

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
}

// New creates a new Scheduler instance with the provided options. Every
// With-dependency option (WithScriptHost, WithHal, WithCanvas, WithSettings)
// must be set before Run.
func New(opts ...Option) *Scheduler {
	cfg := &config{
		serviceName:        DefaultServiceName,
		serviceDescription: DefaultServiceDescription,
		serviceVersion:     DefaultServiceVersion,
		tickInterval:       DefaultTickInterval,
		enableMetrics:      true,
	}
	for _, opt := range opts {
		opt.apply(cfg)
	}
	return &Scheduler{config: *cfg}
}

// Name returns the service name.
func (s *Scheduler) Name() string {
	return s.config.serviceName
}

// Run drives the tick timer until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context, ipcConn nats.InProcessConnProvider) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrServiceAlreadyStarted
	}
	s.started = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	if s.config.scripts == nil || s.config.hal == nil || s.config.canvas == nil || s.config.settings == nil {
		return ErrMissingDependency
	}

	s.tracer = otel.Tracer(s.config.serviceName)
	s.meter = otel.Meter(s.config.serviceName)

	ctx, span := s.tracer.Start(ctx, "scheduler.Run")
	defer span.End()

	l := log.GetGlobalLogger().With("service", s.config.serviceName)
	l.InfoContext(ctx, "Starting tick scheduler", "tick_interval", s.config.tickInterval)

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

	ticker := time.NewTicker(s.config.tickInterval)
	defer ticker.Stop()

	l.InfoContext(ctx, "Tick scheduler started")

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case now := <-ticker.C:
			s.tick(ctx, now)
		}
	}

	err = ctx.Err()
	ctx = context.WithoutCancel(ctx)
	l.InfoContext(ctx, "Stopping tick scheduler", "reason", err)

	return err
}

func (s *Scheduler) initializeMetrics() error {
	if !s.config.enableMetrics {
		return nil
	}

	var err error
	s.framesDropped, err = s.meter.Int64Counter(
		"scheduler_frames_dropped_total",
		metric.WithDescription("Number of ticks whose device render was skipped because the prior tick's render had not finished"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create frames-dropped counter: %w", err)
	}

	s.tickDurationsMs, err = s.meter.Float64Histogram(
		"scheduler_tick_duration_ms",
		metric.WithDescription("Wall-clock time spent composing a tick's canvas, excluding device I/O"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return fmt.Errorf("failed to create tick-duration histogram: %w", err)
	}

	return nil
}

// tick broadcasts Tick to every loaded script, composes the resulting
// frames onto the shared canvas, flushes any coalesced property-change
// signals, and fans the composed canvas out to every active device. The
// device fan-out runs on its own goroutine so a slow device write never
// delays the next tick; if the prior tick's fan-out is still in flight,
// this tick's render is skipped and counted as dropped.
func (s *Scheduler) tick(ctx context.Context, start time.Time) {
	host := s.config.scripts.Host()
	host.BroadcastTick()

	scriptLayers := host.Frames()
	layers := make([]compositor.Layer, len(scriptLayers))
	for i, l := range scriptLayers {
		layers[i] = compositor.Layer{Name: l.Name, Frame: l.Worker.Frame()}
	}

	compositor.Compose(s.config.canvas, layers, s.config.settings.Get())

	if s.tickDurationsMs != nil {
		s.tickDurationsMs.Record(ctx, float64(time.Since(start).Microseconds())/1000)
	}

	if s.config.notify != nil {
		s.config.notify.FlushAll(ctx)
	}

	if !s.renderBusy.CompareAndSwap(false, true) {
		if s.framesDropped != nil {
			s.framesDropped.Add(ctx, 1)
		}
		return
	}

	pixels := s.config.canvas.Snapshot()
	canvasW := s.config.canvas.Width()
	canvasH := s.config.canvas.Height()
	devices := s.config.hal.Table().Active()
	zones := s.config.hal.Zones()

	go func() {
		defer s.renderBusy.Store(false)
		s.render(ctx, pixels, canvasW, canvasH, devices, zones)
	}()
}

// render fans the composed canvas out to every active device concurrently.
// A device with no allocated zone, or a disabled zone, is skipped rather
// than sent a blank frame.
func (s *Scheduler) render(ctx context.Context, pixels []color.Color, canvasW, canvasH int, devices []*hal.ManagedDevice, zones *zone.Allocator) {
	if len(devices) == 0 {
		return
	}

	var jobs []nursery.ConcurrentJob
	for _, md := range devices {
		md := md
		jobs = append(jobs, func(_ context.Context, errChan chan error) {
			if err := s.renderDevice(md, pixels, canvasW, canvasH, zones); err != nil {
				errChan <- err
			}
		})
	}

	if err := nursery.RunConcurrentlyWithContext(ctx, jobs...); err != nil {
		log.GetGlobalLogger().WarnContext(ctx, "device render fan-out reported errors", "error", err)
	}
}

// renderDevice samples md's zone rectangle out of a snapshot taken once per
// tick, scales every sampled pixel by the device's own brightness, and for
// keyboards reorders the result through the key topology before handing it
// to SendLEDMap. Canvas.At has no bounds checking, so indices are clamped by
// hand here rather than read through it directly.
func (s *Scheduler) renderDevice(md *hal.ManagedDevice, pixels []color.Color, canvasW, canvasH int, zones *zone.Allocator) error {
	z, err := zones.Get(uint64(md.Handle))
	if err != nil {
		return nil //nolint:nilerr // unallocated devices are simply not rendered
	}
	if !z.Enabled {
		return nil
	}

	brightness := float64(md.Driver.GetBrightness()) / 100

	sample := func(row, col int) color.Color {
		cx, cy := z.X+col, z.Y+row
		if cx < 0 || cx >= canvasW || cy < 0 || cy >= canvasH {
			return color.Transparent
		}
		return color.AdjustBrightness(pixels[cy*canvasW+cx], brightness)
	}

	if kbd, ok := md.Driver.(hal.Keyboard); ok {
		frame := make([]color.Color, kbd.NumLEDs())
		for row := 0; row < z.H; row++ {
			topology := kbd.RowTopology(row)
			for col := 0; col < z.W && col < len(topology); col++ {
				key := topology[col]
				if key < 0 || key >= len(frame) {
					continue
				}
				frame[key] = sample(row, col)
			}
		}
		return kbd.SendLEDMap(frame)
	}

	frame := make([]color.Color, z.W*z.H)
	for row := 0; row < z.H; row++ {
		for col := 0; col < z.W; col++ {
			frame[row*z.W+col] = sample(row, col)
		}
	}

	return md.Driver.SendLEDMap(frame)
}
