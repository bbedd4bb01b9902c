// SPDX-License-Identifier: BSD-3-Clause

// Package scripthostsrv wraps the per-script goja worker pool. It owns no
// goroutine of its own beyond those spawned by loaded scripts: the
// scheduler drives ticks, profilesrv loads and unloads scripts through the
// accessor this service exposes, and rpcsrv forwards parameter updates
// through it. Run exists to satisfy the
// uniform service.Service contract, report script-fault counts as OTel
// metrics, and unload every running script on shutdown.
package scripthostsrv

import (
	"context"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/eruption-core/eruptiond/pkg/log"
	"github.com/eruption-core/eruptiond/pkg/scripthost"
	"github.com/eruption-core/eruptiond/service"
)

// Compile-time assertion that ScriptHostSrv implements service.Service.
var _ service.Service = (*ScriptHostSrv)(nil)

// ScriptHostSrv owns the script host for the lifetime of the daemon.
type ScriptHostSrv struct {
	config config

	host *scripthost.Host

	tracer trace.Tracer
	meter  metric.Meter

	faultedScriptsGauge metric.Int64ObservableGauge

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
}

// New creates a new ScriptHostSrv instance with the provided options.
func New(opts ...Option) *ScriptHostSrv {
	cfg := &config{
		serviceName:        DefaultServiceName,
		serviceDescription: DefaultServiceDescription,
		serviceVersion:     DefaultServiceVersion,
		canvasWidth:        DefaultCanvasWidth,
		canvasHeight:       DefaultCanvasHeight,
		enableMetrics:      true,
	}
	for _, opt := range opts {
		opt.apply(cfg)
	}
	return &ScriptHostSrv{
		config: *cfg,
		host:   scripthost.New(cfg.canvasWidth, cfg.canvasHeight),
	}
}

// Name returns the service name.
func (s *ScriptHostSrv) Name() string {
	return s.config.serviceName
}

// Host returns the underlying script host, used by profilesrv to load/unload
// scripts and by the scheduler to broadcast ticks and read per-script frames.
func (s *ScriptHostSrv) Host() *scripthost.Host {
	return s.host
}

// Run registers fault-count metrics and blocks until ctx is canceled, then
// unloads every running script.
func (s *ScriptHostSrv) Run(ctx context.Context, ipcConn nats.InProcessConnProvider) error {
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

	ctx, span := s.tracer.Start(ctx, "scripthostsrv.Run")
	defer span.End()

	l := log.GetGlobalLogger().With("service", s.config.serviceName)
	l.InfoContext(ctx, "Starting scripting host service")

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

	l.InfoContext(ctx, "Scripting host service started")

	<-ctx.Done()

	err = ctx.Err()
	ctx = context.WithoutCancel(ctx)
	l.InfoContext(ctx, "Stopping scripting host service, unloading all scripts")
	s.host.UnloadAll()

	return err
}

func (s *ScriptHostSrv) initializeMetrics() error {
	if !s.config.enableMetrics {
		return nil
	}

	var err error
	s.faultedScriptsGauge, err = s.meter.Int64ObservableGauge(
		"scripthostsrv_faulted_scripts",
		metric.WithDescription("Number of scripts currently in the Faulted state"),
		metric.WithUnit("1"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(len(s.host.FaultedScripts())))
			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to create faulted scripts gauge: %w", err)
	}

	return nil
}
