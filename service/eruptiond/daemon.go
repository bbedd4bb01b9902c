// SPDX-License-Identifier: BSD-3-Clause

// Package eruptiond provides the top-level orchestrator that supervises all
// Eruption services in a fault-tolerant manner. It handles service lifecycle,
// inter-process communication setup, and exposes a supervision tree for
// automatic service recovery.
package eruptiond

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"cirello.io/oversight/v2"
	"github.com/arunsworld/nursery"
	"github.com/nats-io/nats.go"

	"github.com/eruption-core/eruptiond/pkg/audiobridge"
	"github.com/eruption-core/eruptiond/pkg/canvas"
	"github.com/eruption-core/eruptiond/pkg/compositor"
	"github.com/eruption-core/eruptiond/pkg/id"
	ipcPkg "github.com/eruption-core/eruptiond/pkg/ipc"
	"github.com/eruption-core/eruptiond/pkg/log"
	"github.com/eruption-core/eruptiond/pkg/process"
	"github.com/eruption-core/eruptiond/pkg/rpcnotify"
	"github.com/eruption-core/eruptiond/pkg/telemetry"
	"github.com/eruption-core/eruptiond/service"
	"github.com/eruption-core/eruptiond/service/halsrv"
	"github.com/eruption-core/eruptiond/service/ipc"
	"github.com/eruption-core/eruptiond/service/policymgr"
	"github.com/eruption-core/eruptiond/service/profilesrv"
	"github.com/eruption-core/eruptiond/service/rpcsrv"
	"github.com/eruption-core/eruptiond/service/scheduler"
	"github.com/eruption-core/eruptiond/service/scripthostsrv"
	"github.com/eruption-core/eruptiond/service/statussrv"
)

const defaultLogo = `
 _____                 _   _
|  ___|               | | (_)
| |__ _ __ _   _ _ __ | |_ _  ___  _ __
|  __| '__| | | | '_ \| __| |/ _ \| '_ \
| |__| |  | |_| | |_) | |_| | (_) | | | |
\____/_|   \__,_| .__/ \__|_|\___/|_| |_|
                | |
                |_|
`

// Compile-time assertion that Daemon implements service.Service.
var _ service.Service = (*Daemon)(nil)

// Daemon manages the lifecycle of Eruption services in a supervised
// environment. It provides service orchestration, fault tolerance, and
// inter-process communication coordination for all daemon subsystems.
type Daemon struct {
	config
}

// New creates a new Daemon instance with the provided configuration options.
// By default it wires up every standard Eruption service: the hardware
// abstraction layer, script host, profile/slot manager, RPC surface,
// scheduler, authorization policy, audio bridge, and status endpoint.
// Additional services can be configured using the provided options.
//
// Every Eruption service runs in this one process, so New builds the
// shared canvas and compositor settings first and threads the same pointers
// into Rpcsrv/Scheduler (Scripthostsrv receives the canvas dimensions), and
// hands the scheduler Rpcsrv's property-change registry to flush; it also
// calls Halsrv.SetScriptHost/Profilesrv.SetScriptHost so the hotplug
// watcher and slot switcher can drive the script host directly, without a
// round trip through NATS. See DESIGN.md's cross-service wiring section.
func New(opts ...Option) *Daemon {
	cfg := &config{
		name:        "eruptiond",
		id:          "",
		disableLogo: false,
		otelSetup: func() {
			_, _ = telemetry.Setup(context.Background(), telemetry.WithServiceName("eruptiond"))
		},
		logger:       log.NewDefaultLogger(),
		timeout:      10 * time.Second,
		canvasWidth:  DefaultCanvasWidth,
		canvasHeight: DefaultCanvasHeight,
		ipc:          ipc.New(),
	}
	for _, opt := range opts {
		opt.apply(cfg)
	}

	cfg.canvas = canvas.New(cfg.canvasWidth, cfg.canvasHeight)
	cfg.settings = compositor.NewSettingsStore()
	cfg.notify = rpcnotify.NewRegistry()

	scripthostsrvOpts := append([]scripthostsrv.Option{
		scripthostsrv.WithCanvasDimensions(cfg.canvasWidth, cfg.canvasHeight),
	}, cfg.scripthostsrvOpts...)

	cfg.Halsrv = halsrv.New(cfg.halsrvOpts...)
	cfg.Scripthostsrv = scripthostsrv.New(scripthostsrvOpts...)
	cfg.Profilesrv = profilesrv.New(cfg.profilesrvOpts...)
	cfg.Policymgr = policymgr.New(cfg.policymgrOpts...)

	host := cfg.Scripthostsrv.Host()
	cfg.Halsrv.SetScriptHost(host)
	cfg.Profilesrv.SetScriptHost(host)

	cfg.audio = audiobridge.New(append([]audiobridge.Option{
		audiobridge.WithOnSpectrum(host.UpdateSpectrum),
	}, cfg.audioOpts...)...)
	cfg.AudioSrv = &audioBridgeService{name: "audiobridge", bridge: cfg.audio}

	rpcsrvOpts := append([]rpcsrv.Option{
		rpcsrv.WithHal(cfg.Halsrv),
		rpcsrv.WithScriptHost(cfg.Scripthostsrv),
		rpcsrv.WithProfiles(cfg.Profilesrv),
		rpcsrv.WithPolicy(cfg.Policymgr),
		rpcsrv.WithCanvas(cfg.canvas),
		rpcsrv.WithSettings(cfg.settings),
		rpcsrv.WithAudioBridge(cfg.audio),
	}, cfg.rpcsrvOpts...)
	cfg.Rpcsrv = rpcsrv.New(rpcsrvOpts...)
	cfg.notify = cfg.Rpcsrv.Registry()

	schedulerOpts := append([]scheduler.Option{
		scheduler.WithScriptHost(cfg.Scripthostsrv),
		scheduler.WithHal(cfg.Halsrv),
		scheduler.WithCanvas(cfg.canvas),
		scheduler.WithSettings(cfg.settings),
		scheduler.WithNotifyRegistry(cfg.notify),
	}, cfg.schedulerOpts...)
	cfg.Scheduler = scheduler.New(schedulerOpts...)

	cfg.Statussrv = statussrv.New(cfg.statussrvOpts...)

	return &Daemon{
		config: *cfg,
	}
}

// Name returns the configured name of the daemon service.
func (s *Daemon) Name() string {
	return s.name
}

// Run starts the daemon and all configured services under supervision.
// It sets up the supervision tree, configures inter-process communication,
// and manages the lifecycle of all Eruption services. The daemon runs until
// the provided context is canceled or a fatal error occurs.
//
// The ipcConn parameter can be nil if an IPC service is configured via
// options. If both ipcConn and an IPC service are provided, the external
// ipcConn takes precedence.
func (s *Daemon) Run(ctx context.Context, ipcConn nats.InProcessConnProvider) (err error) {
	if s.name == "" {
		return ErrNameEmpty
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s %w: %v", s.Name(), ErrPanicked, r)
		}
	}()

	// Several services rely on the telemetry setup being done because of our
	// custom logger. Additional exporters, if any, are configured here too.
	s.otelSetup()

	// This needs to be called after s.otelSetup to make sure any OTEL log
	// implementation is registered first.
	l := log.GetGlobalLogger()

	if s.id == "" {
		idStr, err := id.GetOrCreatePersistentID(s.Name(), "/var/lib/eruptiond/id")
		if err != nil {
			l.ErrorContext(ctx, "Failed to get/create persistent ID, using ephemeral ID", "error", err)
			s.id = id.NewID()
		} else {
			s.id = idStr
		}
	}

	if !s.disableLogo {
		if s.customLogo != "" {
			l.Info(s.customLogo)
		} else {
			l.Info(defaultLogo)
		}
	}

	supervisionTree := oversight.New(
		oversight.NeverHalt(),
		oversight.DefaultRestartStrategy(),
		oversight.WithLogger(log.NewOversightLogger(l)),
	)

	// A user needs to either provide a valid ipcConn when starting the daemon
	// or let us create an IPC service ourselves from the configuration.
	// If both are provided we will NOT start another IPC service but re-use the provided ipcConn!
	if s.ipc == nil && ipcConn == nil {
		return ErrIPCNil
	}

	if s.ipc != nil && ipcConn == nil {
		if err := supervisionTree.Add(
			process.New(s.ipc, nil),
			oversight.Transient(),
			oversight.Timeout(s.timeout),
			s.ipc.Name(),
		); err != nil {
			return fmt.Errorf("%w %s to tree: %w", ErrAddProcess, s.ipc.Name(), err)
		}
	} else {
		if err := supervisionTree.Add(
			process.New(ipcPkg.NewStub(), nil),
			oversight.Transient(),
			oversight.Timeout(s.timeout),
			"ipc-stub",
		); err != nil {
			return fmt.Errorf("%w %s to tree: %w", ErrAddProcess, "ipc-stub", err)
		}
	}

	supervise := func(ctx context.Context, c chan error) {
		c <- supervisionTree.Start(ctx)
	}

	spawnProcs := func(ctx context.Context, c chan error) {
		var conn nats.InProcessConnProvider
		if ipcConn != nil {
			conn = ipcConn
		} else {
			conn = s.ipc.GetConnProvider()
		}

		// Dynamically add all service.Service fields to the supervision tree.
		configValue := reflect.ValueOf(s.config)
		for i := range configValue.NumField() {
			field := configValue.Field(i)

			if field.IsValid() && field.CanInterface() {
				v := field.Interface()
				if v == nil {
					continue
				}
				if svc, ok := v.(service.Service); ok {
					if err := supervisionTree.Add(
						process.New(svc, conn),
						oversight.Transient(),
						oversight.Timeout(s.timeout),
						svc.Name(),
					); err != nil {
						c <- fmt.Errorf("%w %s to tree: %w", ErrAddProcess, svc.Name(), err)
						return
					}
				}
			}
		}

		for _, svc := range s.extraServices {
			if err := supervisionTree.Add(
				process.New(svc, ipcConn),
				oversight.Transient(),
				oversight.Timeout(s.timeout),
				svc.Name(),
			); err != nil {
				c <- fmt.Errorf("%w %s to tree: %w", ErrAddExtraService, svc.Name(), err)
				return
			}
		}
	}

	l.InfoContext(ctx, "Starting child routines", "service", s.name)
	return nursery.RunConcurrentlyWithContext(ctx, supervise, spawnProcs)
}
