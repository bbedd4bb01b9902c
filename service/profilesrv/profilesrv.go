// SPDX-License-Identifier: BSD-3-Clause

// Package profilesrv owns manifest/profile loading and the six-slot table.
// It carries no NATS endpoints of its own: rpcsrv calls its accessor
// methods directly, since both run in the same process. Run's job is to
// load every *.profile file under the configured directory once at
// startup, bind the first one found to slot 0, and then block until
// shutdown.
package profilesrv

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/eruption-core/eruptiond/pkg/log"
	"github.com/eruption-core/eruptiond/pkg/profile"
	"github.com/eruption-core/eruptiond/pkg/slot"
	"github.com/eruption-core/eruptiond/service"
)

// Compile-time assertion that ProfileSrv implements service.Service.
var _ service.Service = (*ProfileSrv)(nil)

// ProfileSrv owns the profile loader and slot manager for the lifetime of
// the daemon.
type ProfileSrv struct {
	config config

	loader *profile.Loader
	slots  *slot.Manager

	tracer trace.Tracer
	meter  metric.Meter

	profileSwitchesTotal metric.Int64Counter

	onActiveSlot func(i int)

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
}

// New creates a new ProfileSrv instance with the provided options. The
// script host must be wired via SetScriptHost before Run for slot
// switches to actually load scripts; without one, switches still update
// bookkeeping but load nothing (useful in tests).
func New(opts ...Option) *ProfileSrv {
	cfg := &config{
		serviceName:        DefaultServiceName,
		serviceDescription: DefaultServiceDescription,
		serviceVersion:     DefaultServiceVersion,
		profileDir:         DefaultProfileDir,
		scriptDir:          DefaultScriptDir,
		namesPath:          DefaultNamesPath,
		switchTimeout:      DefaultSwitchTimeout,
		enableMetrics:      true,
	}
	for _, opt := range opts {
		opt.apply(cfg)
	}

	loader := profile.NewLoader()
	return &ProfileSrv{
		config: *cfg,
		loader: loader,
		slots: slot.NewManager(
			slot.WithNamesPath(cfg.namesPath),
			slot.WithSwitchTimeout(cfg.switchTimeout),
			slot.WithLoader(loader),
			slot.WithScriptReader(scriptReaderFor(cfg.scriptDir)),
		),
	}
}

// scriptReaderFor resolves a profile's active_scripts entries against dir
// unless the entry is already absolute, so profile files can name scripts
// by filename alone.
func scriptReaderFor(dir string) slot.ScriptReader {
	return func(path string) (string, error) {
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

// Name returns the service name.
func (s *ProfileSrv) Name() string {
	return s.config.serviceName
}

// Loader returns the manifest/profile loader.
func (s *ProfileSrv) Loader() *profile.Loader { return s.loader }

// Slots returns the slot manager.
func (s *ProfileSrv) Slots() *slot.Manager { return s.slots }

// SetScriptHost wires the script host scripts are loaded into on a slot
// switch. Must be called before Run. It replaces the slot manager, so a
// *slot.Manager obtained from Slots() earlier no longer belongs to the
// service. The new manager's callback looks up the OnActiveSlotChanged
// function each time it fires, so the two may be set in either order.
func (s *ProfileSrv) SetScriptHost(host slot.ScriptHost) {
	s.slots = slot.NewManager(
		slot.WithNamesPath(s.config.namesPath),
		slot.WithSwitchTimeout(s.config.switchTimeout),
		slot.WithLoader(s.loader),
		slot.WithScriptReader(scriptReaderFor(s.config.scriptDir)),
		slot.WithScriptHost(host),
		slot.WithOnActiveSlotChanged(func(i int) {
			if s.onActiveSlot != nil {
				s.onActiveSlot(i)
			}
		}),
	)
}

// OnActiveSlotChanged registers a callback fired after every successful
// slot switch, used by rpcsrv to emit the slot.active_changed RPC signal.
func (s *ProfileSrv) OnActiveSlotChanged(fn func(i int)) {
	s.onActiveSlot = fn
}

// Run loads every profile under the configured directory, binds the first
// one found to slot 0, and blocks until ctx is canceled.
func (s *ProfileSrv) Run(ctx context.Context, ipcConn nats.InProcessConnProvider) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrServiceAlreadyStarted
	}
	s.started = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	if s.config.profileDir == "" {
		return ErrProfileDirEmpty
	}

	s.tracer = otel.Tracer(s.config.serviceName)
	s.meter = otel.Meter(s.config.serviceName)

	ctx, span := s.tracer.Start(ctx, "profilesrv.Run")
	defer span.End()

	l := log.GetGlobalLogger().With("service", s.config.serviceName)
	l.InfoContext(ctx, "Starting profile/slot management service", "profile_dir", s.config.profileDir)

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

	profiles, errs := s.loader.ListProfiles(s.config.profileDir)
	for _, lerr := range errs {
		l.WarnContext(ctx, "failed to load a profile", "error", lerr)
	}
	if len(profiles) > 0 {
		if err := s.slots.BindProfile(0, profiles[0]); err != nil {
			l.WarnContext(ctx, "failed to bind initial profile to slot 0", "error", err)
		} else if err := s.slots.SwitchSlot(ctx, 0); err != nil {
			l.WarnContext(ctx, "failed to activate initial profile", "error", err)
		} else if s.profileSwitchesTotal != nil {
			s.profileSwitchesTotal.Add(ctx, 1)
		}
	}

	l.InfoContext(ctx, "Profile/slot management service started")

	<-ctx.Done()

	err = ctx.Err()
	ctx = context.WithoutCancel(ctx)
	l.InfoContext(ctx, "Stopping profile/slot management service", "reason", err)

	return err
}

func (s *ProfileSrv) initializeMetrics() error {
	if !s.config.enableMetrics {
		return nil
	}

	var err error
	s.profileSwitchesTotal, err = s.meter.Int64Counter(
		"profilesrv_profile_switches_total",
		metric.WithDescription("Total number of successful profile activations"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create profile switches counter: %w", err)
	}

	return nil
}
