// SPDX-License-Identifier: BSD-3-Clause

// Package statussrv exposes a loopback-only HTTP healthz/statusz endpoint.
// It carries no authentication of its own and must never be bound off the
// loopback interface; it has no NATS surface and reports only whether the
// daemon process itself is up, not per-device health (that lives behind
// the Devices RPC group in service/rpcsrv).
package statussrv

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/eruption-core/eruptiond/pkg/log"
	"github.com/eruption-core/eruptiond/service"
)

// Compile-time assertion that StatusSrv implements service.Service.
var _ service.Service = (*StatusSrv)(nil)

// StatusSrv serves /healthz and /statusz on a loopback listener.
type StatusSrv struct {
	config config

	mu        sync.Mutex
	started   bool
	startedAt time.Time
}

// New creates a new StatusSrv instance with the provided options.
func New(opts ...Option) *StatusSrv {
	cfg := &config{
		serviceName:  DefaultServiceName,
		addr:         DefaultAddr,
		readTimeout:  DefaultReadTimeout,
		writeTimeout: DefaultWriteTimeout,
		idleTimeout:  DefaultIdleTimeout,
	}
	for _, opt := range opts {
		opt.apply(cfg)
	}
	return &StatusSrv{config: *cfg}
}

// Name returns the service name.
func (s *StatusSrv) Name() string {
	return s.config.serviceName
}

// Run starts the HTTP server and blocks until the context is canceled.
func (s *StatusSrv) Run(ctx context.Context, _ nats.InProcessConnProvider) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrServiceAlreadyStarted
	}
	s.started = true
	s.startedAt = time.Now()
	s.mu.Unlock()

	l := log.GetGlobalLogger().With("service", s.config.serviceName)
	l.InfoContext(ctx, "Starting status server", "addr", s.config.addr)

	lc := &net.ListenConfig{}
	listener, err := lc.Listen(ctx, "tcp", s.config.addr)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCreateListener, err)
	}
	defer listener.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/statusz", s.handleStatusz)

	httpServer := &http.Server{
		Handler:      mux,
		BaseContext:  func(net.Listener) context.Context { return ctx },
		ReadTimeout:  s.config.readTimeout,
		WriteTimeout: s.config.writeTimeout,
		IdleTimeout:  s.config.idleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			serveErr <- fmt.Errorf("%w: %w", ErrHTTPServer, err)
			return
		}
		serveErr <- nil
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		l.WarnContext(shutdownCtx, "Error shutting down status server", "error", err)
	}

	l.InfoContext(context.WithoutCancel(ctx), "Stopping status server")
	return ctx.Err()
}

type healthzResponse struct {
	OK bool `json:"ok"`
}

func (s *StatusSrv) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(healthzResponse{OK: true})
}

type statuszResponse struct {
	UptimeSeconds float64 `json:"uptime_seconds"`
}

func (s *StatusSrv) handleStatusz(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	startedAt := s.startedAt
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(statuszResponse{UptimeSeconds: time.Since(startedAt).Seconds()})
}
