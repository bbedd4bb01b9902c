// SPDX-License-Identifier: BSD-3-Clause

// Package policymgr implements the authorization policy consulted by the RPC
// surface before dispatching a mutating method. Every mutating method on the
// Canvas/Config/Devices/Profile/Slot object paths carries a permission tag in
// {Monitor, Settings, Manage}; PolicyMgr is the single place that decides
// whether a given caller identity satisfies that tag.
package policymgr

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/eruption-core/eruptiond/pkg/log"
	"github.com/eruption-core/eruptiond/service"
)

// Compile-time assertion that PolicyMgr implements service.Service.
var _ service.Service = (*PolicyMgr)(nil)

// PolicyMgr evaluates RPC authorization decisions for the rest of the daemon.
// It carries no network surface of its own; rpcsrv holds a direct reference
// and calls Check before dispatching a Settings- or Manage-tagged method.
type PolicyMgr struct {
	config config
}

// New creates a new PolicyMgr instance with the provided options.
func New(opts ...Option) *PolicyMgr {
	cfg := &config{
		name:     "policymgr",
		managers: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt.apply(cfg)
	}
	return &PolicyMgr{
		config: *cfg,
	}
}

func (s *PolicyMgr) Name() string {
	return s.config.name
}

// Check evaluates whether callerID may invoke a method tagged with tag. It is
// safe to call concurrently; the manager set is fixed after construction.
func (s *PolicyMgr) Check(tag PermissionTag, callerID string) error {
	return s.config.Check(tag, callerID)
}

func (s *PolicyMgr) Run(ctx context.Context, ipcConn nats.InProcessConnProvider) error {
	l := log.GetGlobalLogger()

	l.InfoContext(ctx, "Starting authorization policy manager", "service", s.config.name)

	<-ctx.Done()
	l.InfoContext(ctx, "Stopping authorization policy manager", "service", s.config.name, "reason", ctx.Err())

	return ctx.Err()
}
