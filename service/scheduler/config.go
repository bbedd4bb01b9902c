// SPDX-License-Identifier: BSD-3-Clause

package scheduler

import (
	"time"

	"github.com/eruption-core/eruptiond/pkg/canvas"
	"github.com/eruption-core/eruptiond/pkg/compositor"
	"github.com/eruption-core/eruptiond/pkg/rpcnotify"
	"github.com/eruption-core/eruptiond/service/halsrv"
	"github.com/eruption-core/eruptiond/service/scripthostsrv"
)

// config holds the configuration and cross-service dependencies for the
// main tick scheduler.
type config struct {
	serviceName        string
	serviceDescription string
	serviceVersion     string

	tickInterval time.Duration

	enableMetrics bool

	scripts  *scripthostsrv.ScriptHostSrv
	hal      *halsrv.HalSrv
	canvas   *canvas.Canvas
	settings *compositor.SettingsStore
	notify   *rpcnotify.Registry
}

const (
	DefaultServiceName        = "scheduler"
	DefaultServiceDescription = "Tick-driven script-to-canvas composition and per-device rendering"
	DefaultServiceVersion     = "0.1.0"

	// DefaultTickInterval matches the ~30 FPS render rate the original
	// daemon targets.
	DefaultTickInterval = 33 * time.Millisecond
)

// Option configures the scheduler.
type Option interface {
	apply(*config)
}

type optionFunc func(*config)

func (f optionFunc) apply(c *config) { f(c) }

// WithServiceName sets the service name used for supervision and logging.
func WithServiceName(name string) Option {
	return optionFunc(func(c *config) { c.serviceName = name })
}

// WithTickInterval sets the render tick period. Defaults to DefaultTickInterval.
func WithTickInterval(d time.Duration) Option {
	return optionFunc(func(c *config) { c.tickInterval = d })
}

// WithMetrics controls whether OTel metrics are registered. Enabled by default.
func WithMetrics(enabled bool) Option {
	return optionFunc(func(c *config) { c.enableMetrics = enabled })
}

// WithScriptHost wires the script host the scheduler ticks and reads frames from.
func WithScriptHost(s *scripthostsrv.ScriptHostSrv) Option {
	return optionFunc(func(c *config) { c.scripts = s })
}

// WithHal wires the hardware abstraction service the scheduler renders to.
func WithHal(h *halsrv.HalSrv) Option {
	return optionFunc(func(c *config) { c.hal = h })
}

// WithCanvas wires the shared canvas the scheduler composes into every tick.
func WithCanvas(cv *canvas.Canvas) Option {
	return optionFunc(func(c *config) { c.canvas = cv })
}

// WithSettings wires the shared compositor settings read once per tick.
func WithSettings(s *compositor.SettingsStore) Option {
	return optionFunc(func(c *config) { c.settings = s })
}

// WithNotifyRegistry wires the property-change-signal registry flushed once
// per tick, after composition, so RPC-surface mutations made during the
// previous tick are published at most once.
func WithNotifyRegistry(r *rpcnotify.Registry) Option {
	return optionFunc(func(c *config) { c.notify = r })
}
