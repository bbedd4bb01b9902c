// SPDX-License-Identifier: BSD-3-Clause

package statussrv

import "time"

type config struct {
	serviceName string

	addr string

	readTimeout  time.Duration
	writeTimeout time.Duration
	idleTimeout  time.Duration
}

const (
	// DefaultServiceName is the name used for supervision and logging.
	DefaultServiceName = "statussrv"

	// DefaultAddr binds to loopback only: this endpoint carries no
	// authentication of its own, so it must never be reachable off-host.
	DefaultAddr = "127.0.0.1:8585"

	DefaultReadTimeout  = 5 * time.Second
	DefaultWriteTimeout = 5 * time.Second
	DefaultIdleTimeout  = 60 * time.Second
)

// Option configures the status server.
type Option interface {
	apply(*config)
}

type optionFunc func(*config)

func (f optionFunc) apply(c *config) { f(c) }

// WithServiceName sets the service name used for supervision and logging.
func WithServiceName(name string) Option {
	return optionFunc(func(c *config) { c.serviceName = name })
}

// WithAddr sets the listen address. Defaults to loopback-only.
func WithAddr(addr string) Option {
	return optionFunc(func(c *config) { c.addr = addr })
}
