// SPDX-License-Identifier: BSD-3-Clause

package ipc

import (
	"time"

	"github.com/nats-io/nats-server/v2/server"
)

// config holds the configuration for the embedded NATS server.
type config struct {
	serviceName        string
	serviceDescription string
	serviceVersion     string

	serverName string
	storeDir   string

	enableJetStream bool
	dontListen      bool

	maxMemory  int64
	maxStorage int64

	startupTimeout  time.Duration
	shutdownTimeout time.Duration

	maxConnections int
	maxControlLine int32
	maxPayload     int32

	writeDeadline time.Duration
	pingInterval  time.Duration
	maxPingsOut   int

	enableSlowConsumerDetection bool
	slowConsumerThreshold       time.Duration

	// serverOpts, when set via WithServerOpts, is used verbatim instead of
	// the fields above and takes precedence in ToServerOptions.
	serverOpts *server.Options
}

const (
	DefaultServiceName        = "ipc"
	DefaultServiceDescription = "Embedded NATS server providing the in-process message bus"
	DefaultServiceVersion     = "0.1.0"

	DefaultServerName = "eruptiond"
	DefaultStoreDir   = "/var/lib/eruptiond/ipc"

	DefaultMaxMemory  int64 = 64 * 1024 * 1024
	DefaultMaxStorage int64 = 256 * 1024 * 1024

	DefaultStartupTimeout  = 5 * time.Second
	DefaultShutdownTimeout = 5 * time.Second
)

// Option configures the embedded NATS server.
type Option interface {
	apply(*config)
}

type optionFunc func(*config)

func (f optionFunc) apply(c *config) { f(c) }

// WithServiceName sets the service name used for supervision and logging.
func WithServiceName(name string) Option {
	return optionFunc(func(c *config) { c.serviceName = name })
}

// WithServerName sets the NATS server's advertised name.
func WithServerName(name string) Option {
	return optionFunc(func(c *config) { c.serverName = name })
}

// WithStoreDir sets the JetStream storage directory.
func WithStoreDir(dir string) Option {
	return optionFunc(func(c *config) { c.storeDir = dir })
}

// WithJetStream enables or disables JetStream persistence. Enabled by default.
func WithJetStream(enabled bool) Option {
	return optionFunc(func(c *config) { c.enableJetStream = enabled })
}

// WithMaxMemory sets the JetStream in-memory storage limit, in bytes.
func WithMaxMemory(bytes int64) Option {
	return optionFunc(func(c *config) { c.maxMemory = bytes })
}

// WithMaxStorage sets the JetStream file storage limit, in bytes.
func WithMaxStorage(bytes int64) Option {
	return optionFunc(func(c *config) { c.maxStorage = bytes })
}

// WithStartupTimeout bounds how long Run waits for the server to become
// ready for connections.
func WithStartupTimeout(d time.Duration) Option {
	return optionFunc(func(c *config) { c.startupTimeout = d })
}

// WithShutdownTimeout bounds how long graceful shutdown waits before the
// server is forced down.
func WithShutdownTimeout(d time.Duration) Option {
	return optionFunc(func(c *config) { c.shutdownTimeout = d })
}

// WithMaxConnections caps concurrent client connections; 0 means unlimited.
func WithMaxConnections(n int) Option {
	return optionFunc(func(c *config) { c.maxConnections = n })
}

// WithServerOpts overrides every field above with a caller-supplied
// *server.Options, used verbatim by ToServerOptions.
func WithServerOpts(opts *server.Options) Option {
	return optionFunc(func(c *config) { c.serverOpts = opts })
}

// Validate checks the configuration for internally inconsistent values.
func (c *config) Validate() error {
	if c.serviceName == "" {
		return ErrInvalidServerName
	}
	if c.startupTimeout <= 0 || c.shutdownTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.maxConnections < 0 {
		return ErrInvalidConfiguration
	}
	return nil
}

// ToServerOptions builds the nats-server options this configuration
// describes, or returns the caller-supplied override from WithServerOpts.
func (c *config) ToServerOptions() *server.Options {
	if c.serverOpts != nil {
		return c.serverOpts
	}

	return &server.Options{
		ServerName:            c.serverName,
		DontListen:            c.dontListen,
		JetStream:             c.enableJetStream,
		StoreDir:              c.storeDir,
		JetStreamMaxMemory:    c.maxMemory,
		JetStreamMaxStore:     c.maxStorage,
		MaxConn:               c.maxConnections,
		MaxControlLine:        c.maxControlLine,
		MaxPayload:            c.maxPayload,
		WriteDeadline:         c.writeDeadline,
		PingInterval:          c.pingInterval,
		MaxPingsOut:           c.maxPingsOut,
		NoLog:                 true,
		NoSigs:                true,
	}
}
