// SPDX-License-Identifier: BSD-3-Clause

package profilesrv

import "time"

// config holds the configuration for the profile/slot management service.
type config struct {
	serviceName        string
	serviceDescription string
	serviceVersion     string

	profileDir    string
	scriptDir     string
	namesPath     string
	switchTimeout time.Duration

	enableMetrics bool
}

const (
	DefaultServiceName        = "profilesrv"
	DefaultServiceDescription = "Profile/manifest loading, parameter persistence, and slot assignment"
	DefaultServiceVersion     = "0.1.0"

	DefaultProfileDir    = "/var/lib/eruptiond/profiles"
	DefaultScriptDir     = "/var/lib/eruptiond/scripts"
	DefaultNamesPath     = "/var/lib/eruptiond/slot_names"
	DefaultSwitchTimeout = 5 * time.Second
)

// Option represents a configuration option for the profile/slot service.
type Option interface {
	apply(*config)
}

type optionFunc func(*config)

func (f optionFunc) apply(c *config) { f(c) }

// WithServiceName sets the service name used for supervision and logging.
func WithServiceName(name string) Option {
	return optionFunc(func(c *config) { c.serviceName = name })
}

// WithProfileDir sets the directory scanned for *.profile files.
func WithProfileDir(dir string) Option {
	return optionFunc(func(c *config) { c.profileDir = dir })
}

// WithScriptDir sets the directory scripts named in active_scripts are
// resolved against.
func WithScriptDir(dir string) Option {
	return optionFunc(func(c *config) { c.scriptDir = dir })
}

// WithNamesPath sets the file slot names are persisted to.
func WithNamesPath(path string) Option {
	return optionFunc(func(c *config) { c.namesPath = path })
}

// WithSwitchTimeout bounds how long a slot switch waits for outgoing
// scripts to unload before giving up.
func WithSwitchTimeout(d time.Duration) Option {
	return optionFunc(func(c *config) { c.switchTimeout = d })
}

// WithMetrics controls whether OTel metrics are registered. Enabled by default.
func WithMetrics(enabled bool) Option {
	return optionFunc(func(c *config) { c.enableMetrics = enabled })
}
