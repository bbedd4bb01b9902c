// SPDX-License-Identifier: BSD-3-Clause

package policymgr

// config holds the configuration for the authorization policy service.
type config struct {
	name string
	// allowAnonymousSettings permits Settings-tagged calls without a caller
	// identity attached. Manage-tagged calls always require identity.
	allowAnonymousSettings bool
	// managers is the set of caller identities allowed to invoke
	// Manage-tagged methods. An empty set means Manage is refused entirely.
	managers map[string]struct{}
}

// Option represents a configuration option for the authorization policy service.
type Option interface {
	apply(*config)
}

type nameOption struct {
	name string
}

func (o *nameOption) apply(c *config) {
	c.name = o.name
}

// WithServiceName sets the service name used for supervision and logging.
func WithServiceName(name string) Option {
	return &nameOption{
		name: name,
	}
}

type allowAnonymousSettingsOption struct {
	allow bool
}

func (o *allowAnonymousSettingsOption) apply(c *config) {
	c.allowAnonymousSettings = o.allow
}

// WithAllowAnonymousSettings controls whether Settings-tagged RPC methods may
// be invoked without a caller identity. Disabled by default.
func WithAllowAnonymousSettings(allow bool) Option {
	return &allowAnonymousSettingsOption{
		allow: allow,
	}
}

type managersOption struct {
	managers []string
}

func (o *managersOption) apply(c *config) {
	for _, m := range o.managers {
		c.managers[m] = struct{}{}
	}
}

// WithManagers adds caller identities allowed to invoke Manage-tagged methods.
func WithManagers(identities ...string) Option {
	return &managersOption{
		managers: identities,
	}
}
