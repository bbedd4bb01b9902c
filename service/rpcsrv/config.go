// SPDX-License-Identifier: BSD-3-Clause

package rpcsrv

import (
	"github.com/eruption-core/eruptiond/pkg/audiobridge"
	"github.com/eruption-core/eruptiond/pkg/canvas"
	"github.com/eruption-core/eruptiond/pkg/compositor"
	"github.com/eruption-core/eruptiond/service/halsrv"
	"github.com/eruption-core/eruptiond/service/policymgr"
	"github.com/eruption-core/eruptiond/service/profilesrv"
	"github.com/eruption-core/eruptiond/service/scripthostsrv"
)

// config holds the configuration and cross-service dependencies for the RPC
// object-path surface.
type config struct {
	serviceName        string
	serviceDescription string
	serviceVersion     string

	profileDir string

	enableMetrics bool

	hal      *halsrv.HalSrv
	scripts  *scripthostsrv.ScriptHostSrv
	profiles *profilesrv.ProfileSrv
	policy   *policymgr.PolicyMgr
	canvas   *canvas.Canvas
	settings *compositor.SettingsStore
	audio    *audiobridge.Bridge
}

const (
	DefaultServiceName        = "rpcsrv"
	DefaultServiceDescription = "External RPC object-path surface (Canvas, Config, Devices, Profile, Slot, Status)"
	DefaultServiceVersion     = "0.1.0"
)

// Option configures the RPC service.
type Option interface {
	apply(*config)
}

type optionFunc func(*config)

func (f optionFunc) apply(c *config) { f(c) }

// WithServiceName sets the service name used for supervision and logging.
func WithServiceName(name string) Option {
	return optionFunc(func(c *config) { c.serviceName = name })
}

// WithProfileDir restricts write_file targets to this directory.
func WithProfileDir(dir string) Option {
	return optionFunc(func(c *config) { c.profileDir = dir })
}

// WithMetrics controls whether OTel metrics are registered. Enabled by default.
func WithMetrics(enabled bool) Option {
	return optionFunc(func(c *config) { c.enableMetrics = enabled })
}

// WithHal wires the hardware abstraction service the Devices/Canvas groups
// read and mutate directly.
func WithHal(h *halsrv.HalSrv) Option {
	return optionFunc(func(c *config) { c.hal = h })
}

// WithScriptHost wires the script host service the Profile.SetParameter
// handler forwards parameter updates to.
func WithScriptHost(s *scripthostsrv.ScriptHostSrv) Option {
	return optionFunc(func(c *config) { c.scripts = s })
}

// WithProfiles wires the profile/slot management service the Profile and
// Slot groups delegate to.
func WithProfiles(p *profilesrv.ProfileSrv) Option {
	return optionFunc(func(c *config) { c.profiles = p })
}

// WithPolicy wires the authorization policy every Settings/Manage-tagged
// handler consults before mutating state.
func WithPolicy(p *policymgr.PolicyMgr) Option {
	return optionFunc(func(c *config) { c.policy = p })
}

// WithCanvas wires the shared canvas the Status group reads back and the
// Canvas group's zone handlers validate allocations against.
func WithCanvas(cv *canvas.Canvas) Option {
	return optionFunc(func(c *config) { c.canvas = cv })
}

// WithSettings wires the shared compositor settings (hue/saturation/
// lightness/brightness) the Canvas and Config groups expose as properties.
// The scheduler reads the same pointer every tick, so changes here take
// effect on the very next composite pass.
func WithSettings(s *compositor.SettingsStore) Option {
	return optionFunc(func(c *config) { c.settings = s })
}

// WithAudioBridge wires the audio proxy bridge the Config group's
// enable_sfx property toggles.
func WithAudioBridge(b *audiobridge.Bridge) Option {
	return optionFunc(func(c *config) { c.audio = b })
}
