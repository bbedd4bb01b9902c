// SPDX-License-Identifier: BSD-3-Clause

package eruptiond

import (
	"log/slog"
	"time"

	"github.com/eruption-core/eruptiond/pkg/audiobridge"
	"github.com/eruption-core/eruptiond/pkg/canvas"
	"github.com/eruption-core/eruptiond/pkg/compositor"
	"github.com/eruption-core/eruptiond/pkg/rpcnotify"
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

// DefaultCanvasWidth/Height size the shared canvas every script, the
// compositor, the scheduler, and rpcsrv's Status group all read and write.
// It must match scripthostsrv's own per-script frame size.
const (
	DefaultCanvasWidth  = scripthostsrv.DefaultCanvasWidth
	DefaultCanvasHeight = scripthostsrv.DefaultCanvasHeight
)

type config struct {
	name        string
	id          string
	disableLogo bool
	customLogo  string
	otelSetup   func()
	logger      *slog.Logger
	timeout     time.Duration

	canvasWidth  int
	canvasHeight int

	// IPC service needs special handling
	ipc *ipc.IPC

	// Shared cross-service state, wired into Rpcsrv and Scheduler once every
	// option has been applied. None of these implement service.Service, so
	// the orchestrator's reflection-based discovery skips them.
	canvas   *canvas.Canvas
	settings *compositor.SettingsStore
	notify   *rpcnotify.Registry
	audio    *audiobridge.Bridge

	halsrvOpts        []halsrv.Option
	scripthostsrvOpts []scripthostsrv.Option
	profilesrvOpts    []profilesrv.Option
	rpcsrvOpts        []rpcsrv.Option
	schedulerOpts     []scheduler.Option
	policymgrOpts     []policymgr.Option
	statussrvOpts     []statussrv.Option
	audioOpts         []audiobridge.Option

	// Everything of type service.Service needs to be exported so the
	// orchestrator can discover it by reflection.
	Halsrv        *halsrv.HalSrv
	Scripthostsrv *scripthostsrv.ScriptHostSrv
	Profilesrv    *profilesrv.ProfileSrv
	Rpcsrv        *rpcsrv.RPCSrv
	Scheduler     *scheduler.Scheduler
	Policymgr     *policymgr.PolicyMgr
	Statussrv     *statussrv.StatusSrv
	AudioSrv      *audioBridgeService

	extraServices []service.Service
}

type Option interface {
	apply(*config)
}

type nameOption struct {
	name string
}

func (o *nameOption) apply(c *config) {
	c.name = o.name
}

// WithName sets the name for the daemon configuration.
func WithName(name string) Option {
	return &nameOption{
		name: name,
	}
}

type idOption struct {
	id string
}

func (o *idOption) apply(c *config) {
	c.id = o.id
}

// WithID sets the unique identifier for the daemon configuration.
func WithID(id string) Option {
	return &idOption{
		id: id,
	}
}

type disableLogoOption struct {
	disableLogo bool
}

func (o *disableLogoOption) apply(c *config) {
	c.disableLogo = o.disableLogo
}

// WithDisableLogo controls whether the logo display is disabled.
// When set to true, the logo will not be shown during startup.
func WithDisableLogo(disableLogo bool) Option {
	return &disableLogoOption{
		disableLogo: disableLogo,
	}
}

type customLogoOption struct {
	customLogo string
}

func (o *customLogoOption) apply(c *config) {
	c.customLogo = o.customLogo
}

// WithCustomLogo sets a custom logo to be displayed instead of the default logo.
func WithCustomLogo(customLogo string) Option {
	return &customLogoOption{
		customLogo: customLogo,
	}
}

type otelSetupOption struct {
	otelSetup func()
}

func (o *otelSetupOption) apply(c *config) {
	c.otelSetup = o.otelSetup
}

// WithOtelSetup overrides the function called during startup to configure telemetry.
func WithOtelSetup(otelSetup func()) Option {
	return &otelSetupOption{
		otelSetup: otelSetup,
	}
}

type loggerOption struct {
	logger *slog.Logger
}

func (o *loggerOption) apply(c *config) {
	c.logger = o.logger
}

// WithLogger sets a custom structured logger for the daemon.
// If not provided, a default logger will be used.
func WithLogger(logger *slog.Logger) Option {
	return &loggerOption{
		logger: logger,
	}
}

type timeoutOption struct {
	timeout time.Duration
}

func (o *timeoutOption) apply(c *config) {
	c.timeout = o.timeout
}

// WithTimeout sets the timeout duration for supervised service startup/shutdown.
func WithTimeout(timeout time.Duration) Option {
	return &timeoutOption{
		timeout: timeout,
	}
}

type canvasDimensionsOption struct {
	w, h int
}

func (o *canvasDimensionsOption) apply(c *config) {
	c.canvasWidth, c.canvasHeight = o.w, o.h
}

// WithCanvasDimensions sets the shared canvas size every script, the
// compositor, the scheduler, and rpcsrv's Status group read and write.
func WithCanvasDimensions(w, h int) Option {
	return &canvasDimensionsOption{w: w, h: h}
}

type ipcOption struct {
	ipc *ipc.IPC
}

func (o *ipcOption) apply(c *config) {
	c.ipc = o.ipc
}

// WithIPC configures the embedded NATS transport with the provided options.
// This service carries the NATS traffic of rpcsrv's external RPC surface;
// the in-process services call each other directly.
func WithIPC(opts ...ipc.Option) Option {
	return &ipcOption{
		ipc: ipc.New(opts...),
	}
}

type halsrvOption struct {
	opts []halsrv.Option
}

func (o *halsrvOption) apply(c *config) {
	c.halsrvOpts = o.opts
}

// WithHalsrv configures the hardware abstraction service with the provided options.
// This service owns device enumeration, hotplug detection, and per-device I/O.
func WithHalsrv(opts ...halsrv.Option) Option {
	return &halsrvOption{opts: opts}
}

type scripthostsrvOption struct {
	opts []scripthostsrv.Option
}

func (o *scripthostsrvOption) apply(c *config) {
	c.scripthostsrvOpts = o.opts
}

// WithScripthostsrv configures the sandboxed scripting host service.
// This service runs effect scripts in goja workers.
func WithScripthostsrv(opts ...scripthostsrv.Option) Option {
	return &scripthostsrvOption{opts: opts}
}

type profilesrvOption struct {
	opts []profilesrv.Option
}

func (o *profilesrvOption) apply(c *config) {
	c.profilesrvOpts = o.opts
}

// WithProfilesrv configures the profile and slot management service with the provided options.
// This service loads manifests/profiles from disk and tracks slot assignment.
func WithProfilesrv(opts ...profilesrv.Option) Option {
	return &profilesrvOption{opts: opts}
}

type rpcsrvOption struct {
	opts []rpcsrv.Option
}

func (o *rpcsrvOption) apply(c *config) {
	c.rpcsrvOpts = o.opts
}

// WithRpcsrv configures the external control surface service with the provided options.
// This service exposes the canvas/config/devices/profile/slot/status RPC subjects over NATS.
func WithRpcsrv(opts ...rpcsrv.Option) Option {
	return &rpcsrvOption{opts: opts}
}

type schedulerOption struct {
	opts []scheduler.Option
}

func (o *schedulerOption) apply(c *config) {
	c.schedulerOpts = o.opts
}

// WithScheduler configures the main render scheduler service with the provided options.
// This service drives the compositor tick loop and pushes frames to the HAL.
func WithScheduler(opts ...scheduler.Option) Option {
	return &schedulerOption{opts: opts}
}

type policymgrOption struct {
	opts []policymgr.Option
}

func (o *policymgrOption) apply(c *config) {
	c.policymgrOpts = o.opts
}

// WithPolicymgr configures the RPC authorization policy service with the provided options.
// This service decides whether a caller may monitor, configure, or manage the daemon.
func WithPolicymgr(opts ...policymgr.Option) Option {
	return &policymgrOption{opts: opts}
}

type statussrvOption struct {
	opts []statussrv.Option
}

func (o *statussrvOption) apply(c *config) {
	c.statussrvOpts = o.opts
}

// WithStatussrv configures the status HTTP service with the provided options.
// This service exposes a loopback endpoint for health checks.
func WithStatussrv(opts ...statussrv.Option) Option {
	return &statussrvOption{opts: opts}
}

type audioOption struct {
	opts []audiobridge.Option
}

func (o *audioOption) apply(c *config) {
	c.audioOpts = o.opts
}

// WithAudioBridge configures the PCM-frame audio bridge consumed by
// audio-reactive scripts and exposed through rpcsrv's enable_sfx property.
func WithAudioBridge(opts ...audiobridge.Option) Option {
	return &audioOption{opts: opts}
}

type servicesOption struct {
	services []service.Service
}

func (o *servicesOption) apply(c *config) {
	c.extraServices = o.services
}

// WithExtraServices adds additional custom services to the daemon configuration.
// These services will be managed alongside the standard Eruption services.
func WithExtraServices(services ...service.Service) Option {
	return &servicesOption{
		services: services,
	}
}
