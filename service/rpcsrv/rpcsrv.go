// SPDX-License-Identifier: BSD-3-Clause

// Package rpcsrv implements the external RPC surface: one NATS micro group
// per object path (Canvas, Config, Devices, Profile, Slot, Status), matching
// the grouping and span-wrapped handler style of the teacher's ledmgr and
// statemgr services. It holds direct references to halsrv, scripthostsrv,
// profilesrv, and policymgr rather than reaching them over NATS, since
// every Eruption service shares one process; NATS micro is reserved for
// this package's genuinely external-facing boundary.
package rpcsrv

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/micro"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/eruption-core/eruptiond/pkg/color"
	"github.com/eruption-core/eruptiond/pkg/compositor"
	"github.com/eruption-core/eruptiond/pkg/file"
	"github.com/eruption-core/eruptiond/pkg/hal"
	"github.com/eruption-core/eruptiond/pkg/ipc"
	"github.com/eruption-core/eruptiond/pkg/log"
	"github.com/eruption-core/eruptiond/pkg/profile"
	"github.com/eruption-core/eruptiond/pkg/rpcnotify"
	"github.com/eruption-core/eruptiond/pkg/scripthost"
	"github.com/eruption-core/eruptiond/pkg/telemetry"
	"github.com/eruption-core/eruptiond/pkg/zone"
	"github.com/eruption-core/eruptiond/service"
	"github.com/eruption-core/eruptiond/service/policymgr"
)

// Compile-time assertion that RPCSrv implements service.Service.
var _ service.Service = (*RPCSrv)(nil)

// RPCSrv owns the NATS micro service backing the Canvas/Config/Devices/
// Profile/Slot/Status object paths for the lifetime of the daemon.
type RPCSrv struct {
	config config

	registry *rpcnotify.Registry

	colorSchemesMu sync.Mutex
	colorSchemes   map[string][]string

	nc            *nats.Conn
	microService  micro.Service
	tracer        trace.Tracer
	meter         metric.Meter
	requestsTotal metric.Int64Counter

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
}

// New creates a new RPCSrv instance with the provided options. Every
// With-dependency option (WithHal, WithScriptHost, WithProfiles, WithPolicy,
// WithCanvas, WithSettings) must be set before Run.
func New(opts ...Option) *RPCSrv {
	cfg := &config{
		serviceName:        DefaultServiceName,
		serviceDescription: DefaultServiceDescription,
		serviceVersion:     DefaultServiceVersion,
		enableMetrics:      true,
	}
	for _, opt := range opts {
		opt.apply(cfg)
	}
	return &RPCSrv{
		config:       *cfg,
		registry:     rpcnotify.NewRegistry(),
		colorSchemes: make(map[string][]string),
	}
}

// Name returns the service name.
func (s *RPCSrv) Name() string {
	return s.config.serviceName
}

// Registry returns the property-change-signal registry, flushed once per
// tick by the scheduler.
func (s *RPCSrv) Registry() *rpcnotify.Registry {
	return s.registry
}

// Run registers the RPC object-path groups and blocks until ctx is canceled.
func (s *RPCSrv) Run(ctx context.Context, ipcConn nats.InProcessConnProvider) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrServiceAlreadyStarted
	}
	s.started = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	if s.config.hal == nil || s.config.scripts == nil || s.config.profiles == nil ||
		s.config.policy == nil || s.config.canvas == nil || s.config.settings == nil {
		return ErrMissingDependency
	}

	s.tracer = otel.Tracer(s.config.serviceName)
	s.meter = otel.Meter(s.config.serviceName)

	ctx, span := s.tracer.Start(ctx, "rpcsrv.Run")
	defer span.End()

	l := log.GetGlobalLogger().With("service", s.config.serviceName)
	l.InfoContext(ctx, "Starting RPC surface")

	if err := s.initializeMetrics(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	nc, err := nats.Connect("", nats.InProcessServer(ipcConn))
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: %w", ErrNATSConnectionFailed, err)
	}
	s.nc = nc
	defer nc.Drain() //nolint:errcheck

	s.microService, err = micro.AddService(nc, micro.Config{
		Name:        s.config.serviceName,
		Description: s.config.serviceDescription,
		Version:     s.config.serviceVersion,
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create micro service: %w", err)
	}

	groups := make(map[string]micro.Group)
	if err := s.registerEndpoints(ctx, groups); err != nil {
		span.RecordError(err)
		return err
	}

	s.config.hal.OnHotplug(func(info hal.DeviceInfo, connected bool) {
		s.publishHotplug(ctx, info, connected)
	})

	l.InfoContext(ctx, "RPC surface started")

	<-ctx.Done()

	err = ctx.Err()
	ctx = context.WithoutCancel(ctx)
	l.InfoContext(ctx, "Stopping RPC surface", "reason", err)

	return err
}

func (s *RPCSrv) initializeMetrics() error {
	if !s.config.enableMetrics {
		return nil
	}

	var err error
	s.requestsTotal, err = s.meter.Int64Counter(
		"rpcsrv_requests_total",
		metric.WithDescription("Total number of RPC requests handled, by subject"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create requests counter: %w", err)
	}

	return nil
}

func (s *RPCSrv) registerEndpoints(ctx context.Context, groups map[string]micro.Group) error {
	register := func(subject string, tag policymgr.PermissionTag, handler func(context.Context, micro.Request)) error {
		return ipc.RegisterEndpointWithGroupCache(s.microService, subject,
			micro.HandlerFunc(s.createRequestHandler(ctx, tag, handler)), groups)
	}

	canvasEndpoints := map[string]func(context.Context, micro.Request){
		ipc.SubjectCanvasGetZones: s.handleCanvasGetZones,
		ipc.SubjectCanvasHue:      s.handleCanvasHue,
		ipc.SubjectCanvasSat:      s.handleCanvasSat,
		ipc.SubjectCanvasLight:    s.handleCanvasLight,
	}
	for subject, h := range canvasEndpoints {
		if err := register(subject, policymgr.Monitor, h); err != nil {
			return err
		}
	}
	if err := register(ipc.SubjectCanvasSetZone, policymgr.Settings, s.handleCanvasSetZone); err != nil {
		return err
	}

	if err := register(ipc.SubjectConfigPing, policymgr.Monitor, s.handleConfigPing); err != nil {
		return err
	}
	if err := register(ipc.SubjectConfigPingPrivileged, policymgr.Settings, s.handleConfigPingPrivileged); err != nil {
		return err
	}
	if err := register(ipc.SubjectConfigWriteFile, policymgr.Manage, s.handleConfigWriteFile); err != nil {
		return err
	}
	if err := register(ipc.SubjectConfigGetColorSchemes, policymgr.Monitor, s.handleConfigGetColorSchemes); err != nil {
		return err
	}
	if err := register(ipc.SubjectConfigSetColorScheme, policymgr.Settings, s.handleConfigSetColorScheme); err != nil {
		return err
	}
	if err := register(ipc.SubjectConfigRemoveScheme, policymgr.Settings, s.handleConfigRemoveColorScheme); err != nil {
		return err
	}
	if err := register(ipc.SubjectConfigBrightness, policymgr.Settings, s.handleConfigBrightness); err != nil {
		return err
	}
	if err := register(ipc.SubjectConfigEnableSfx, policymgr.Settings, s.handleConfigEnableSfx); err != nil {
		return err
	}

	if err := register(ipc.SubjectDevicesGetManaged, policymgr.Monitor, s.handleDevicesGetManaged); err != nil {
		return err
	}
	if err := register(ipc.SubjectDevicesGetConfig, policymgr.Monitor, s.handleDevicesGetConfig); err != nil {
		return err
	}
	if err := register(ipc.SubjectDevicesSetConfig, policymgr.Settings, s.handleDevicesSetConfig); err != nil {
		return err
	}
	if err := register(ipc.SubjectDevicesGetStatus, policymgr.Monitor, s.handleDevicesGetStatus); err != nil {
		return err
	}
	if err := register(ipc.SubjectDevicesIsEnabled, policymgr.Monitor, s.handleDevicesIsEnabled); err != nil {
		return err
	}
	if err := register(ipc.SubjectDevicesSetEnabled, policymgr.Settings, s.handleDevicesSetEnabled); err != nil {
		return err
	}

	if err := register(ipc.SubjectProfileActive, policymgr.Monitor, s.handleProfileActive); err != nil {
		return err
	}
	if err := register(ipc.SubjectProfileSwitch, policymgr.Settings, s.handleProfileSwitch); err != nil {
		return err
	}
	if err := register(ipc.SubjectProfileEnum, policymgr.Monitor, s.handleProfileEnum); err != nil {
		return err
	}
	if err := register(ipc.SubjectProfileSetParam, policymgr.Settings, s.handleProfileSetParam); err != nil {
		return err
	}

	if err := register(ipc.SubjectSlotActive, policymgr.Monitor, s.handleSlotActive); err != nil {
		return err
	}
	if err := register(ipc.SubjectSlotNames, policymgr.Settings, s.handleSlotNames); err != nil {
		return err
	}
	if err := register(ipc.SubjectSlotSwitch, policymgr.Settings, s.handleSlotSwitch); err != nil {
		return err
	}
	if err := register(ipc.SubjectSlotGetProfiles, policymgr.Monitor, s.handleSlotGetProfiles); err != nil {
		return err
	}

	if err := register(ipc.SubjectStatusRunning, policymgr.Monitor, s.handleStatusRunning); err != nil {
		return err
	}
	if err := register(ipc.SubjectStatusGetLedColors, policymgr.Monitor, s.handleStatusGetLedColors); err != nil {
		return err
	}
	if err := register(ipc.SubjectStatusGetManaged, policymgr.Monitor, s.handleDevicesGetManaged); err != nil {
		return err
	}

	return nil
}

// createRequestHandler wraps a handler with span creation, a caller-identity
// authorization check, and a per-subject request counter, following the
// teacher's createRequestHandler pattern.
func (s *RPCSrv) createRequestHandler(parentCtx context.Context, tag policymgr.PermissionTag, handler func(context.Context, micro.Request)) micro.HandlerFunc {
	return func(req micro.Request) {
		ctx := telemetry.GetCtxFromReq(req)
		ctx = context.WithoutCancel(ctx)
		select {
		case <-parentCtx.Done():
			var cancel context.CancelFunc
			ctx, cancel = context.WithCancel(ctx)
			cancel()
		default:
		}

		if s.tracer != nil {
			var span trace.Span
			ctx, span = s.tracer.Start(ctx, "rpcsrv.handleRequest")
			span.SetAttributes(attribute.String("subject", req.Subject()))
			defer span.End()
		}

		if s.requestsTotal != nil {
			s.requestsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("subject", req.Subject())))
		}

		caller := callerID(req)
		if err := s.config.policy.Check(tag, caller); err != nil {
			ipc.RespondWithError(ctx, req, err, "permission check failed")
			return
		}

		handler(ctx, req) //nolint:contextcheck
	}
}

// callerID extracts the caller identity header, the subset of the NATS
// micro request headers that carries the field policymgr.Check consults.
func callerID(req micro.Request) string {
	return strings.TrimSpace(req.Headers().Get("Eruption-Caller-Id"))
}

func respondJSON(ctx context.Context, req micro.Request, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		ipc.RespondWithError(ctx, req, err, "marshaling response")
		return
	}
	if err := req.Respond(data); err != nil {
		log.GetGlobalLogger().ErrorContext(ctx, "failed to send response", "subject", req.Subject(), "error", err)
	}
}

func decodeJSON(req micro.Request, v interface{}) error {
	if len(req.Data()) == 0 {
		return nil
	}
	return json.Unmarshal(req.Data(), v)
}

func (s *RPCSrv) publishHotplug(ctx context.Context, info hal.DeviceInfo, connected bool) {
	payload := struct {
		VendorID  uint16 `json:"vendor_id"`
		ProductID uint16 `json:"product_id"`
		Connected bool   `json:"connected"`
	}{VendorID: info.VendorID, ProductID: info.ProductID, Connected: connected}

	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if err := s.nc.Publish(ipc.SubjectDevicesHotplug, data); err != nil {
		log.GetGlobalLogger().WarnContext(ctx, "failed to publish hotplug signal", "error", err)
	}
}

// --- Canvas group ---

func (s *RPCSrv) handleCanvasGetZones(ctx context.Context, req micro.Request) {
	all := s.config.hal.Zones().All()
	resp := zoneMapResponse{Zones: make([]zoneEntry, 0, len(all))}
	for handle, z := range all {
		resp.Zones = append(resp.Zones, zoneEntry{DeviceHandle: handle, X: z.X, Y: z.Y, W: z.W, H: z.H, Enabled: z.Enabled})
	}
	respondJSON(ctx, req, resp)
}

func (s *RPCSrv) handleCanvasSetZone(ctx context.Context, req micro.Request) {
	var in zoneEntry
	if err := decodeJSON(req, &in); err != nil {
		ipc.RespondWithError(ctx, req, ErrInvalidRequest, err.Error())
		return
	}
	z := zone.Zone{X: in.X, Y: in.Y, W: in.W, H: in.H, Enabled: in.Enabled}
	if err := s.config.hal.Zones().Set(in.DeviceHandle, z, s.config.canvas.Width(), s.config.canvas.Height()); err != nil {
		ipc.RespondWithError(ctx, req, err, "setting zone")
		return
	}
	respondJSON(ctx, req, in)
}

func (s *RPCSrv) handleCanvasHue(ctx context.Context, req micro.Request) {
	s.handleSettingsFloat(ctx, req, func(settings *compositor.Settings) *float64 { return &settings.HueDeg })
}

func (s *RPCSrv) handleCanvasSat(ctx context.Context, req micro.Request) {
	s.handleSettingsFloat(ctx, req, func(settings *compositor.Settings) *float64 { return &settings.SaturationX })
}

func (s *RPCSrv) handleCanvasLight(ctx context.Context, req micro.Request) {
	s.handleSettingsFloat(ctx, req, func(settings *compositor.Settings) *float64 { return &settings.LightnessOf })
}

// handleSettingsFloat implements the shared get/set-on-same-subject pattern
// for a single compositor.Settings float field, selected by field.
func (s *RPCSrv) handleSettingsFloat(ctx context.Context, req micro.Request, field func(*compositor.Settings) *float64) {
	var in floatProperty
	if err := decodeJSON(req, &in); err != nil {
		ipc.RespondWithError(ctx, req, ErrInvalidRequest, err.Error())
		return
	}

	settings := s.config.settings.Get()
	if in.Value != nil {
		*field(&settings) = *in.Value
		s.config.settings.Set(settings)
	}

	v := *field(&settings)
	respondJSON(ctx, req, floatProperty{Value: &v})
}

// --- Config group ---

func (s *RPCSrv) handleConfigPing(ctx context.Context, req micro.Request) {
	respondJSON(ctx, req, okResponse{OK: true})
}

func (s *RPCSrv) handleConfigPingPrivileged(ctx context.Context, req micro.Request) {
	respondJSON(ctx, req, okResponse{OK: true})
}

func (s *RPCSrv) handleConfigWriteFile(ctx context.Context, req micro.Request) {
	var in writeFileRequest
	if err := decodeJSON(req, &in); err != nil {
		ipc.RespondWithError(ctx, req, ErrInvalidRequest, err.Error())
		return
	}

	if s.config.profileDir == "" {
		ipc.RespondWithError(ctx, req, ErrUnsafePath, "no profile directory configured")
		return
	}

	clean := filepath.Clean(in.Path)
	if filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		ipc.RespondWithError(ctx, req, ErrUnsafePath, in.Path)
		return
	}
	target := filepath.Join(s.config.profileDir, clean)
	if !strings.HasPrefix(target, filepath.Clean(s.config.profileDir)+string(os.PathSeparator)) {
		ipc.RespondWithError(ctx, req, ErrUnsafePath, in.Path)
		return
	}

	if err := file.AtomicCreateFile(target, []byte(in.Content), 0o644); err != nil {
		ipc.RespondWithError(ctx, req, err, "writing file")
		return
	}
	respondJSON(ctx, req, okResponse{OK: true})
}

func (s *RPCSrv) handleConfigGetColorSchemes(ctx context.Context, req micro.Request) {
	s.colorSchemesMu.Lock()
	out := make(map[string][]string, len(s.colorSchemes))
	for k, v := range s.colorSchemes {
		out[k] = append([]string(nil), v...)
	}
	s.colorSchemesMu.Unlock()
	respondJSON(ctx, req, colorSchemesResponse{Schemes: out})
}

func (s *RPCSrv) handleConfigSetColorScheme(ctx context.Context, req micro.Request) {
	var in colorSchemeRequest
	if err := decodeJSON(req, &in); err != nil || in.Name == "" {
		ipc.RespondWithError(ctx, req, ErrInvalidRequest, "name and colors are required")
		return
	}
	for _, c := range in.Colors {
		if _, err := hexToColor(c); err != nil {
			ipc.RespondWithError(ctx, req, ErrInvalidRequest, err.Error())
			return
		}
	}

	s.colorSchemesMu.Lock()
	s.colorSchemes[in.Name] = append([]string(nil), in.Colors...)
	s.colorSchemesMu.Unlock()

	respondJSON(ctx, req, okResponse{OK: true})
}

func (s *RPCSrv) handleConfigRemoveColorScheme(ctx context.Context, req micro.Request) {
	var in colorSchemeRequest
	if err := decodeJSON(req, &in); err != nil || in.Name == "" {
		ipc.RespondWithError(ctx, req, ErrInvalidRequest, "name is required")
		return
	}
	s.colorSchemesMu.Lock()
	delete(s.colorSchemes, in.Name)
	s.colorSchemesMu.Unlock()
	respondJSON(ctx, req, okResponse{OK: true})
}

func (s *RPCSrv) handleConfigBrightness(ctx context.Context, req micro.Request) {
	var in intProperty
	if err := decodeJSON(req, &in); err != nil {
		ipc.RespondWithError(ctx, req, ErrInvalidRequest, err.Error())
		return
	}

	settings := s.config.settings.Get()
	if in.Value != nil {
		pct := *in.Value
		if pct < 0 {
			pct = 0
		}
		if pct > 100 {
			pct = 100
		}
		settings.Brightness = float64(pct) / 100
		s.config.settings.Set(settings)
	}

	pct := int(settings.Brightness*100 + 0.5)
	respondJSON(ctx, req, intProperty{Value: &pct})
}

func (s *RPCSrv) handleConfigEnableSfx(ctx context.Context, req micro.Request) {
	var in boolProperty
	if err := decodeJSON(req, &in); err != nil {
		ipc.RespondWithError(ctx, req, ErrInvalidRequest, err.Error())
		return
	}
	if s.config.audio == nil {
		v := false
		respondJSON(ctx, req, boolProperty{Value: &v})
		return
	}
	if in.Value != nil {
		s.config.audio.SetEnabled(*in.Value)
	}
	v := s.config.audio.Enabled()
	respondJSON(ctx, req, boolProperty{Value: &v})
}

// --- Devices group ---

func (s *RPCSrv) handleDevicesGetManaged(ctx context.Context, req micro.Request) {
	devices := s.config.hal.Table().All()
	resp := devicesManagedResponse{Devices: make([]deviceSummary, 0, len(devices))}
	for _, md := range devices {
		resp.Devices = append(resp.Devices, deviceSummary{
			Handle:    uint64(md.Handle),
			VendorID:  md.Info.VendorID,
			ProductID: md.Info.ProductID,
			State:     md.State(),
			NumLEDs:   md.Driver.NumLEDs(),
		})
	}
	respondJSON(ctx, req, resp)
}

func (s *RPCSrv) lookupDevice(ctx context.Context, req micro.Request, handle uint64) (*hal.ManagedDevice, bool) {
	md, ok := s.config.hal.Table().Get(hal.DeviceHandle(handle))
	if !ok {
		ipc.RespondWithError(ctx, req, ErrDeviceNotFound, fmt.Sprintf("handle %d", handle))
		return nil, false
	}
	return md, true
}

func (s *RPCSrv) handleDevicesGetConfig(ctx context.Context, req micro.Request) {
	var in deviceConfigRequest
	if err := decodeJSON(req, &in); err != nil {
		ipc.RespondWithError(ctx, req, ErrInvalidRequest, err.Error())
		return
	}
	md, ok := s.lookupDevice(ctx, req, in.DeviceHandle)
	if !ok {
		return
	}
	respondJSON(ctx, req, deviceConfigResponse{DeviceHandle: in.DeviceHandle, Brightness: md.Driver.GetBrightness()})
}

func (s *RPCSrv) handleDevicesSetConfig(ctx context.Context, req micro.Request) {
	var in deviceConfigRequest
	if err := decodeJSON(req, &in); err != nil {
		ipc.RespondWithError(ctx, req, ErrInvalidRequest, err.Error())
		return
	}
	md, ok := s.lookupDevice(ctx, req, in.DeviceHandle)
	if !ok {
		return
	}
	if in.Brightness != nil {
		if err := md.Driver.SetBrightness(*in.Brightness); err != nil {
			ipc.RespondWithError(ctx, req, err, "setting brightness")
			return
		}
	}
	respondJSON(ctx, req, deviceConfigResponse{DeviceHandle: in.DeviceHandle, Brightness: md.Driver.GetBrightness()})
}

func (s *RPCSrv) handleDevicesGetStatus(ctx context.Context, req micro.Request) {
	var in deviceHandleRequest
	if err := decodeJSON(req, &in); err != nil {
		ipc.RespondWithError(ctx, req, ErrInvalidRequest, err.Error())
		return
	}
	md, ok := s.lookupDevice(ctx, req, in.DeviceHandle)
	if !ok {
		return
	}
	respondJSON(ctx, req, deviceStatusResponse{DeviceHandle: in.DeviceHandle, Status: md.Driver.DeviceStatus()})
}

func (s *RPCSrv) handleDevicesIsEnabled(ctx context.Context, req micro.Request) {
	var in deviceHandleRequest
	if err := decodeJSON(req, &in); err != nil {
		ipc.RespondWithError(ctx, req, ErrInvalidRequest, err.Error())
		return
	}
	z, err := s.config.hal.Zones().Get(in.DeviceHandle)
	if err != nil {
		ipc.RespondWithError(ctx, req, err, "reading zone")
		return
	}
	respondJSON(ctx, req, deviceEnabledResponse{DeviceHandle: in.DeviceHandle, Enabled: z.Enabled})
}

func (s *RPCSrv) handleDevicesSetEnabled(ctx context.Context, req micro.Request) {
	var in deviceHandleRequest
	var body struct {
		DeviceHandle uint64 `json:"device_handle"`
		Enabled      bool   `json:"enabled"`
	}
	if err := decodeJSON(req, &body); err != nil {
		ipc.RespondWithError(ctx, req, ErrInvalidRequest, err.Error())
		return
	}
	in.DeviceHandle = body.DeviceHandle

	z, err := s.config.hal.Zones().Get(in.DeviceHandle)
	if err != nil {
		ipc.RespondWithError(ctx, req, err, "reading zone")
		return
	}
	// SetDeviceEnabled(false): the scheduler checks zone.Enabled before
	// sampling and rendering a device each tick, so the device's renderer
	// stops being invoked. No blank frame is sent, so the device keeps
	// showing the last frame it received.
	z.Enabled = body.Enabled
	if err := s.config.hal.Zones().Set(in.DeviceHandle, z, s.config.canvas.Width(), s.config.canvas.Height()); err != nil {
		ipc.RespondWithError(ctx, req, err, "setting zone")
		return
	}
	respondJSON(ctx, req, deviceEnabledResponse{DeviceHandle: in.DeviceHandle, Enabled: z.Enabled})
}

// --- Profile group ---

func toProfileInfo(p *profile.Profile) profileInfo {
	return profileInfo{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		FilePath:      p.FilePath,
		ActiveScripts: p.ActiveScripts,
	}
}

func (s *RPCSrv) handleProfileActive(ctx context.Context, req micro.Request) {
	p := s.config.profiles.Slots().ActiveProfile()
	if p == nil {
		ipc.RespondWithError(ctx, req, ErrDeviceNotFound, "no profile bound to the active slot")
		return
	}
	respondJSON(ctx, req, toProfileInfo(p))
}

func (s *RPCSrv) handleProfileSwitch(ctx context.Context, req micro.Request) {
	var in profileSwitchRequest
	if err := decodeJSON(req, &in); err != nil || in.Path == "" {
		ipc.RespondWithError(ctx, req, ErrInvalidRequest, "path is required")
		return
	}
	if err := s.config.profiles.Slots().SwitchProfile(ctx, in.Path); err != nil {
		ipc.RespondWithError(ctx, req, err, "switching profile")
		return
	}
	respondJSON(ctx, req, okResponse{OK: true})
}

func (s *RPCSrv) handleProfileEnum(ctx context.Context, req micro.Request) {
	profiles, _ := s.config.profiles.Loader().ListProfiles(filepath.Dir(activeProfilePathOrEmpty(s.config)))
	out := make([]profileInfo, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, toProfileInfo(p))
	}
	respondJSON(ctx, req, struct {
		Profiles []profileInfo `json:"profiles"`
	}{Profiles: out})
}

// activeProfilePathOrEmpty returns the active profile's file path, used only
// to recover the directory ListProfiles should rescan; empty if none is bound.
func activeProfilePathOrEmpty(cfg config) string {
	p := cfg.profiles.Slots().ActiveProfile()
	if p == nil {
		return ""
	}
	return p.FilePath
}

func (s *RPCSrv) handleProfileSetParam(ctx context.Context, req micro.Request) {
	var in profileSetParamRequest
	if err := decodeJSON(req, &in); err != nil || in.Script == "" || in.Name == "" {
		ipc.RespondWithError(ctx, req, ErrInvalidRequest, "script and name are required")
		return
	}
	p := s.config.profiles.Slots().ActiveProfile()
	if p == nil {
		ipc.RespondWithError(ctx, req, ErrDeviceNotFound, "no profile bound to the active slot")
		return
	}
	if err := s.config.profiles.Loader().SetParameter(p, in.Script, in.Name, in.Value); err != nil {
		ipc.RespondWithError(ctx, req, err, "setting parameter")
		return
	}
	// p is active: its live worker gets the effective value, else the slot reloads.
	slots := s.config.profiles.Slots()
	if w, ok := s.config.scripts.Host().Get(in.Script); ok {
		eff, err := s.config.profiles.Loader().EffectiveParameters(p, in.Script)
		if err != nil {
			ipc.RespondWithError(ctx, req, err, "resolving parameters")
			return
		}
		v := eff[in.Name]
		w.Enqueue(scripthost.Message{Kind: scripthost.MsgParameterUpdate, ParamName: in.Name, ParamValue: v.String()})
	} else if err := slots.SwitchSlot(ctx, slots.ActiveSlot()); err != nil {
		ipc.RespondWithError(ctx, req, err, "reloading active slot")
		return
	}
	respondJSON(ctx, req, okResponse{OK: true})
}

// --- Slot group ---

func (s *RPCSrv) handleSlotActive(ctx context.Context, req micro.Request) {
	respondJSON(ctx, req, slotActiveResponse{Slot: s.config.profiles.Slots().ActiveSlot()})
}

func (s *RPCSrv) handleSlotNames(ctx context.Context, req micro.Request) {
	var in slotNamesRequest
	if err := decodeJSON(req, &in); err != nil {
		ipc.RespondWithError(ctx, req, ErrInvalidRequest, err.Error())
		return
	}
	if in.Names != nil {
		if err := s.config.profiles.Slots().SetSlotNames(in.Names); err != nil {
			ipc.RespondWithError(ctx, req, err, "setting slot names")
			return
		}
	}
	names := s.config.profiles.Slots().GetSlotNames()
	respondJSON(ctx, req, slotNamesResponse{Names: names[:]})
}

func (s *RPCSrv) handleSlotSwitch(ctx context.Context, req micro.Request) {
	var in slotSwitchRequest
	if err := decodeJSON(req, &in); err != nil {
		ipc.RespondWithError(ctx, req, ErrInvalidRequest, err.Error())
		return
	}
	if err := s.config.profiles.Slots().SwitchSlot(ctx, in.Slot); err != nil {
		ipc.RespondWithError(ctx, req, err, "switching slot")
		return
	}
	respondJSON(ctx, req, slotActiveResponse{Slot: s.config.profiles.Slots().ActiveSlot()})
}

func (s *RPCSrv) handleSlotGetProfiles(ctx context.Context, req micro.Request) {
	profiles := s.config.profiles.Slots().GetSlotProfiles()
	respondJSON(ctx, req, slotProfilesResponse{Profiles: profiles[:]})
}

// --- Status group ---

func (s *RPCSrv) handleStatusRunning(ctx context.Context, req micro.Request) {
	respondJSON(ctx, req, statusRunningResponse{Running: true})
}

func (s *RPCSrv) handleStatusGetLedColors(ctx context.Context, req micro.Request) {
	pixels := s.config.canvas.Snapshot()
	colors := make([]string, len(pixels))
	for i, c := range pixels {
		colors[i] = colorToHex(c)
	}
	respondJSON(ctx, req, statusLedColorsResponse{
		Width:  s.config.canvas.Width(),
		Height: s.config.canvas.Height(),
		Colors: colors,
	})
}

// colorToHex and hexToColor mirror pkg/profile's unexported color-value
// convention (#RRGGBBAA) for the RPC wire format.

func colorToHex(c color.Color) string {
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

func hexToColor(s string) (color.Color, error) {
	v, err := profile.ParseValue(profile.KindColor, s)
	if err != nil {
		return color.Color{}, err
	}
	return v.Color, nil
}
