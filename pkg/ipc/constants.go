// SPDX-License-Identifier: BSD-3-Clause

package ipc

import (
	"fmt"
	"strings"

	"github.com/nats-io/nats.go/micro"
)

// IPC Subject Constants for NATS Micro Services
// These constants define all the subjects used for inter-process communication.
// Services should use these constants rather than constructing subjects dynamically.

// Canvas object subjects (device zone layout and global HSL adjustment).
const (
	SubjectCanvasGetZones = "canvas.get_zones"
	SubjectCanvasSetZone  = "canvas.set_zone"
	SubjectCanvasHue      = "canvas.hue"
	SubjectCanvasSat      = "canvas.saturation"
	SubjectCanvasLight    = "canvas.lightness"
)

// Config object subjects (brightness, SFX toggle, color schemes, file writes).
const (
	SubjectConfigPing            = "config.ping"
	SubjectConfigPingPrivileged  = "config.ping_privileged"
	SubjectConfigWriteFile       = "config.write_file"
	SubjectConfigGetColorSchemes = "config.get_color_schemes"
	SubjectConfigSetColorScheme  = "config.set_color_scheme"
	SubjectConfigRemoveScheme    = "config.remove_color_scheme"
	SubjectConfigBrightness      = "config.brightness"
	SubjectConfigEnableSfx       = "config.enable_sfx"
)

// Devices object subjects (enumeration, per-device config, status, hotplug).
const (
	SubjectDevicesGetManaged   = "devices.get_managed"
	SubjectDevicesGetConfig    = "devices.get_config"
	SubjectDevicesSetConfig    = "devices.set_config"
	SubjectDevicesGetStatus    = "devices.get_status"
	SubjectDevicesIsEnabled    = "devices.is_enabled"
	SubjectDevicesSetEnabled   = "devices.set_enabled"
	SubjectDevicesHotplug      = "devices.hotplug"
	SubjectDevicesStatusChange = "devices.status_changed"
)

// Profile object subjects (active profile, enumeration, parameter overrides).
const (
	SubjectProfileActive        = "profile.active"
	SubjectProfileSwitch        = "profile.switch"
	SubjectProfileEnum          = "profile.enum"
	SubjectProfileSetParam      = "profile.set_parameter"
	SubjectProfileChanged       = "profile.changed"
	SubjectProfileActiveChanged = "profile.active_changed"
)

// Slot object subjects (active slot, slot names, profile assignments).
const (
	SubjectSlotActive        = "slot.active"
	SubjectSlotNames         = "slot.names"
	SubjectSlotSwitch        = "slot.switch"
	SubjectSlotGetProfiles   = "slot.get_profiles"
	SubjectSlotActiveChanged = "slot.active_changed"
)

// Status object subjects (running state, rendered canvas readback).
const (
	SubjectStatusRunning        = "status.running"
	SubjectStatusGetLedColors   = "status.get_led_colors"
	SubjectStatusGetManaged     = "status.get_managed_devices"
	SubjectStatusPropertyChange = "status.property_changed"
)

// Internal IPC subjects (scheduler/event-router/HAL coordination, not part of
// the external RPC surface).
const (
	InternalTick              = "internal.tick"
	InternalFrameReady        = "internal.frame_ready"
	InternalDeviceHotplug     = "internal.devices.hotplug"
	InternalScriptFault       = "internal.scripthost.fault"
	InternalProfileActivated  = "internal.profile.activated"
	InternalEventRouterNotify = "internal.eventrouter.notify"
)

// Queue Groups for Load Balancing
const (
	QueueGroupCanvas     = "rpcsrv.canvas"
	QueueGroupConfig     = "rpcsrv.config"
	QueueGroupDevices    = "rpcsrv.devices"
	QueueGroupProfile    = "rpcsrv.profile"
	QueueGroupSlot       = "rpcsrv.slot"
	QueueGroupStatus     = "rpcsrv.status"
	QueueGroupHal        = "halsrv"
	QueueGroupScripthost = "scripthostsrv"
	QueueGroupProfilesrv = "profilesrv"
)

// Default Timeouts (in milliseconds)
const (
	DefaultRequestTimeout  = 30000 // 30 seconds
	DefaultCommandTimeout  = 60000 // 60 seconds
	DefaultStreamTimeout   = 5000  // 5 seconds
	DefaultResponseTimeout = 10000 // 10 seconds
)

// Error Response Subjects
const (
	SubjectErrorResponse   = "error.response"
	SubjectTimeoutResponse = "timeout.response"
	SubjectInvalidRequest  = "invalid.request"
	SubjectUnauthorized    = "unauthorized.request"
	SubjectNotFound        = "not.found"
	SubjectInternalError   = "internal.error"
)

// IPC Error Constants
var (
	// Request/Response errors
	ErrMissingRequiredField = NewIPCError("MISSING_REQUIRED_FIELD", "missing required field")
	ErrMarshalingFailed     = NewIPCError("MARSHALING_FAILED", "marshaling failed")
	ErrUnmarshalingFailed   = NewIPCError("UNMARSHALING_FAILED", "unmarshaling failed")
	ErrResponseTimeout      = NewIPCError("RESPONSE_TIMEOUT", "response timeout")

	// Component errors
	ErrComponentNotFound     = NewIPCError("COMPONENT_NOT_FOUND", "component not found")
	ErrInvalidTrigger        = NewIPCError("INVALID_TRIGGER", "invalid trigger")
	ErrStateTransitionFailed = NewIPCError("STATE_TRANSITION_FAILED", "state transition failed")

	// Service errors
	ErrInternalError = NewIPCError("INTERNAL_ERROR", "internal error")
)

// IPCError represents a structured IPC error
type IPCError struct {
	Code    string
	Message string
}

func (e *IPCError) Error() string {
	return e.Message
}

// NewIPCError creates a new IPC error
func NewIPCError(code, message string) *IPCError {
	return &IPCError{
		Code:    code,
		Message: message,
	}
}

// ParseSubject splits a subject into group and endpoint components for NATS micro registration.
// For subjects like "canvas.get_zones", it returns group="canvas" and endpoint="get_zones".
// Returns an error if the subject doesn't contain exactly one dot or if components are empty.
func ParseSubject(subject string) (group, endpoint string, err error) {
	if subject == "" {
		return "", "", NewIPCError("INVALID_SUBJECT", "subject cannot be empty")
	}

	parts := strings.Split(subject, ".")
	if len(parts) != 2 {
		return "", "", NewIPCError("INVALID_SUBJECT", fmt.Sprintf("subject %s must contain exactly one dot", subject))
	}

	group = strings.TrimSpace(parts[0])
	endpoint = strings.TrimSpace(parts[1])

	if group == "" {
		return "", "", NewIPCError("INVALID_SUBJECT", "group component cannot be empty")
	}

	if endpoint == "" {
		return "", "", NewIPCError("INVALID_SUBJECT", "endpoint component cannot be empty")
	}

	return group, endpoint, nil
}

// RegisterEndpointWithParsedSubject is a helper function that parses an IPC subject
// and returns the group and endpoint names for use with NATS micro registration.
// This ensures services use IPC constants consistently and follow the group.endpoint pattern.
//
// Example usage:
//
//	group, endpoint, err := ipc.RegisterEndpointWithParsedSubject(ipc.SubjectCanvasGetZones)
//	if err != nil {
//	    return err
//	}
//	canvasGroup := service.AddGroup(group)
//	return canvasGroup.AddEndpoint(endpoint, handler)
func RegisterEndpointWithParsedSubject(subject string) (group, endpoint string, err error) {
	return ParseSubject(subject)
}

// RegisterEndpointWithGroupCache registers an endpoint by parsing the IPC subject and managing group creation.
// This helper reduces boilerplate by automatically creating and caching groups as needed.
//
// Example usage:
//
//	groups := make(map[string]micro.Group)
//	err := ipc.RegisterEndpointWithGroupCache(service, ipc.SubjectCanvasGetZones, handler, groups)
func RegisterEndpointWithGroupCache(service micro.Service, subject string, handler micro.Handler, groups map[string]micro.Group) error {
	groupName, endpointName, err := ParseSubject(subject)
	if err != nil {
		return fmt.Errorf("failed to parse subject %s: %w", subject, err)
	}

	// Get or create group
	group, exists := groups[groupName]
	if !exists {
		group = service.AddGroup(groupName)
		groups[groupName] = group
	}

	// Register endpoint
	if err := group.AddEndpoint(endpointName, handler); err != nil {
		return fmt.Errorf("failed to register endpoint %s in group %s: %w", endpointName, groupName, err)
	}

	return nil
}
