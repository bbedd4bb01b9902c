// SPDX-License-Identifier: BSD-3-Clause

package rpcsrv

// floatProperty is the request/response envelope for a single float64
// read-write property (Canvas.Hue/Saturation/Lightness). An absent Value
// means "get"; a present Value means "set",
// and the response always reports the value now in effect.
type floatProperty struct {
	Value *float64 `json:"value,omitempty"`
}

// boolProperty is the request/response envelope for a single bool
// read-write property (Config.EnableSfx).
type boolProperty struct {
	Value *bool `json:"value,omitempty"`
}

// okResponse is the trivial liveness/acknowledgement response.
type okResponse struct {
	OK bool `json:"ok"`
}

// zoneEntry is one device's canvas rectangle allocation, keyed by handle in
// zoneMapResponse and used as the request body for SetZone.
type zoneEntry struct {
	DeviceHandle uint64 `json:"device_handle"`
	X            int    `json:"x"`
	Y            int    `json:"y"`
	W            int    `json:"w"`
	H            int    `json:"h"`
	Enabled      bool   `json:"enabled"`
}

// zoneMapResponse is Canvas.GetZones' response body.
type zoneMapResponse struct {
	Zones []zoneEntry `json:"zones"`
}

// colorSchemeRequest names a stored palette and its colors, each as an
// 8-hex-digit RRGGBBAA string parsed with the same convention pkg/profile
// uses for color parameter values.
type colorSchemeRequest struct {
	Name   string   `json:"name"`
	Colors []string `json:"colors"`
}

// colorSchemesResponse is Config.GetColorSchemes' response body.
type colorSchemesResponse struct {
	Schemes map[string][]string `json:"schemes"`
}

// writeFileRequest is Config.WriteFile's request body. Path is resolved
// relative to the service's configured profile directory; absolute paths
// and parent-directory traversal are refused.
type writeFileRequest struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// deviceSummary describes one managed device for Devices.GetManaged and
// Status.GetManagedDevices.
type deviceSummary struct {
	Handle    uint64 `json:"device_handle"`
	VendorID  uint16 `json:"vendor_id"`
	ProductID uint16 `json:"product_id"`
	State     string `json:"state"`
	NumLEDs   int    `json:"num_leds"`
}

// devicesManagedResponse is Devices.GetManaged's response body.
type devicesManagedResponse struct {
	Devices []deviceSummary `json:"devices"`
}

// deviceHandleRequest identifies a single device by handle, the request
// shape shared by GetStatus/IsEnabled.
type deviceHandleRequest struct {
	DeviceHandle uint64 `json:"device_handle"`
}

// deviceConfigRequest carries the per-device settings Devices.GetConfig
// returns and Devices.SetConfig applies; Brightness is nil on a get.
type deviceConfigRequest struct {
	DeviceHandle uint64 `json:"device_handle"`
	Brightness   *int   `json:"brightness,omitempty"`
}

// deviceConfigResponse is Devices.GetConfig/SetConfig's response body.
type deviceConfigResponse struct {
	DeviceHandle uint64 `json:"device_handle"`
	Brightness   int    `json:"brightness"`
}

// deviceStatusResponse is Devices.GetStatus's response body.
type deviceStatusResponse struct {
	DeviceHandle uint64            `json:"device_handle"`
	Status       map[string]string `json:"status"`
}

// deviceEnabledResponse is Devices.IsEnabled/SetEnabled's response body.
type deviceEnabledResponse struct {
	DeviceHandle uint64 `json:"device_handle"`
	Enabled      bool   `json:"enabled"`
}

// profileInfo describes a loaded profile for Profile.Active/Enum.
type profileInfo struct {
	ID            int      `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	FilePath      string   `json:"file_path"`
	ActiveScripts []string `json:"active_scripts"`
}

// profileSwitchRequest is Profile.Switch's request body: the path to a
// profile file to load and activate in the currently active slot.
type profileSwitchRequest struct {
	Path string `json:"path"`
}

// profileSetParamRequest is Profile.SetParameter's request body.
type profileSetParamRequest struct {
	Script string `json:"script"`
	Name   string `json:"name"`
	Value  string `json:"value"`
}

// slotNamesRequest is Slot.Names' request body on a set; nil on a get.
type slotNamesRequest struct {
	Names []string `json:"names,omitempty"`
}

// slotNamesResponse is Slot.Names' response body.
type slotNamesResponse struct {
	Names []string `json:"names"`
}

// slotProfilesResponse is Slot.GetProfiles' response body: the profile name
// bound to each slot, in slot order, empty string for an unbound slot.
type slotProfilesResponse struct {
	Profiles []string `json:"profiles"`
}

// slotSwitchRequest is Slot.Switch's request body.
type slotSwitchRequest struct {
	Slot int `json:"slot"`
}

// slotActiveResponse is Slot.Active's response body.
type slotActiveResponse struct {
	Slot int `json:"slot"`
}

// intProperty is the request/response envelope for a single int read-write
// property.
type intProperty struct {
	Value *int `json:"value,omitempty"`
}

// statusRunningResponse is Status.Running's response body.
type statusRunningResponse struct {
	Running    bool   `json:"running"`
	InstanceID string `json:"instance_id"`
}

// statusLedColorsResponse is Status.GetLedColors' response body: the
// current canvas contents as 8-hex-digit RRGGBBAA strings, row-major.
type statusLedColorsResponse struct {
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Colors []string `json:"colors"`
}
