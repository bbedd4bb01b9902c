// SPDX-License-Identifier: BSD-3-Clause

package scripthost

import "github.com/eruption-core/eruptiond/pkg/hal"

// entryPointFor maps a normalized input event to the script entry point
// name and positional arguments it should be called with. Audio control
// aliases (mute, volume up/down) and HID passthrough reports are dispatched
// to their own named entry points, matching the driver's event taxonomy.
func entryPointFor(ev interface{}) (string, []interface{}) {
	re, ok := ev.(hal.RawEvent)
	if !ok {
		return "", nil
	}

	switch re.Kind {
	case hal.EventKeyDown:
		return "on_key_down", []interface{}{re.KeyIndex}
	case hal.EventKeyUp:
		return "on_key_up", []interface{}{re.KeyIndex}
	case hal.EventMouseButtonDown:
		return "on_mouse_button_down", []interface{}{re.Button}
	case hal.EventMouseButtonUp:
		return "on_mouse_button_up", []interface{}{re.Button}
	case hal.EventMouseWheel:
		return "on_mouse_wheel", []interface{}{re.WheelDelta}
	case hal.EventMouseMove:
		return "on_mouse_move", []interface{}{re.DX, re.DY}
	case hal.EventHidReport:
		return "on_hid_event", []interface{}{re.DeviceClass, re.Bytes}
	case hal.EventMute:
		return "on_mute", nil
	case hal.EventVolumeUp:
		return "on_volume_up", nil
	case hal.EventVolumeDown:
		return "on_volume_down", nil
	default:
		return "", nil
	}
}
