// SPDX-License-Identifier: BSD-3-Clause

package hal

import "errors"

var (
	// ErrDeviceOpen is returned when a driver fails to claim its required HID interfaces.
	ErrDeviceOpen = errors.New("failed to open device interfaces")

	// ErrDeviceNotSupported is returned when the binding table explicitly excludes a (vid, pid) pair.
	ErrDeviceNotSupported = errors.New("device explicitly not supported")

	// ErrDeviceFailed is returned from any operation attempted on a device that has latched a fault.
	ErrDeviceFailed = errors.New("device has failed")

	// ErrDeviceNotFound is returned when an operation references an unknown device handle.
	ErrDeviceNotFound = errors.New("device handle not found")

	// ErrNotKeyboard is returned when a keyboard-only operation is attempted on a non-keyboard device.
	ErrNotKeyboard = errors.New("device does not implement the keyboard contract")

	// ErrNotMouse is returned when a mouse-only operation is attempted on a non-mouse device.
	ErrNotMouse = errors.New("device does not implement the mouse contract")

	// ErrReadTimeout is returned by a blocking read that hit its bounded timeout with no event.
	ErrReadTimeout = errors.New("read timed out")
)
