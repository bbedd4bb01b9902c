// SPDX-License-Identifier: BSD-3-Clause

// Package hal implements the hardware abstraction layer: the driver
// contract every concrete and fallback device implementation satisfies,
// the (vendor_id, product_id) binding table, the device lifecycle state
// machine, and the device table consulted by the scheduler, compositor,
// and RPC surface.
package hal

import (
	"context"
	"time"

	"github.com/eruption-core/eruptiond/pkg/color"
)

// DeviceHandle identifies a bound device for the lifetime of its binding.
// It is a monotonic counter allocated by the device table on bind, matching
// the RPC surface's device_handle: u64.
type DeviceHandle uint64

// DeviceInfo identifies a device by its USB vendor/product pair.
type DeviceInfo struct {
	VendorID  uint16
	ProductID uint16
}

// Driver is the generic device contract every bound device satisfies,
// regardless of whether it additionally implements Keyboard, Mouse, or Misc.
type Driver interface {
	// Open acquires the necessary HID interface(s) for the device.
	Open(ctx context.Context) error

	// SendInitSequence transitions the device to its Initialized render
	// state, issuing any vendor-specific control reports.
	SendInitSequence(ctx context.Context) error

	// SendShutdownSequence restores the device to a neutral state.
	SendShutdownSequence(ctx context.Context) error

	// SendLEDMap renders colors (length must equal NumLEDs) to the wire format.
	SendLEDMap(colors []color.Color) error

	// SetBrightness sets per-device brightness, 0..=100.
	SetBrightness(v int) error

	// GetBrightness returns the current per-device brightness, 0..=100.
	GetBrightness() int

	// NumLEDs returns the device's addressable LED count.
	NumLEDs() int

	// DeviceStatus returns a key-value map with at minimum "connected".
	DeviceStatus() map[string]string

	// HasFailed reports whether the device's fault latch is set.
	HasFailed() bool

	// Fail latches a fault, removing the device from the active render/read set.
	Fail(err error)
}

// Keyboard is the sub-contract satisfied by keyboard drivers.
type Keyboard interface {
	Driver

	NumKeys() int
	NumRows() int
	NumCols() int
	// RowTopology returns the device key indices for row r, in column order.
	RowTopology(r int) []int
	// NextEvent blocks for up to timeout waiting for the next HID event.
	NextEvent(timeout time.Duration) (RawEvent, error)
}

// Mouse is the sub-contract satisfied by mouse drivers.
type Mouse interface {
	Driver

	NextEvent(timeout time.Duration) (RawEvent, error)
}

// Misc is the sub-contract satisfied by misc (non-input) LED devices.
type Misc interface {
	Driver

	SetLEDInitPattern() error
	SetLEDOffPattern() error
}

// RawEventKind discriminates the variants of RawEvent.
type RawEventKind int

const (
	EventTimeout RawEventKind = iota
	EventKeyDown
	EventKeyUp
	EventMouseButtonDown
	EventMouseButtonUp
	EventMouseWheel
	EventMouseMove
	EventHidReport
	EventMute
	EventVolumeUp
	EventVolumeDown
)

// RawEvent is the discriminated HID event a keyboard or mouse driver's
// NextEvent returns. Only the fields relevant to Kind are populated.
type RawEvent struct {
	Kind        RawEventKind
	KeyIndex    int
	Button      int
	WheelDelta  int
	DX, DY      int
	DeviceClass string
	Bytes       []byte
}
