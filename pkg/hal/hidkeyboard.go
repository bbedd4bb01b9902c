// SPDX-License-Identifier: BSD-3-Clause

package hal

import (
	"context"
	"fmt"
	"time"

	"github.com/karalabe/hid"

	"github.com/eruption-core/eruptiond/pkg/color"
)

// HIDKeyboardDriver is a concrete driver for HID-class keyboards recognized
// by the binding table. It claims the device's report interface with
// karalabe/hid, exposes a model-specific row/column topology, and writes
// LED frames as a single vendor report of 4 bytes per LED (R, G, B, A).
// Input reports are not translated through the topology; see NextEvent.
type HIDKeyboardDriver struct {
	base

	info     DeviceInfo
	numKeys  int
	numRows  int
	numCols  int
	topology [][]int // topology[row][col] = canonical key index

	dev *hid.Device
}

var (
	_ Driver   = (*HIDKeyboardDriver)(nil)
	_ Keyboard = (*HIDKeyboardDriver)(nil)
)

// NewHIDKeyboardDriver creates a driver bound to info with the given key
// topology. Row/col dimensions are derived from the topology's shape.
func NewHIDKeyboardDriver(info DeviceInfo, topology [][]int) *HIDKeyboardDriver {
	numKeys := 0
	cols := 0
	for _, row := range topology {
		numKeys += len(row)
		if len(row) > cols {
			cols = len(row)
		}
	}
	return &HIDKeyboardDriver{
		base:     newBase(numKeys),
		info:     info,
		numKeys:  numKeys,
		numRows:  len(topology),
		numCols:  cols,
		topology: topology,
	}
}

func (d *HIDKeyboardDriver) Open(ctx context.Context) error {
	infos := hid.Enumerate(d.info.VendorID, d.info.ProductID)
	if len(infos) == 0 {
		return fmt.Errorf("%w: no matching HID interface for %04x:%04x", ErrDeviceOpen, d.info.VendorID, d.info.ProductID)
	}

	dev, err := infos[0].Open()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDeviceOpen, err)
	}
	d.dev = dev
	return nil
}

func (d *HIDKeyboardDriver) SendInitSequence(ctx context.Context) error {
	if d.dev == nil {
		return ErrDeviceOpen
	}
	// Vendor-specific handshake reports, if any, are written here with
	// short bounded waits between steps.
	time.Sleep(10 * time.Millisecond)
	return nil
}

func (d *HIDKeyboardDriver) SendShutdownSequence(ctx context.Context) error {
	if d.dev == nil {
		return nil
	}
	off := make([]color.Color, d.numKeys)
	_ = d.SendLEDMap(off)
	return d.dev.Close()
}

func (d *HIDKeyboardDriver) SendLEDMap(colors []color.Color) error {
	if d.HasFailed() {
		return ErrDeviceFailed
	}
	if d.dev == nil {
		return ErrDeviceOpen
	}
	if len(colors) != d.numKeys {
		return fmt.Errorf("SendLEDMap: got %d colors, want %d", len(colors), d.numKeys)
	}

	report := make([]byte, 1+len(colors)*4)
	report[0] = 0x00 // report ID
	for i, c := range colors {
		off := 1 + i*4
		report[off] = c.R
		report[off+1] = c.G
		report[off+2] = c.B
		report[off+3] = c.A
	}

	if _, err := d.dev.Write(report); err != nil {
		d.Fail(err)
		return fmt.Errorf("SendLEDMap write: %w", err)
	}
	return nil
}

func (d *HIDKeyboardDriver) DeviceStatus() map[string]string {
	status := map[string]string{"connected": "true"}
	if d.HasFailed() {
		status["connected"] = "false"
	}
	return status
}

func (d *HIDKeyboardDriver) NumKeys() int { return d.numKeys }
func (d *HIDKeyboardDriver) NumRows() int { return d.numRows }
func (d *HIDKeyboardDriver) NumCols() int { return d.numCols }

func (d *HIDKeyboardDriver) RowTopology(r int) []int {
	if r < 0 || r >= len(d.topology) {
		return nil
	}
	return d.topology[r]
}

// NextEvent blocks for up to timeout waiting for the next raw input report
// and returns it as a key down/up event. Bit 0 of the report's first byte
// selects down or up, and the report's second byte is used as the key
// index as is; the topology table is not consulted.
func (d *HIDKeyboardDriver) NextEvent(timeout time.Duration) (RawEvent, error) {
	if d.dev == nil {
		return RawEvent{Kind: EventTimeout}, ErrDeviceOpen
	}

	buf := make([]byte, 8)
	n, err := d.dev.ReadTimeout(buf, int(timeout/time.Millisecond))
	if err != nil {
		d.Fail(err)
		return RawEvent{Kind: EventTimeout}, fmt.Errorf("NextEvent read: %w", err)
	}
	if n == 0 {
		return RawEvent{Kind: EventTimeout}, ErrReadTimeout
	}

	pressed := buf[0]&0x01 != 0
	keyIndex := int(buf[1])
	if pressed {
		return RawEvent{Kind: EventKeyDown, KeyIndex: keyIndex}, nil
	}
	return RawEvent{Kind: EventKeyUp, KeyIndex: keyIndex}, nil
}
