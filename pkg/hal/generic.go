// SPDX-License-Identifier: BSD-3-Clause

package hal

import (
	"context"

	"github.com/eruption-core/eruptiond/pkg/color"
)

// defaultLEDCount is the LED count assumed for an unrecognized device; it
// keeps the fallback driver usable (if dim) rather than refusing to render.
const defaultLEDCount = 1

// GenericDriver is bound to any (vendor_id, product_id) pair the binding
// table does not recognize. It supplies default topology and safe no-op
// report routines so an unknown device does not crash the scheduler; it
// never actually writes to the device's HID handle.
type GenericDriver struct {
	base
	info DeviceInfo
}

var (
	_ Driver = (*GenericDriver)(nil)
	_ Misc   = (*GenericDriver)(nil)
)

// NewGenericDriver creates the fallback driver for the given device pair.
func NewGenericDriver(info DeviceInfo) *GenericDriver {
	return &GenericDriver{
		base: newBase(defaultLEDCount),
		info: info,
	}
}

func (d *GenericDriver) Open(ctx context.Context) error {
	return nil
}

func (d *GenericDriver) SendInitSequence(ctx context.Context) error {
	return nil
}

func (d *GenericDriver) SendShutdownSequence(ctx context.Context) error {
	return nil
}

func (d *GenericDriver) SendLEDMap(colors []color.Color) error {
	return nil
}

func (d *GenericDriver) SetLEDInitPattern() error {
	return nil
}

func (d *GenericDriver) SetLEDOffPattern() error {
	return nil
}

func (d *GenericDriver) DeviceStatus() map[string]string {
	status := map[string]string{"connected": "true"}
	if d.HasFailed() {
		status["connected"] = "false"
	}
	return status
}
