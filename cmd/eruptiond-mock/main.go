// SPDX-License-Identifier: BSD-3-Clause

// Command eruptiond-mock runs the daemon against two GenericDriver-backed
// fake devices instead of scanning the real HID bus, for local testing
// without lighting hardware attached. It builds the daemon with the same
// eruptiond.New service wiring as cmd/eruptiond, but with a 16x1 canvas,
// the default profile and script directories, and no memory limit.
package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/eruption-core/eruptiond/pkg/hal"
	"github.com/eruption-core/eruptiond/pkg/zone"
	"github.com/eruption-core/eruptiond/service/eruptiond"
)

// mockDevices are arbitrary (vendor_id, product_id) pairs unlikely to
// collide with a real plugged-in device; each is bound to a GenericDriver
// built directly, the same driver the binding table falls back to for an
// unrecognized real device.
var mockDevices = []hal.DeviceInfo{
	{VendorID: 0xffff, ProductID: 0x0001},
	{VendorID: 0xffff, ProductID: 0x0002},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d := eruptiond.New(
		eruptiond.WithCanvasDimensions(16, 1),
	)

	if err := bindMockDevices(ctx, d); err != nil {
		panic(err)
	}

	if err := d.Run(ctx, nil); err != nil && err != context.Canceled {
		panic(err)
	}
}

// bindMockDevices drives each fake device through the same
// bind/open/init lifecycle transitions the real hotplug watcher fires in
// pkg/eventrouter.Router.bind, then allocates it an even slice of the
// canvas so the render tick has somewhere to send frames.
func bindMockDevices(ctx context.Context, d *eruptiond.Daemon) error {
	table := d.Halsrv.Table()
	zones := d.Halsrv.Zones()

	canvasWidth := 16
	zoneWidth := canvasWidth / len(mockDevices)

	for i, info := range mockDevices {
		drv := hal.NewGenericDriver(info)

		md, err := table.Bind(ctx, info, drv)
		if err != nil {
			return err
		}

		if err := drv.Open(ctx); err != nil {
			return err
		}
		if err := md.Fire(ctx, hal.TriggerOpen); err != nil {
			return err
		}

		if err := drv.SendInitSequence(ctx); err != nil {
			return err
		}
		if err := md.Fire(ctx, hal.TriggerInit); err != nil {
			return err
		}

		z := zone.Zone{X: i * zoneWidth, Y: 0, W: zoneWidth, H: 1, Enabled: true}
		if err := zones.Set(uint64(md.Handle), z, canvasWidth, 1); err != nil {
			return err
		}
	}

	return nil
}
