// SPDX-License-Identifier: BSD-3-Clause

// Command eruptiond is the Eruption RGB lighting daemon: it scans the HID
// bus for known devices, loads the active profile's scripts, and renders
// every device's LED map at a fixed tick rate until stopped.
package main

import (
	"context"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/eruption-core/eruptiond/service/eruptiond"
	"github.com/eruption-core/eruptiond/service/profilesrv"
)

func main() {
	// Eruption targets the same class of resource-constrained embedded
	// Linux boxes the daemon's render loop was designed for; cap memory use
	// rather than let a runaway script host grow unbounded.
	debug.SetMemoryLimit(512 * 1024 * 1024)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d := eruptiond.New(
		eruptiond.WithProfilesrv(
			profilesrv.WithProfileDir("/var/lib/eruptiond/profiles"),
			profilesrv.WithScriptDir("/var/lib/eruptiond/scripts"),
		),
	)

	if err := d.Run(ctx, nil); err != nil && err != context.Canceled {
		panic(err)
	}
}
