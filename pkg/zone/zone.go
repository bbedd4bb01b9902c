// SPDX-License-Identifier: BSD-3-Clause

// Package zone implements the device-to-canvas-rectangle allocation table.
// Every bound device carries a Zone describing which rectangle of the
// canvas it consumes; the allocator holds the device handle -> Zone map
// behind its own lock, independent of the canvas's own lock, matching the
// device table discipline described for the concurrency model.
package zone

import (
	"errors"
	"sync"
)

// ErrZoneOutOfBounds is returned when a zone's rectangle does not fit
// inside the canvas dimensions it is validated against.
var ErrZoneOutOfBounds = errors.New("zone out of canvas bounds")

// ErrDeviceNotFound is returned when a zone lookup references a device
// handle that has no allocation.
var ErrDeviceNotFound = errors.New("device has no zone allocation")

// Zone is the rectangle of the canvas a device consumes.
type Zone struct {
	X, Y, W, H int
	Enabled    bool
}

// Allocator tracks the device handle -> Zone map.
type Allocator struct {
	mu    sync.RWMutex
	zones map[uint64]Zone
}

// NewAllocator creates an empty zone allocator.
func NewAllocator() *Allocator {
	return &Allocator{
		zones: make(map[uint64]Zone),
	}
}

// Set assigns a zone to a device handle, validating it against the given
// canvas dimensions.
func (a *Allocator) Set(handle uint64, z Zone, canvasW, canvasH int) error {
	if z.X < 0 || z.Y < 0 || z.W < 0 || z.H < 0 || z.X+z.W > canvasW || z.Y+z.H > canvasH {
		return ErrZoneOutOfBounds
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.zones[handle] = z
	return nil
}

// Get returns the zone allocated to a device handle.
func (a *Allocator) Get(handle uint64) (Zone, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	z, ok := a.zones[handle]
	if !ok {
		return Zone{}, ErrDeviceNotFound
	}
	return z, nil
}

// Remove deletes a device's zone allocation, e.g. on unplug.
func (a *Allocator) Remove(handle uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.zones, handle)
}

// All returns a snapshot of every device handle -> zone allocation.
func (a *Allocator) All() map[uint64]Zone {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make(map[uint64]Zone, len(a.zones))
	for k, v := range a.zones {
		out[k] = v
	}
	return out
}
