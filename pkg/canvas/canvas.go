// SPDX-License-Identifier: BSD-3-Clause

// Package canvas implements the single shared W*H color buffer the
// compositor writes to once per tick and every per-device renderer (and
// RPC reader) samples from. It is the one piece of state in the daemon
// that is genuinely single-writer/multi-reader, so it is the one place a
// plain sync.RWMutex is the right tool rather than channel-passing.
package canvas

import (
	"errors"
	"sync"

	"github.com/eruption-core/eruptiond/pkg/color"
)

// ErrDimensionsMismatch is returned when a caller supplies a frame whose
// length does not match the canvas's W*H.
var ErrDimensionsMismatch = errors.New("frame dimensions do not match canvas")

// Canvas is the single mutable array of W*H colors rendered by the
// compositor and sampled by per-device renderers and RPC status readers.
type Canvas struct {
	mu     sync.RWMutex
	w, h   int
	pixels []color.Color
}

// New creates a canvas of the given dimensions, reset to transparent black.
func New(w, h int) *Canvas {
	return &Canvas{
		w:      w,
		h:      h,
		pixels: make([]color.Color, w*h),
	}
}

// Width returns the canvas width.
func (c *Canvas) Width() int { return c.w }

// Height returns the canvas height.
func (c *Canvas) Height() int { return c.h }

// WithWriteLock runs fn while holding the canvas's write lock, exposing the
// raw pixel slice. fn must not retain the slice beyond the call; compositor
// writes only happen through this method, so the lock is never held across
// a suspension point.
func (c *Canvas) WithWriteLock(fn func(pixels []color.Color)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.pixels)
}

// WithReadLock runs fn while holding the canvas's read lock, exposing the
// raw pixel slice. fn must not retain or mutate the slice.
func (c *Canvas) WithReadLock(fn func(pixels []color.Color)) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fn(c.pixels)
}

// Snapshot returns a copy of the current canvas contents, safe to read
// without holding any lock. Used by the Status RPC's GetLedColors.
func (c *Canvas) Snapshot() []color.Color {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]color.Color, len(c.pixels))
	copy(out, c.pixels)
	return out
}

// Reset clears the canvas to transparent black under the write lock.
// compositor.Compose does not call it; it clears the pixels itself inside
// its single write-locked pass.
func (c *Canvas) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.pixels {
		c.pixels[i] = color.Transparent
	}
}

// At returns the color at (x, y) under the read lock.
func (c *Canvas) At(x, y int) color.Color {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pixels[y*c.w+x]
}

// Frame is a script's private Color array of the canvas's dimensions. It is
// never shared; the compositor blends it onto the canvas, the owning
// script never observes the canvas directly.
type Frame struct {
	W, H   int
	Pixels []color.Color
}

// NewFrame allocates a frame reset to transparent black.
func NewFrame(w, h int) *Frame {
	return &Frame{W: w, H: h, Pixels: make([]color.Color, w*h)}
}

// Set writes a pixel into the frame, ignoring out-of-bounds coordinates.
func (f *Frame) Set(x, y int, c color.Color) {
	if x < 0 || y < 0 || x >= f.W || y >= f.H {
		return
	}
	f.Pixels[y*f.W+x] = c
}

// Get reads a pixel from the frame, returning transparent black for
// out-of-bounds coordinates.
func (f *Frame) Get(x, y int) color.Color {
	if x < 0 || y < 0 || x >= f.W || y >= f.H {
		return color.Transparent
	}
	return f.Pixels[y*f.W+x]
}

// Fill sets every pixel in the frame to c.
func (f *Frame) Fill(c color.Color) {
	for i := range f.Pixels {
		f.Pixels[i] = c
	}
}
