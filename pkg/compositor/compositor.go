// SPDX-License-Identifier: BSD-3-Clause

// Package compositor implements the per-tick merge of every active script's
// private frame onto the shared canvas, followed by the global HSL and
// brightness adjustments. It is the only writer of the canvas and is
// strictly CPU-bound during its critical section: no suspension point may
// occur while the canvas write lock is held.
package compositor

import (
	"sync"

	"github.com/eruption-core/eruptiond/pkg/canvas"
	"github.com/eruption-core/eruptiond/pkg/color"
)

// Settings holds the global HSL adjustment and brightness scalar applied
// after scripts are blended, mirroring the Canvas and Config object paths'
// Hue/Saturation/Lightness/Brightness properties.
type Settings struct {
	HueDeg      float64
	SaturationX float64
	LightnessOf float64
	Brightness  float64
}

// DefaultSettings returns the neutral adjustment: no hue shift, unit
// saturation, no lightness offset, full brightness.
func DefaultSettings() Settings {
	return Settings{
		HueDeg:      0,
		SaturationX: 1,
		LightnessOf: 0,
		Brightness:  1,
	}
}

// SettingsStore is a mutex-guarded Settings holder shared between the
// scheduler (which reads it once per tick to pass to Compose) and rpcsrv
// (whose Canvas/Config handlers mutate it in response to RPC requests). A
// write takes effect on the very next tick.
type SettingsStore struct {
	mu       sync.Mutex
	settings Settings
}

// NewSettingsStore creates a store initialized to DefaultSettings.
func NewSettingsStore() *SettingsStore {
	return &SettingsStore{settings: DefaultSettings()}
}

// Get returns a copy of the current settings.
func (s *SettingsStore) Get() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Set replaces the current settings.
func (s *SettingsStore) Set(v Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = v
}

// Layer is one script's frame in z-order; the last layer wins for fully
// opaque pixels.
type Layer struct {
	Name  string
	Frame *canvas.Frame
}

// Compose resets the canvas, alpha-over blends every layer in the order
// given (declared profile order establishes z-order), and applies the
// global HSL and brightness adjustments. It acquires the canvas write lock
// exactly once for the whole pass.
func Compose(c *canvas.Canvas, layers []Layer, settings Settings) {
	c.WithWriteLock(func(pixels []color.Color) {
		for i := range pixels {
			pixels[i] = color.Transparent
		}

		w := c.Width()
		for _, layer := range layers {
			if layer.Frame == nil {
				continue
			}
			blendLayer(pixels, w, layer.Frame)
		}

		for i, p := range pixels {
			adjusted := color.AdjustHSL(p, settings.HueDeg, settings.SaturationX, settings.LightnessOf)
			pixels[i] = color.AdjustBrightness(adjusted, settings.Brightness)
		}
	})
}

func blendLayer(pixels []color.Color, canvasW int, frame *canvas.Frame) {
	for y := 0; y < frame.H; y++ {
		for x := 0; x < frame.W; x++ {
			idx := y*canvasW + x
			if idx < 0 || idx >= len(pixels) {
				continue
			}
			pixels[idx] = color.Over(pixels[idx], frame.Get(x, y))
		}
	}
}
