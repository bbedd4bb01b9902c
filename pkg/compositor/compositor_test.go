// SPDX-License-Identifier: BSD-3-Clause

package compositor

import (
	"testing"

	"github.com/eruption-core/eruptiond/pkg/canvas"
	"github.com/eruption-core/eruptiond/pkg/color"
)

func TestComposeLastLayerWinsForOpaquePixels(t *testing.T) {
	c := canvas.New(1, 1)
	bottom := canvas.NewFrame(1, 1)
	bottom.Set(0, 0, color.Opaque(255, 0, 0))
	top := canvas.NewFrame(1, 1)
	top.Set(0, 0, color.Opaque(0, 255, 0))

	Compose(c, []Layer{{Name: "bottom", Frame: bottom}, {Name: "top", Frame: top}}, DefaultSettings())

	got := c.At(0, 0)
	want := color.Opaque(0, 255, 0)
	if got != want {
		t.Errorf("Compose last-wins = %+v, want %+v", got, want)
	}
}

func TestComposeResetsBeforeBlending(t *testing.T) {
	c := canvas.New(1, 1)
	c.WithWriteLock(func(pixels []color.Color) {
		pixels[0] = color.Opaque(1, 2, 3)
	})

	Compose(c, nil, DefaultSettings())

	if got := c.At(0, 0); got != color.Transparent {
		t.Errorf("Compose with no layers = %+v, want transparent", got)
	}
}

func TestComposeAppliesBrightness(t *testing.T) {
	c := canvas.New(1, 1)
	layer := canvas.NewFrame(1, 1)
	layer.Set(0, 0, color.Opaque(200, 200, 200))

	settings := DefaultSettings()
	settings.Brightness = 0.5
	Compose(c, []Layer{{Frame: layer}}, settings)

	got := c.At(0, 0)
	if got.R > 101 || got.R < 99 {
		t.Errorf("Compose with Brightness=0.5, R = %d, want ~100", got.R)
	}
}
