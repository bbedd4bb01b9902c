// SPDX-License-Identifier: BSD-3-Clause

package canvas

import (
	"testing"

	"github.com/eruption-core/eruptiond/pkg/color"
)

func TestNewCanvasStartsTransparent(t *testing.T) {
	c := New(4, 2)
	if c.At(0, 0) != color.Transparent {
		t.Errorf("new canvas At(0,0) = %+v, want transparent", c.At(0, 0))
	}
}

func TestResetClearsPixels(t *testing.T) {
	c := New(2, 1)
	c.WithWriteLock(func(pixels []color.Color) {
		pixels[0] = color.Opaque(255, 0, 0)
	})
	c.Reset()
	if c.At(0, 0) != color.Transparent {
		t.Errorf("After Reset, At(0,0) = %+v, want transparent", c.At(0, 0))
	}
}

func TestSnapshotIsIndependentCopy(t *testing.T) {
	c := New(2, 1)
	snap := c.Snapshot()
	c.WithWriteLock(func(pixels []color.Color) {
		pixels[0] = color.Opaque(9, 9, 9)
	})
	if snap[0] == color.Opaque(9, 9, 9) {
		t.Errorf("Snapshot mutated by later write")
	}
}

func TestFrameSetGetOutOfBounds(t *testing.T) {
	f := NewFrame(2, 2)
	f.Set(5, 5, color.Opaque(1, 2, 3))
	if got := f.Get(5, 5); got != color.Transparent {
		t.Errorf("Get out of bounds = %+v, want transparent", got)
	}
}

func TestFrameFill(t *testing.T) {
	f := NewFrame(2, 2)
	c := color.Opaque(10, 20, 30)
	f.Fill(c)
	for i, p := range f.Pixels {
		if p != c {
			t.Errorf("Pixels[%d] = %+v, want %+v", i, p, c)
		}
	}
}
