// SPDX-License-Identifier: BSD-3-Clause

package color

import "testing"

func TestOverOpaqueReplacesDst(t *testing.T) {
	dst := Opaque(10, 20, 30)
	src := Opaque(200, 210, 220)
	got := Over(dst, src)
	if got != src {
		t.Errorf("Over(dst, opaque src) = %+v, want %+v", got, src)
	}
}

func TestOverTransparentLeavesDstUnchanged(t *testing.T) {
	dst := Opaque(10, 20, 30)
	src := Color{}
	got := Over(dst, src)
	if got != dst {
		t.Errorf("Over(dst, transparent src) = %+v, want %+v", got, dst)
	}
}

func TestAdjustHSLPreservesAlpha(t *testing.T) {
	c := Color{R: 100, G: 150, B: 200, A: 128}
	got := AdjustHSL(c, 90, 1, 0)
	if got.A != c.A {
		t.Errorf("AdjustHSL changed alpha: got %d, want %d", got.A, c.A)
	}
}

func TestAdjustBrightnessScalesChannels(t *testing.T) {
	c := Opaque(200, 200, 200)
	got := AdjustBrightness(c, 0.5)
	if got.R > 101 || got.R < 99 {
		t.Errorf("AdjustBrightness(0.5) R = %d, want ~100", got.R)
	}
}

func TestAdjustBrightnessZero(t *testing.T) {
	c := Opaque(200, 200, 200)
	got := AdjustBrightness(c, 0)
	if got.R != 0 || got.G != 0 || got.B != 0 {
		t.Errorf("AdjustBrightness(0) = %+v, want black", got)
	}
}

func TestAdjustBrightnessTruncatesRatherThanRounds(t *testing.T) {
	// 255*0.5 = 127.5, which must read back as 127, not round up to 128.
	c := Opaque(255, 0, 0)
	got := AdjustBrightness(c, 0.5)
	want := Opaque(127, 0, 0)
	if got != want {
		t.Errorf("AdjustBrightness(255, 0.5) = %+v, want %+v", got, want)
	}
}
