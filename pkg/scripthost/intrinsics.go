// SPDX-License-Identifier: BSD-3-Clause

package scripthost

import (
	"log/slog"
	"time"

	"github.com/dop251/goja"

	"github.com/eruption-core/eruptiond/pkg/color"
)

// installIntrinsics binds the host-side functions a script may call: frame
// drawing, canvas dimension queries, time, parameter lookup, logging, and
// the restricted system plugins (in-memory key/value store, audio spectrum
// buffer). No noise or animal utility functions are installed.
func (w *Worker) installIntrinsics(rt *goja.Runtime, logger *slog.Logger) {
	frame := w.frame

	_ = rt.Set("set_pixel", func(x, y, r, g, b, a int) {
		frame.Set(x, y, color.Color{R: clampByte(r), G: clampByte(g), B: clampByte(b), A: clampByte(a)})
	})

	_ = rt.Set("get_pixel", func(x, y int) []int {
		c := frame.Get(x, y)
		return []int{int(c.R), int(c.G), int(c.B), int(c.A)}
	})

	_ = rt.Set("fill", func(r, g, b, a int) {
		frame.Fill(color.Color{R: clampByte(r), G: clampByte(g), B: clampByte(b), A: clampByte(a)})
	})

	_ = rt.Set("canvas_width", func() int { return frame.W })
	_ = rt.Set("canvas_height", func() int { return frame.H })

	_ = rt.Set("now", func() int64 { return time.Now().UnixMilli() })

	_ = rt.Set("get_parameter", func(name string) string {
		w.mu.RLock()
		defer w.mu.RUnlock()
		return w.params[name]
	})

	_ = rt.Set("log", func(level, msg string) {
		switch level {
		case "error":
			logger.Error(msg, "script", w.name)
		case "warn":
			logger.Warn(msg, "script", w.name)
		case "debug":
			logger.Debug(msg, "script", w.name)
		default:
			logger.Info(msg, "script", w.name)
		}
	})

	_ = rt.Set("kv_get", func(key string) string {
		return w.host.kv.get(key)
	})
	_ = rt.Set("kv_set", func(key, value string) {
		w.host.kv.set(key, value)
	})

	_ = rt.Set("spectrum", func() []float64 {
		return w.host.spectrum.snapshot()
	})
}

func clampByte(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
