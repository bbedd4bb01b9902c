// SPDX-License-Identifier: BSD-3-Clause

package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/eruption-core/eruptiond/pkg/canvas"
	"github.com/eruption-core/eruptiond/pkg/color"
	"github.com/eruption-core/eruptiond/pkg/compositor"
	"github.com/eruption-core/eruptiond/pkg/hal"
	"github.com/eruption-core/eruptiond/pkg/zone"
	"github.com/eruption-core/eruptiond/service/halsrv"
	ipcsrv "github.com/eruption-core/eruptiond/service/ipc"
	"github.com/eruption-core/eruptiond/service/scripthostsrv"
)

// fakeKeyboard is a minimal hal.Keyboard double that records the colors it
// was asked to render, so renderDevice's brightness scaling and topology
// reorder can be asserted without a real HID device to open.
type fakeKeyboard struct {
	hal.Driver
	topology   [][]int
	numLEDs    int
	brightness int
	sent       []color.Color
}

func (k *fakeKeyboard) GetBrightness() int { return k.brightness }
func (k *fakeKeyboard) NumKeys() int       { return k.numLEDs }
func (k *fakeKeyboard) NumLEDs() int       { return k.numLEDs }
func (k *fakeKeyboard) NumRows() int       { return len(k.topology) }
func (k *fakeKeyboard) NumCols() int       { return len(k.topology[0]) }
func (k *fakeKeyboard) RowTopology(r int) []int {
	if r < 0 || r >= len(k.topology) {
		return nil
	}
	return k.topology[r]
}
func (k *fakeKeyboard) NextEvent(time.Duration) (hal.RawEvent, error) {
	return hal.RawEvent{}, nil
}
func (k *fakeKeyboard) SendLEDMap(colors []color.Color) error {
	k.sent = append([]color.Color(nil), colors...)
	return nil
}

// startTestBus starts a real embedded NATS server, mirroring how
// service/eruptiond wires every service's Run call.
func startTestBus(t *testing.T) *ipcsrv.IPC {
	t.Helper()

	bus := ipcsrv.New(ipcsrv.WithStoreDir(t.TempDir()), ipcsrv.WithJetStream(false))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- bus.Run(ctx, nil) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return bus
}

func newTestScheduler(t *testing.T, cv *canvas.Canvas, h *halsrv.HalSrv) *Scheduler {
	t.Helper()

	ssrv := scripthostsrv.New(scripthostsrv.WithCanvasDimensions(cv.Width(), cv.Height()))

	return New(
		WithScriptHost(ssrv),
		WithHal(h),
		WithCanvas(cv),
		WithSettings(compositor.NewSettingsStore()),
		WithTickInterval(5*time.Millisecond),
		WithMetrics(false),
	)
}

func TestRunRequiresDependencies(t *testing.T) {
	s := New()
	err := s.Run(context.Background(), nil)
	if err != ErrMissingDependency {
		t.Fatalf("expected ErrMissingDependency, got %v", err)
	}
}

func TestRenderSkipsDisabledZone(t *testing.T) {
	cv := canvas.New(4, 1)
	h := halsrv.New()

	drv := hal.NewGenericDriver(hal.DeviceInfo{VendorID: 1, ProductID: 1})
	md, err := h.Table().Bind(context.Background(), hal.DeviceInfo{VendorID: 1, ProductID: 1}, drv)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}

	if err := h.Zones().Set(uint64(md.Handle), zone.Zone{X: 0, Y: 0, W: 4, H: 1, Enabled: false}, cv.Width(), cv.Height()); err != nil {
		t.Fatalf("Set zone: %v", err)
	}

	s := newTestScheduler(t, cv, h)

	// renderDevice should be a no-op for a disabled zone: SendLEDMap must
	// not be called, which GenericDriver can't observe directly, but a
	// disabled zone must not panic or error.
	if err := s.renderDevice(md, cv.Snapshot(), cv.Width(), cv.Height(), h.Zones()); err != nil {
		t.Fatalf("renderDevice on disabled zone: %v", err)
	}
}

func TestRenderDeviceClampsOutOfBoundsZone(t *testing.T) {
	cv := canvas.New(2, 2)
	h := halsrv.New()

	drv := hal.NewGenericDriver(hal.DeviceInfo{VendorID: 1, ProductID: 1})
	md, err := h.Table().Bind(context.Background(), hal.DeviceInfo{VendorID: 1, ProductID: 1}, drv)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}

	// A zone whose rectangle is allowed to exceed the canvas at Set time
	// (zero-size canvas guard aside) must still be sampled safely: any
	// coordinate landing outside the snapshot is skipped rather than
	// indexing out of range.
	z := zone.Zone{X: 1, Y: 1, W: 4, H: 4, Enabled: true}
	if err := h.Zones().Set(uint64(md.Handle), z, 8, 8); err != nil {
		t.Fatalf("Set zone: %v", err)
	}

	s := newTestScheduler(t, cv, h)

	if err := s.renderDevice(md, cv.Snapshot(), cv.Width(), cv.Height(), h.Zones()); err != nil {
		t.Fatalf("renderDevice with an oversized zone should not error: %v", err)
	}
}

func TestRenderDeviceScalesByKeyboardTopologyAndBrightness(t *testing.T) {
	cv := canvas.New(2, 2)
	cv.WithWriteLock(func(pixels []color.Color) {
		pixels[0] = color.Opaque(255, 0, 0)
		pixels[1] = color.Opaque(0, 255, 0)
	})

	h := halsrv.New()
	kbd := &fakeKeyboard{
		topology:   [][]int{{1, 0}},
		numLEDs:    2,
		brightness: 50,
	}
	md, err := h.Table().Bind(context.Background(), hal.DeviceInfo{VendorID: 3, ProductID: 3}, kbd)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}

	z := zone.Zone{X: 0, Y: 0, W: 2, H: 1, Enabled: true}
	if err := h.Zones().Set(uint64(md.Handle), z, cv.Width(), cv.Height()); err != nil {
		t.Fatalf("Set zone: %v", err)
	}

	s := newTestScheduler(t, cv, h)
	if err := s.renderDevice(md, cv.Snapshot(), cv.Width(), cv.Height(), h.Zones()); err != nil {
		t.Fatalf("renderDevice: %v", err)
	}

	if len(kbd.sent) != 2 {
		t.Fatalf("expected 2 colors sent, got %d", len(kbd.sent))
	}
	// Column 0 (red) maps to key 1, column 1 (green) maps to key 0, per the
	// topology row {1, 0}; both are scaled by 50% brightness.
	if want := (color.Color{R: 127, A: 255}); kbd.sent[1] != want {
		t.Fatalf("key 1: got %+v, want %+v", kbd.sent[1], want)
	}
	if want := (color.Color{G: 127, A: 255}); kbd.sent[0] != want {
		t.Fatalf("key 0: got %+v, want %+v", kbd.sent[0], want)
	}
}

func TestRenderSkipsUnallocatedDevice(t *testing.T) {
	cv := canvas.New(2, 2)
	h := halsrv.New()

	drv := hal.NewGenericDriver(hal.DeviceInfo{VendorID: 2, ProductID: 2})
	md, err := h.Table().Bind(context.Background(), hal.DeviceInfo{VendorID: 2, ProductID: 2}, drv)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}

	s := newTestScheduler(t, cv, h)

	if err := s.renderDevice(md, cv.Snapshot(), cv.Width(), cv.Height(), h.Zones()); err != nil {
		t.Fatalf("renderDevice for an unallocated device should be a no-op, got %v", err)
	}
}

func TestTickComposesWithoutScripts(t *testing.T) {
	cv := canvas.New(4, 1)
	h := halsrv.New()
	s := newTestScheduler(t, cv, h)

	// tick must not panic with zero loaded scripts and zero bound devices.
	s.tick(context.Background(), time.Now())

	// Wait for the render goroutine (if any was scheduled) to finish so
	// t.Cleanup doesn't race with it; there are no devices, so render
	// returns immediately.
	time.Sleep(10 * time.Millisecond)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	cv := canvas.New(4, 1)
	h := halsrv.New()
	s := newTestScheduler(t, cv, h)

	bus := startTestBus(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, bus.GetConnProvider()) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}

func TestRunTwiceReturnsAlreadyStarted(t *testing.T) {
	cv := canvas.New(4, 1)
	h := halsrv.New()
	s := newTestScheduler(t, cv, h)
	bus := startTestBus(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, bus.GetConnProvider()) }()
	time.Sleep(20 * time.Millisecond)
	defer func() {
		cancel()
		<-done
	}()

	var provider nats.InProcessConnProvider = bus.GetConnProvider()
	if err := s.Run(context.Background(), provider); err != ErrServiceAlreadyStarted {
		t.Fatalf("expected ErrServiceAlreadyStarted, got %v", err)
	}
}
