// SPDX-License-Identifier: BSD-3-Clause

package eventrouter

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/eruption-core/eruptiond/pkg/color"
	"github.com/eruption-core/eruptiond/pkg/hal"
)

type fakeEventDriver struct {
	vendorID, productID uint16
	events              chan hal.RawEvent
	failed              bool
}

func (d *fakeEventDriver) Open(context.Context) error             { return nil }
func (d *fakeEventDriver) SendInitSequence(context.Context) error  { return nil }
func (d *fakeEventDriver) SendShutdownSequence(context.Context) error { return nil }
func (d *fakeEventDriver) SendLEDMap([]color.Color) error          { return nil }
func (d *fakeEventDriver) SetBrightness(int) error                 { return nil }
func (d *fakeEventDriver) GetBrightness() int                      { return 100 }
func (d *fakeEventDriver) NumLEDs() int                            { return 1 }
func (d *fakeEventDriver) DeviceStatus() map[string]string         { return map[string]string{"connected": "true"} }
func (d *fakeEventDriver) HasFailed() bool                         { return d.failed }
func (d *fakeEventDriver) Fail(error)                              { d.failed = true }

func (d *fakeEventDriver) NextEvent(timeout time.Duration) (hal.RawEvent, error) {
	select {
	case ev := <-d.events:
		return ev, nil
	case <-time.After(timeout):
		return hal.RawEvent{Kind: hal.EventTimeout}, nil
	}
}

type fakeScriptHost struct {
	mu   sync.Mutex
	seen []hal.RawEvent
}

func (f *fakeScriptHost) BroadcastInput(ev hal.RawEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, ev)
}

func (f *fakeScriptHost) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seen)
}

func TestRouterBindsAndForwardsEvents(t *testing.T) {
	table := hal.NewTable()
	bt := hal.NewBindingTable()

	drv := &fakeEventDriver{vendorID: 0x1e7d, productID: 0x3098, events: make(chan hal.RawEvent, 1)}
	info := hal.DeviceInfo{VendorID: drv.vendorID, ProductID: drv.productID}
	bt.Register(info, func(hal.DeviceInfo) hal.Driver { return drv })

	host := &fakeScriptHost{}
	r := New(table, bt, host, WithScanInterval(10*time.Millisecond), WithReadTimeout(10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r.bind(ctx, info)

	if len(table.Active()) != 1 {
		t.Fatalf("Active() = %d, want 1 bound+initialized device", len(table.Active()))
	}

	drv.events <- hal.RawEvent{Kind: hal.EventKeyDown, KeyIndex: 5}

	deadline := time.Now().Add(time.Second)
	for host.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if host.count() != 1 {
		t.Fatalf("host saw %d events, want 1", host.count())
	}
}

func TestRouterExcludedDeviceIsSkipped(t *testing.T) {
	table := hal.NewTable()
	bt := hal.NewBindingTable()
	info := hal.DeviceInfo{VendorID: 0xdead, ProductID: 0xbeef}
	bt.Exclude(info)

	host := &fakeScriptHost{}
	r := New(table, bt, host)

	r.bind(context.Background(), info)

	if len(table.All()) != 0 {
		t.Errorf("excluded device should not be registered, got %d", len(table.All()))
	}
}
