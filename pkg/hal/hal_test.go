// SPDX-License-Identifier: BSD-3-Clause

package hal

import (
	"context"
	"testing"

	"github.com/eruption-core/eruptiond/pkg/color"
)

func TestBindingTableFallsBackToGeneric(t *testing.T) {
	table := NewBindingTable()
	drv, err := table.Bind(DeviceInfo{VendorID: 0x1234, ProductID: 0x5678})
	if err != nil {
		t.Fatalf("Bind unknown pair: %v", err)
	}
	if _, ok := drv.(*GenericDriver); !ok {
		t.Errorf("Bind unknown pair = %T, want *GenericDriver", drv)
	}
}

func TestBindingTableExcludedPair(t *testing.T) {
	table := NewBindingTable()
	info := DeviceInfo{VendorID: 0x1, ProductID: 0x2}
	table.Exclude(info)
	if _, err := table.Bind(info); err != ErrDeviceNotSupported {
		t.Errorf("Bind excluded pair = %v, want %v", err, ErrDeviceNotSupported)
	}
}

func TestBindingTableRegisteredConstructor(t *testing.T) {
	table := NewBindingTable()
	info := DeviceInfo{VendorID: 0x3, ProductID: 0x4}
	called := false
	table.Register(info, func(i DeviceInfo) Driver {
		called = true
		return NewGenericDriver(i)
	})
	if _, err := table.Bind(info); err != nil {
		t.Fatalf("Bind registered pair: %v", err)
	}
	if !called {
		t.Errorf("registered constructor was not invoked")
	}
}

func TestDeviceTableLifecycle(t *testing.T) {
	ctx := context.Background()
	tbl := NewTable()
	drv := NewGenericDriver(DeviceInfo{VendorID: 1, ProductID: 1})

	md, err := tbl.Bind(ctx, DeviceInfo{VendorID: 1, ProductID: 1}, drv)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if md.State() != StateBound {
		t.Errorf("after Bind, state = %s, want %s", md.State(), StateBound)
	}

	if err := md.Fire(ctx, TriggerOpen); err != nil {
		t.Fatalf("Fire open: %v", err)
	}
	if err := md.Fire(ctx, TriggerInit); err != nil {
		t.Fatalf("Fire init: %v", err)
	}
	if md.State() != StateInitialized {
		t.Errorf("after init, state = %s, want %s", md.State(), StateInitialized)
	}

	active := tbl.Active()
	if len(active) != 1 || active[0].Handle != md.Handle {
		t.Errorf("Active() = %+v, want single entry for handle %d", active, md.Handle)
	}

	if err := md.Fire(ctx, TriggerFail); err != nil {
		t.Fatalf("Fire fail: %v", err)
	}
	if len(tbl.Active()) != 0 {
		t.Errorf("Active() after fail should be empty")
	}
}

func TestGenericDriverIsSafeNoOp(t *testing.T) {
	ctx := context.Background()
	drv := NewGenericDriver(DeviceInfo{VendorID: 9, ProductID: 9})
	if err := drv.Open(ctx); err != nil {
		t.Errorf("Open: %v", err)
	}
	if err := drv.SendLEDMap(make([]color.Color, drv.NumLEDs())); err != nil {
		t.Errorf("SendLEDMap: %v", err)
	}
	if drv.HasFailed() {
		t.Errorf("new generic driver should not be failed")
	}
}
