// SPDX-License-Identifier: BSD-3-Clause

package slot

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/eruption-core/eruptiond/pkg/profile"
)

type fakeHost struct {
	mu     sync.Mutex
	loaded []string
}

func (f *fakeHost) UnloadAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loaded = nil
}

func (f *fakeHost) Load(_ context.Context, name, _ string, _ map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loaded = append(f.loaded, name)
	return nil
}

func TestSetSlotNamesRejectsWrongLength(t *testing.T) {
	m := NewManager()
	if err := m.SetSlotNames([]string{"only one"}); err == nil {
		t.Errorf("SetSlotNames with wrong length should fail")
	}
}

func TestSlotNamesPersistAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "slot_names")

	m1 := NewManager(WithNamesPath(path))
	want := []string{"a", "b", "c", "d", "e", "f"}
	if err := m1.SetSlotNames(want); err != nil {
		t.Fatalf("SetSlotNames: %v", err)
	}

	m2 := NewManager(WithNamesPath(path))
	got := m2.GetSlotNames()
	for i, w := range want {
		if got[i] != w {
			t.Errorf("names[%d] = %q, want %q", i, got[i], w)
		}
	}
}

func TestSwitchSlotRequiresBoundProfile(t *testing.T) {
	m := NewManager()
	if err := m.SwitchSlot(context.Background(), 1); err == nil {
		t.Errorf("SwitchSlot on an unbound slot should fail")
	}
}

func TestSwitchSlotOutOfRange(t *testing.T) {
	m := NewManager()
	if err := m.SwitchSlot(context.Background(), NumSlots); err == nil {
		t.Errorf("SwitchSlot(NumSlots) should fail, indices are 0..NumSlots-1")
	}
}

func TestSwitchSlotLoadsScriptsAndFiresCallback(t *testing.T) {
	host := &fakeHost{}
	var firedSlot = -1

	m := NewManager(
		WithScriptHost(host),
		WithOnActiveSlotChanged(func(i int) { firedSlot = i }),
	)
	m.readScript = func(path string) (string, error) { return "function on_tick() {}", nil }

	p := &profile.Profile{Name: "test", ActiveScripts: []string{"a.js", "b.js"}}
	if err := m.BindProfile(2, p); err != nil {
		t.Fatalf("BindProfile: %v", err)
	}

	if err := m.SwitchSlot(context.Background(), 2); err != nil {
		t.Fatalf("SwitchSlot: %v", err)
	}

	if m.ActiveSlot() != 2 {
		t.Errorf("ActiveSlot() = %d, want 2", m.ActiveSlot())
	}
	if firedSlot != 2 {
		t.Errorf("onActiveSlot fired with %d, want 2", firedSlot)
	}
	if len(host.loaded) != 2 {
		t.Errorf("loaded = %v, want 2 scripts", host.loaded)
	}
}
