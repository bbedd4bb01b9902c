// SPDX-License-Identifier: BSD-3-Clause

package zone

import "testing"

func TestSetAndGet(t *testing.T) {
	a := NewAllocator()
	z := Zone{X: 0, Y: 0, W: 10, H: 1, Enabled: true}
	if err := a.Set(1, z, 20, 5); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := a.Get(1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != z {
		t.Errorf("Get(1) = %+v, want %+v", got, z)
	}
}

func TestSetOutOfBounds(t *testing.T) {
	a := NewAllocator()
	z := Zone{X: 15, Y: 0, W: 10, H: 1}
	if err := a.Set(1, z, 20, 5); err != ErrZoneOutOfBounds {
		t.Errorf("Set out-of-bounds = %v, want %v", err, ErrZoneOutOfBounds)
	}
}

func TestGetUnknownDevice(t *testing.T) {
	a := NewAllocator()
	if _, err := a.Get(99); err != ErrDeviceNotFound {
		t.Errorf("Get(unknown) = %v, want %v", err, ErrDeviceNotFound)
	}
}

func TestRemove(t *testing.T) {
	a := NewAllocator()
	_ = a.Set(1, Zone{W: 1, H: 1}, 10, 10)
	a.Remove(1)
	if _, err := a.Get(1); err != ErrDeviceNotFound {
		t.Errorf("Get after Remove = %v, want %v", err, ErrDeviceNotFound)
	}
}
