// SPDX-License-Identifier: BSD-3-Clause

package hal

// DriverConstructor builds a concrete driver for a bound DeviceInfo.
type DriverConstructor func(info DeviceInfo) Driver

// BindingTable maps a (vendor_id, product_id) pair to a concrete driver
// constructor. Pairs absent from the table are bound to GenericDriver;
// pairs present with a nil constructor are explicitly excluded and
// Bind returns ErrDeviceNotSupported for them.
type BindingTable struct {
	entries map[DeviceInfo]DriverConstructor
}

// NewBindingTable creates an empty binding table.
func NewBindingTable() *BindingTable {
	return &BindingTable{entries: make(map[DeviceInfo]DriverConstructor)}
}

// Register adds a concrete driver constructor for the given device pair.
func (t *BindingTable) Register(info DeviceInfo, ctor DriverConstructor) {
	t.entries[info] = ctor
}

// Exclude marks a device pair as explicitly unsupported; Bind will refuse
// it with ErrDeviceNotSupported instead of falling back to GenericDriver.
func (t *BindingTable) Exclude(info DeviceInfo) {
	t.entries[info] = nil
}

// Bind selects a driver constructor for info: the registered concrete
// constructor if present, GenericDriver if the pair is unknown, or
// ErrDeviceNotSupported if the pair has been explicitly excluded.
func (t *BindingTable) Bind(info DeviceInfo) (Driver, error) {
	ctor, known := t.entries[info]
	if known && ctor == nil {
		return nil, ErrDeviceNotSupported
	}
	if known {
		return ctor(info), nil
	}
	return NewGenericDriver(info), nil
}
