// SPDX-License-Identifier: BSD-3-Clause

package hal

import "github.com/karalabe/hid"

// Scan enumerates every HID device currently present on the bus, returning
// one DeviceInfo per distinct (vendor_id, product_id) pair. Called on
// startup and again whenever the hotplug watcher observes a bus change.
func Scan() []DeviceInfo {
	seen := make(map[DeviceInfo]struct{})
	var out []DeviceInfo

	for _, d := range hid.Enumerate(0, 0) {
		info := DeviceInfo{VendorID: d.VendorID, ProductID: d.ProductID}
		if _, ok := seen[info]; ok {
			continue
		}
		seen[info] = struct{}{}
		out = append(out, info)
	}

	return out
}
