// SPDX-License-Identifier: BSD-3-Clause

package slot

import "errors"

var (
	// ErrSlotOutOfRange is returned for any slot index outside [0,NumSlots).
	ErrSlotOutOfRange = errors.New("slot: index out of range")

	// ErrSlotNamesLength is returned by SetSlotNames when given other than
	// exactly NumSlots names.
	ErrSlotNamesLength = errors.New("slot: must supply exactly NumSlots names")

	// ErrSwitchTimeout is returned when quiescing the outgoing profile's
	// scripts did not complete before the switch deadline.
	ErrSwitchTimeout = errors.New("slot: switch quiescence timed out, workers force-terminated")

	// ErrNoProfileBound is returned by SwitchSlot when the target slot has
	// never been bound to a profile.
	ErrNoProfileBound = errors.New("slot: target slot has no bound profile")
)
