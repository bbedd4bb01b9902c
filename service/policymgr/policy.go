// SPDX-License-Identifier: BSD-3-Clause

package policymgr

// PermissionTag classifies how an RPC method may be called, mirroring the
// three tags carried by the Canvas/Config/Devices/Profile/Slot/Status surface.
type PermissionTag int

const (
	// Monitor-tagged methods are world-readable; no caller identity is required.
	Monitor PermissionTag = iota
	// Settings-tagged methods require a known, non-empty caller identity.
	Settings
	// Manage-tagged methods require the caller identity to be in the manager set.
	Manage
)

func (t PermissionTag) String() string {
	switch t {
	case Monitor:
		return "Monitor"
	case Settings:
		return "Settings"
	case Manage:
		return "Manage"
	default:
		return "Unknown"
	}
}

// Check evaluates whether callerID may invoke a method tagged with tag.
// An empty callerID represents an unauthenticated caller.
func (c *config) Check(tag PermissionTag, callerID string) error {
	switch tag {
	case Monitor:
		return nil
	case Settings:
		if callerID == "" && !c.allowAnonymousSettings {
			return ErrAuthenticationFailed
		}
		return nil
	case Manage:
		if callerID == "" {
			return ErrAuthenticationFailed
		}
		if _, ok := c.managers[callerID]; !ok {
			return ErrPermissionDenied
		}
		return nil
	default:
		return ErrUnknownPermissionTag
	}
}
