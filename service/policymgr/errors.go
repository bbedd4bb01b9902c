// SPDX-License-Identifier: BSD-3-Clause

package policymgr

import "errors"

var (
	// ErrAuthenticationFailed is returned when a caller identity is required
	// but absent from the request.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrPermissionDenied is returned when an authenticated caller is not
	// authorized for the requested permission tag.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrUnknownPermissionTag is returned when a method is registered with a
	// permission tag outside {Monitor, Settings, Manage}.
	ErrUnknownPermissionTag = errors.New("unknown permission tag")
)
