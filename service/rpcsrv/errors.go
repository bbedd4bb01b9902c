// SPDX-License-Identifier: BSD-3-Clause

package rpcsrv

import "errors"

var (
	// ErrServiceAlreadyStarted is returned when Run is called more than once
	// on the same instance.
	ErrServiceAlreadyStarted = errors.New("rpcsrv: service already started")

	// ErrNATSConnectionFailed is returned when the in-process NATS connection
	// cannot be established.
	ErrNATSConnectionFailed = errors.New("rpcsrv: failed to connect to embedded NATS server")

	// ErrMissingDependency is returned when Run is called before every
	// required accessor (hal, scripts, profiles, policy, canvas, settings) is wired.
	ErrMissingDependency = errors.New("rpcsrv: a required dependency is not configured")

	// ErrInvalidRequest is returned for a malformed or unparsable request payload.
	ErrInvalidRequest = errors.New("rpcsrv: invalid request")

	// ErrDeviceNotFound is returned when a request names an unknown device handle.
	ErrDeviceNotFound = errors.New("rpcsrv: device not found")

	// ErrUnsafePath is returned when write_file names a path outside the
	// configured profile directory.
	ErrUnsafePath = errors.New("rpcsrv: path escapes the managed directory")
)
