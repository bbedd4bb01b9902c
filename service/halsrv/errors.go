// SPDX-License-Identifier: BSD-3-Clause

package halsrv

import "errors"

var (
	// ErrServiceAlreadyStarted is returned when Run is called more than once
	// on the same instance.
	ErrServiceAlreadyStarted = errors.New("halsrv: service already started")

	// ErrNATSConnectionFailed is returned when the in-process NATS connection
	// cannot be established.
	ErrNATSConnectionFailed = errors.New("halsrv: failed to connect to embedded NATS server")

	// ErrUnknownDevice is returned when a caller references a device handle
	// with no entry in the device table.
	ErrUnknownDevice = errors.New("halsrv: unknown device handle")
)
