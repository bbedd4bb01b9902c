// SPDX-License-Identifier: BSD-3-Clause

package scripthostsrv

import "errors"

var (
	// ErrServiceAlreadyStarted is returned when Run is called more than once
	// on the same instance.
	ErrServiceAlreadyStarted = errors.New("scripthostsrv: service already started")

	// ErrNATSConnectionFailed is returned when the in-process NATS connection
	// cannot be established.
	ErrNATSConnectionFailed = errors.New("scripthostsrv: failed to connect to embedded NATS server")
)
