// SPDX-License-Identifier: BSD-3-Clause

package scheduler

import "errors"

var (
	// ErrServiceAlreadyStarted is returned when Run is called more than once
	// on the same instance.
	ErrServiceAlreadyStarted = errors.New("scheduler: service already started")

	// ErrNATSConnectionFailed is returned when the in-process NATS connection
	// cannot be established.
	ErrNATSConnectionFailed = errors.New("scheduler: failed to connect to embedded NATS server")

	// ErrMissingDependency is returned when Run is called before every
	// required accessor (scripts, hal, canvas, settings) is wired.
	ErrMissingDependency = errors.New("scheduler: a required dependency is not configured")
)
