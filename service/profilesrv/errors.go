// SPDX-License-Identifier: BSD-3-Clause

package profilesrv

import "errors"

var (
	// ErrServiceAlreadyStarted is returned when Run is called more than once
	// on the same instance.
	ErrServiceAlreadyStarted = errors.New("profilesrv: service already started")

	// ErrNATSConnectionFailed is returned when the in-process NATS connection
	// cannot be established.
	ErrNATSConnectionFailed = errors.New("profilesrv: failed to connect to embedded NATS server")

	// ErrProfileDirEmpty is returned when no profile directory is configured.
	ErrProfileDirEmpty = errors.New("profilesrv: no profile directory configured")
)
