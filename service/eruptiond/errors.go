// SPDX-License-Identifier: BSD-3-Clause

package eruptiond

import "errors"

var (
	// ErrNameEmpty is returned when the daemon is started without a configured name.
	ErrNameEmpty = errors.New("daemon name cannot be empty")

	// ErrIPCNil is returned when neither an IPC service nor an external
	// connection provider is available to the daemon.
	ErrIPCNil = errors.New("no IPC connection provider available")

	// ErrAddProcess is returned when a service cannot be added to the supervision tree.
	ErrAddProcess = errors.New("failed to add process")

	// ErrAddExtraService is returned when a user-supplied extra service cannot
	// be added to the supervision tree.
	ErrAddExtraService = errors.New("failed to add extra service")

	// ErrPanicked is returned when the daemon recovers from a panic during Run.
	ErrPanicked = errors.New("daemon panicked")
)
