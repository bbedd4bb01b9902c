// SPDX-License-Identifier: BSD-3-Clause

package scripthost

import "errors"

var (
	// ErrScriptNotFound is returned when an operation references an unloaded script.
	ErrScriptNotFound = errors.New("script not found")

	// ErrScriptFaulted is returned when a parameter update targets a faulted script.
	ErrScriptFaulted = errors.New("script is faulted")

	// ErrQueueFull reports that a worker's bounded queue had no room. No
	// function in this package returns it: the drop-oldest-non-Tick policy
	// makes room instead.
	ErrQueueFull = errors.New("script worker queue full")

	// ErrEntryPointFailed wraps a panic or thrown JS exception from a script entry point.
	ErrEntryPointFailed = errors.New("script entry point failed")
)
