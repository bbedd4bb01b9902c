// SPDX-License-Identifier: BSD-3-Clause

package audiobridge

import "errors"

var (
	// ErrListenFailed is returned when the Unix domain socket cannot be
	// created.
	ErrListenFailed = errors.New("audiobridge: failed to listen on socket")

	// ErrFrameTooLarge is returned when a peer announces a frame length
	// beyond the bridge's sanity bound.
	ErrFrameTooLarge = errors.New("audiobridge: frame exceeds maximum size")
)
