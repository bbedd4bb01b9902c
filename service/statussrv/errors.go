// SPDX-License-Identifier: BSD-3-Clause

package statussrv

import "errors"

var (
	// ErrServiceAlreadyStarted is returned when Run is called more than once
	// on the same instance.
	ErrServiceAlreadyStarted = errors.New("statussrv: service already started")

	// ErrCreateListener indicates a failure to bind the status server's
	// listen address.
	ErrCreateListener = errors.New("statussrv: failed to create listener")

	// ErrHTTPServer indicates the HTTP server reported an error other than
	// a clean shutdown.
	ErrHTTPServer = errors.New("statussrv: HTTP server error")
)
