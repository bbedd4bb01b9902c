// SPDX-License-Identifier: BSD-3-Clause

package eventrouter

import "errors"

// ErrNoEventSource is returned when a device's bound driver implements
// neither the Keyboard nor Mouse event-producing sub-contract.
var ErrNoEventSource = errors.New("eventrouter: device driver has no input event stream")
