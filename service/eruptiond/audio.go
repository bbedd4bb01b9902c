// SPDX-License-Identifier: BSD-3-Clause

package eruptiond

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/eruption-core/eruptiond/pkg/audiobridge"
	"github.com/eruption-core/eruptiond/service"
)

// audioBridgeService adapts pkg/audiobridge.Bridge (which takes no IPC
// connection, since it only ever talks to the audio proxy helper over its
// own Unix socket) to the uniform service.Service shape so the orchestrator
// discovers and supervises it like every other daemon subsystem.
type audioBridgeService struct {
	name   string
	bridge *audiobridge.Bridge
}

var _ service.Service = (*audioBridgeService)(nil)

func (a *audioBridgeService) Name() string { return a.name }

func (a *audioBridgeService) Run(ctx context.Context, _ nats.InProcessConnProvider) error {
	return a.bridge.Run(ctx)
}
