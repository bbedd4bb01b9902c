// SPDX-License-Identifier: BSD-3-Clause

package eruptiond

import (
	"context"
	"testing"
	"time"

	ipcsrv "github.com/eruption-core/eruptiond/service/ipc"
	"github.com/eruption-core/eruptiond/service/profilesrv"
	"github.com/eruption-core/eruptiond/service/rpcsrv"
	"github.com/eruption-core/eruptiond/service/scheduler"
)

// startTestBus starts a real embedded NATS server, mirroring how
// service/eruptiond's own Run wires every service's connection.
func startTestBus(t *testing.T) *ipcsrv.IPC {
	t.Helper()

	bus := ipcsrv.New(ipcsrv.WithStoreDir(t.TempDir()), ipcsrv.WithJetStream(false))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- bus.Run(ctx, nil) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return bus
}

func newTestDaemon(t *testing.T) *Daemon {
	t.Helper()

	return New(
		WithID("test-instance"),
		WithDisableLogo(true),
		WithCanvasDimensions(4, 1),
		WithProfilesrv(profilesrv.WithProfileDir(t.TempDir())),
	)
}

func TestNewBuildsServiceAccessors(t *testing.T) {
	d := newTestDaemon(t)

	if d.Halsrv.Table() == nil {
		t.Fatal("expected Halsrv to own a non-nil device table")
	}
	if d.Scripthostsrv.Host() == nil {
		t.Fatal("expected Scripthostsrv to own a non-nil script host")
	}

	// halsrv's and profilesrv's script host fields are unexported, so this
	// test cannot see whether they hold the host scripthostsrv owns. It
	// checks that this host starts with no scripts loaded and takes a
	// broadcast tick without a panic.
	host := d.Scripthostsrv.Host()
	if host.BroadcastTick(); len(host.Frames()) != 0 {
		t.Fatalf("expected zero frames with no scripts loaded, got %d", len(host.Frames()))
	}
}

func TestRunFeedsDependenciesToRpcsrvAndScheduler(t *testing.T) {
	d := newTestDaemon(t)

	bus := startTestBus(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rpcErrCh := make(chan error, 1)
	go func() { rpcErrCh <- d.Rpcsrv.Run(ctx, bus.GetConnProvider()) }()

	schedErrCh := make(chan error, 1)
	go func() { schedErrCh <- d.Scheduler.Run(ctx, bus.GetConnProvider()) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	if err := <-rpcErrCh; err == rpcsrv.ErrMissingDependency {
		t.Fatal("Rpcsrv.Run returned ErrMissingDependency: New failed to wire its dependencies")
	}
	if err := <-schedErrCh; err == scheduler.ErrMissingDependency {
		t.Fatal("Scheduler.Run returned ErrMissingDependency: New failed to wire its dependencies")
	}
}
