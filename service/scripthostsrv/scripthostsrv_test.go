// SPDX-License-Identifier: BSD-3-Clause

package scripthostsrv

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	ipcsrv "github.com/eruption-core/eruptiond/service/ipc"
)

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

func TestNewWithCanvasDimensionsHasNoScripts(t *testing.T) {
	s := New(WithCanvasDimensions(8, 2))

	host := s.Host()
	if host == nil {
		t.Fatal("expected a non-nil script host")
	}

	// Host exposes no width/height accessor of its own; a zero-script
	// Frames() call still must not panic regardless of canvas shape.
	if frames := host.Frames(); len(frames) != 0 {
		t.Fatalf("expected no loaded scripts, got %d frames", len(frames))
	}
}

func TestNameDefault(t *testing.T) {
	s := New()
	if s.Name() != DefaultServiceName {
		t.Fatalf("Name() = %q, want %q", s.Name(), DefaultServiceName)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	bus := startTestBus(t)
	s := New()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx, bus.GetConnProvider()) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != context.Canceled {
			t.Fatalf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancel")
	}

	if faulted := s.Host().FaultedScripts(); len(faulted) != 0 {
		t.Fatalf("expected no faulted scripts after shutdown, got %v", faulted)
	}
}

func TestRunTwiceReturnsAlreadyStarted(t *testing.T) {
	bus := startTestBus(t)
	s := New()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx, bus.GetConnProvider()) }()

	time.Sleep(20 * time.Millisecond)

	var provider nats.InProcessConnProvider = bus.GetConnProvider()
	if err := s.Run(context.Background(), provider); err != ErrServiceAlreadyStarted {
		t.Fatalf("second Run() error = %v, want ErrServiceAlreadyStarted", err)
	}

	cancel()
	<-errCh
}
