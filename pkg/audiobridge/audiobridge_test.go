// SPDX-License-Identifier: BSD-3-Clause

package audiobridge

import (
	"context"
	"math"
	"net"
	"path/filepath"
	"testing"
	"time"
)

func TestBridgeDecodesFrameIntoSpectrum(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "audio.sock")

	received := make(chan []float64, 4)
	b := New(
		WithSocketPath(socketPath),
		WithBandCount(8),
		WithOnSpectrum(func(bins []float64) { received <- bins }),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- b.Run(ctx) }()

	var conn net.Conn
	var err error
	for i := 0; i < 50; i++ {
		conn, err = net.Dial("unix", socketPath)
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("dialing bridge socket: %v", err)
	}
	defer conn.Close()

	samples := make([]int16, 512)
	for i := range samples {
		// A synthetic tone so the band-energy output is nonzero.
		samples[i] = int16(10000 * math.Sin(2*math.Pi*440*float64(i)/float64(SampleRate)))
	}
	if err := WriteFrame(conn, samples); err != nil {
		t.Fatalf("writing frame: %v", err)
	}

	select {
	case bins := <-received:
		if len(bins) != 8 {
			t.Fatalf("got %d bins, want 8", len(bins))
		}
		var sum float64
		for _, v := range bins {
			sum += v
		}
		if sum <= 0 {
			t.Fatal("expected nonzero spectrum energy for a synthetic tone")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for decoded spectrum")
	}

	cancel()
	select {
	case err := <-errCh:
		if err != context.Canceled {
			t.Fatalf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestBridgeDisabledForwardsZeroSpectrum(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "audio.sock")

	received := make(chan []float64, 4)
	b := New(
		WithSocketPath(socketPath),
		WithBandCount(4),
		WithOnSpectrum(func(bins []float64) { received <- bins }),
	)
	b.SetEnabled(false)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go b.Run(ctx) //nolint:errcheck

	var conn net.Conn
	var err error
	for i := 0; i < 50; i++ {
		conn, err = net.Dial("unix", socketPath)
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("dialing bridge socket: %v", err)
	}
	defer conn.Close()

	samples := make([]int16, 256)
	for i := range samples {
		samples[i] = 20000
	}
	if err := WriteFrame(conn, samples); err != nil {
		t.Fatalf("writing frame: %v", err)
	}

	select {
	case bins := <-received:
		for _, v := range bins {
			if v != 0 {
				t.Fatalf("expected all-zero spectrum while disabled, got %v", bins)
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for decoded spectrum")
	}
}
