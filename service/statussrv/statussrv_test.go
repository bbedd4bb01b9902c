// SPDX-License-Identifier: BSD-3-Clause

package statussrv

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHealthzAndStatusz(t *testing.T) {
	s := New(WithAddr("127.0.0.1:0"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, nil) }()
	defer func() {
		cancel()
		<-done
	}()

	// Run binds an ephemeral port (":0"), so this test exercises the
	// handlers directly rather than dialing the live listener.
	time.Sleep(20 * time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.handleHealthz(rec, req)

	var health healthzResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatalf("decoding healthz response: %v", err)
	}
	if !health.OK {
		t.Fatal("expected healthz OK=true")
	}

	time.Sleep(5 * time.Millisecond)

	statusReq := httptest.NewRequest(http.MethodGet, "/statusz", nil)
	statusRec := httptest.NewRecorder()
	s.handleStatusz(statusRec, statusReq)

	var status statuszResponse
	if err := json.Unmarshal(statusRec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decoding statusz response: %v", err)
	}
	if status.UptimeSeconds <= 0 {
		t.Fatalf("expected positive uptime, got %f", status.UptimeSeconds)
	}
}

func TestRunTwiceReturnsAlreadyStarted(t *testing.T) {
	s := New(WithAddr("127.0.0.1:0"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, nil) }()
	time.Sleep(20 * time.Millisecond)
	defer func() {
		cancel()
		<-done
	}()

	if err := s.Run(context.Background(), nil); err != ErrServiceAlreadyStarted {
		t.Fatalf("expected ErrServiceAlreadyStarted, got %v", err)
	}
}
