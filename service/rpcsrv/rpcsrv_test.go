// SPDX-License-Identifier: BSD-3-Clause

package rpcsrv

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/eruption-core/eruptiond/pkg/canvas"
	"github.com/eruption-core/eruptiond/pkg/compositor"
	"github.com/eruption-core/eruptiond/pkg/ipc"
	"github.com/eruption-core/eruptiond/service/halsrv"
	ipcsrv "github.com/eruption-core/eruptiond/service/ipc"
	"github.com/eruption-core/eruptiond/service/policymgr"
	"github.com/eruption-core/eruptiond/service/profilesrv"
	"github.com/eruption-core/eruptiond/service/scripthostsrv"
)

// startTestBus starts a real embedded NATS server and returns a client
// connection plus the in-process connection provider, mirroring how
// service/eruptiond wires every service's Run call.
func startTestBus(t *testing.T) (*ipcsrv.IPC, *nats.Conn) {
	t.Helper()

	bus := ipcsrv.New(ipcsrv.WithStoreDir(t.TempDir()), ipcsrv.WithJetStream(false))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- bus.Run(ctx, nil) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	provider := bus.GetConnProvider()

	nc, err := nats.Connect("", nats.InProcessServer(provider))
	if err != nil {
		t.Fatalf("connecting to test bus: %v", err)
	}
	t.Cleanup(nc.Close)

	return bus, nc
}

func newTestRPCSrv(t *testing.T) (*RPCSrv, *nats.Conn, func()) {
	t.Helper()

	bus, nc := startTestBus(t)

	hsrv := halsrv.New()
	ssrv := scripthostsrv.New()
	psrv := profilesrv.New()
	policy := policymgr.New(policymgr.WithAllowAnonymousSettings(true), policymgr.WithManagers("root"))

	s := New(
		WithHal(hsrv),
		WithScriptHost(ssrv),
		WithProfiles(psrv),
		WithPolicy(policy),
		WithCanvas(canvas.New(8, 1)),
		WithSettings(compositor.NewSettingsStore()),
		WithMetrics(false),
	)

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() {
		runErr <- s.Run(ctx, bus.GetConnProvider())
	}()

	// Give Run a moment to finish registering endpoints before the test
	// issues requests.
	time.Sleep(50 * time.Millisecond)

	stop := func() {
		cancel()
		<-runErr
	}
	return s, nc, stop
}

func request(t *testing.T, nc *nats.Conn, subject string, in, out interface{}) {
	t.Helper()

	var data []byte
	if in != nil {
		var err error
		data, err = json.Marshal(in)
		if err != nil {
			t.Fatalf("marshaling request: %v", err)
		}
	}

	msg, err := nc.Request(subject, data, 2*time.Second)
	if err != nil {
		t.Fatalf("request to %s: %v", subject, err)
	}
	if len(msg.Header) > 0 && msg.Header.Get("Nats-Service-Error") != "" {
		t.Fatalf("request to %s returned service error: %s", subject, msg.Header.Get("Nats-Service-Error"))
	}
	if out != nil {
		if err := json.Unmarshal(msg.Data, out); err != nil {
			t.Fatalf("unmarshaling response from %s: %v (%s)", subject, err, msg.Data)
		}
	}
}

func TestStatusRunning(t *testing.T) {
	_, nc, stop := newTestRPCSrv(t)
	defer stop()

	var resp statusRunningResponse
	request(t, nc, ipc.SubjectStatusRunning, nil, &resp)
	if !resp.Running {
		t.Fatal("expected Running=true")
	}
}

func TestCanvasHueGetAndSet(t *testing.T) {
	_, nc, stop := newTestRPCSrv(t)
	defer stop()

	var get floatProperty
	request(t, nc, ipc.SubjectCanvasHue, floatProperty{}, &get)
	if get.Value == nil || *get.Value != 0 {
		t.Fatalf("expected default hue 0, got %+v", get.Value)
	}

	v := 180.0
	var set floatProperty
	request(t, nc, ipc.SubjectCanvasHue, floatProperty{Value: &v}, &set)
	if set.Value == nil || *set.Value != 180 {
		t.Fatalf("expected hue 180 after set, got %+v", set.Value)
	}

	var readback floatProperty
	request(t, nc, ipc.SubjectCanvasHue, floatProperty{}, &readback)
	if readback.Value == nil || *readback.Value != 180 {
		t.Fatalf("expected hue to persist across requests, got %+v", readback.Value)
	}
}

func TestCanvasSetZoneValidatesBounds(t *testing.T) {
	_, nc, stop := newTestRPCSrv(t)
	defer stop()

	// Canvas is 8x1; a zone entirely within bounds should succeed.
	in := zoneEntry{DeviceHandle: 1, X: 0, Y: 0, W: 4, H: 1, Enabled: true}
	var out zoneEntry
	request(t, nc, ipc.SubjectCanvasSetZone, in, &out)
	if out.W != 4 {
		t.Fatalf("expected zone to round-trip, got %+v", out)
	}

	var zones zoneMapResponse
	request(t, nc, ipc.SubjectCanvasGetZones, nil, &zones)
	if len(zones.Zones) != 1 || zones.Zones[0].DeviceHandle != 1 {
		t.Fatalf("expected one zone for handle 1, got %+v", zones.Zones)
	}
}

func TestConfigSetColorSchemeRoundTrips(t *testing.T) {
	_, nc, stop := newTestRPCSrv(t)
	defer stop()

	in := colorSchemeRequest{Name: "sunset", Colors: []string{"#ff8000ff", "#000080ff"}}
	var ok okResponse
	request(t, nc, ipc.SubjectConfigSetColorScheme, in, &ok)
	if !ok.OK {
		t.Fatal("expected ok response")
	}

	var schemes colorSchemesResponse
	request(t, nc, ipc.SubjectConfigGetColorSchemes, nil, &schemes)
	got, found := schemes.Schemes["sunset"]
	if !found || len(got) != 2 {
		t.Fatalf("expected stored scheme to round-trip, got %+v", schemes.Schemes)
	}
}

func TestConfigSetColorSchemeRejectsBadHex(t *testing.T) {
	_, nc, stop := newTestRPCSrv(t)
	defer stop()

	in := colorSchemeRequest{Name: "broken", Colors: []string{"not-a-color"}}
	data, _ := json.Marshal(in)
	msg, err := nc.Request(ipc.SubjectConfigSetColorScheme, data, 2*time.Second)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if msg.Header.Get("Nats-Service-Error") == "" {
		t.Fatal("expected a service error for an invalid hex color")
	}
}

func TestDevicesGetManagedEmpty(t *testing.T) {
	_, nc, stop := newTestRPCSrv(t)
	defer stop()

	var resp devicesManagedResponse
	request(t, nc, ipc.SubjectDevicesGetManaged, nil, &resp)
	if len(resp.Devices) != 0 {
		t.Fatalf("expected no managed devices, got %+v", resp.Devices)
	}
}

func TestDevicesSetEnabledRequiresKnownZone(t *testing.T) {
	_, nc, stop := newTestRPCSrv(t)
	defer stop()

	req := struct {
		DeviceHandle uint64 `json:"device_handle"`
		Enabled      bool   `json:"enabled"`
	}{DeviceHandle: 42, Enabled: false}
	data, _ := json.Marshal(req)
	msg, err := nc.Request(ipc.SubjectDevicesSetEnabled, data, 2*time.Second)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if msg.Header.Get("Nats-Service-Error") == "" {
		t.Fatal("expected a service error for an unknown device handle")
	}
}

func TestSlotActiveDefaultsToZero(t *testing.T) {
	_, nc, stop := newTestRPCSrv(t)
	defer stop()

	var resp slotActiveResponse
	request(t, nc, ipc.SubjectSlotActive, nil, &resp)
	if resp.Slot != 0 {
		t.Fatalf("expected slot 0 by default, got %d", resp.Slot)
	}
}

func TestSlotNamesGetAndSet(t *testing.T) {
	_, nc, stop := newTestRPCSrv(t)
	defer stop()

	names := []string{"Gaming", "Work", "Ambient", "Movie", "Reading", "Party"}
	var set slotNamesResponse
	request(t, nc, ipc.SubjectSlotNames, slotNamesRequest{Names: names}, &set)
	for i, n := range names {
		if set.Names[i] != n {
			t.Fatalf("expected slot name %d to be %q, got %q", i, n, set.Names[i])
		}
	}

	var get slotNamesResponse
	request(t, nc, ipc.SubjectSlotNames, slotNamesRequest{}, &get)
	if get.Names[0] != "Gaming" {
		t.Fatalf("expected names to persist, got %+v", get.Names)
	}
}

func TestDependenciesRequiredForRun(t *testing.T) {
	bus, _ := startTestBus(t)
	s := New() // no WithHal/WithScriptHost/etc.

	err := s.Run(context.Background(), bus.GetConnProvider())
	if err != ErrMissingDependency {
		t.Fatalf("expected ErrMissingDependency, got %v", err)
	}
}

func TestRunTwiceReturnsAlreadyStarted(t *testing.T) {
	s, _, stop := newTestRPCSrv(t)
	defer stop()

	err := s.Run(context.Background(), nil)
	if err != ErrServiceAlreadyStarted {
		t.Fatalf("expected ErrServiceAlreadyStarted, got %v", err)
	}
}
