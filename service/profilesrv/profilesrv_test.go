// SPDX-License-Identifier: BSD-3-Clause

package profilesrv

import (
	"context"
	"os"
	"path/filepath"
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

const manifestTOML = `
name = "Solid Color"
version = "0.1.0"
min_engine_version = "0.1.0"

[[parameters]]
name = "speed"
type = "float"
default = 1.0
min = 0.0
max = 10.0
`

const profileTOML = `
name = "test"
description = "d"
active_scripts = ["a.js"]
`

func writeProfileFixture(t *testing.T) (profileDir, scriptDir string) {
	t.Helper()

	profileDir = t.TempDir()
	scriptDir = t.TempDir()

	if err := os.WriteFile(filepath.Join(profileDir, "a.js.manifest"), []byte(manifestTOML), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(profileDir, "test.profile"), []byte(profileTOML), 0o644); err != nil {
		t.Fatalf("write profile: %v", err)
	}
	if err := os.WriteFile(filepath.Join(scriptDir, "a.js"), []byte("function on_tick() {}"), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}

	return profileDir, scriptDir
}

func TestNameDefault(t *testing.T) {
	s := New()
	if s.Name() != DefaultServiceName {
		t.Fatalf("Name() = %q, want %q", s.Name(), DefaultServiceName)
	}
}

func TestRunRequiresProfileDir(t *testing.T) {
	bus := startTestBus(t)
	s := New(WithProfileDir(""))

	err := s.Run(context.Background(), bus.GetConnProvider())
	if err != ErrProfileDirEmpty {
		t.Fatalf("Run() error = %v, want ErrProfileDirEmpty", err)
	}
}

func TestRunBindsAndActivatesFirstProfile(t *testing.T) {
	profileDir, scriptDir := writeProfileFixture(t)
	bus := startTestBus(t)

	s := New(
		WithProfileDir(profileDir),
		WithScriptDir(scriptDir),
		WithMetrics(false),
	)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx, bus.GetConnProvider()) }()

	time.Sleep(30 * time.Millisecond)

	if got := s.Slots().ActiveSlot(); got != 0 {
		t.Fatalf("ActiveSlot() = %d, want 0", got)
	}
	if p := s.Slots().ActiveProfile(); p == nil || p.Name != "test" {
		t.Fatalf("ActiveProfile() = %+v, want the loaded \"test\" profile", p)
	}

	cancel()
	if err := <-errCh; err != context.Canceled {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
}

func TestRunTwiceReturnsAlreadyStarted(t *testing.T) {
	profileDir, scriptDir := writeProfileFixture(t)
	bus := startTestBus(t)

	s := New(WithProfileDir(profileDir), WithScriptDir(scriptDir))

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

func TestScriptReaderForResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.js"), []byte("source"), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}

	read := scriptReaderFor(dir)
	got, err := read("a.js")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != "source" {
		t.Fatalf("got %q, want %q", got, "source")
	}
}
