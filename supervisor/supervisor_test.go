// Copyright 2026 The Syncdrive Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fieldsync/syncdrive/lib/clock"
	"github.com/fieldsync/syncdrive/logcollector"
	"github.com/fieldsync/syncdrive/usb"
)

func newTestOrchestrator(t *testing.T, backend *usb.FakeBackend) *usb.Orchestrator {
	t.Helper()
	dir := t.TempDir()
	o, err := usb.New(usb.Config{
		Backend:      backend,
		ImagePath:    filepath.Join(dir, "drive.img"),
		MountDir:     filepath.Join(dir, "mnt"),
		GadgetName:   "synctest",
		VendorID:     "0x1d6b",
		ProductID:    "0x0104",
		Manufacturer: "Syncdrive",
		Product:      "Syncdrive Agent",
		SerialNumber: "TEST0001",
	})
	if err != nil {
		t.Fatalf("usb.New: %v", err)
	}
	return o
}

func TestRun_InitializesAndRefreshesOnTick(t *testing.T) {
	logDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(logDir, "a.log"), []byte("x"), 0o644); err != nil {
		t.Fatalf("writing log: %v", err)
	}

	backend := usb.NewFakeBackend()
	orchestrator := newTestOrchestrator(t, backend)
	fakeClock := clock.Fake(time.Unix(0, 0))

	s := New(Config{
		Orchestrator: orchestrator,
		Collector:    logcollector.New(logDir),
		PollInterval: time.Second,
		CoreMu:       &sync.Mutex{},
		Clock:        fakeClock,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	fakeClock.WaitForTimers(1)
	if orchestrator.State() != usb.Ready {
		t.Fatalf("state after Init = %v, want Ready", orchestrator.State())
	}

	fakeClock.Advance(time.Second)
	deadline := time.After(2 * time.Second)
	for orchestrator.State() != usb.Exposed {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for refresh to expose, state = %v", orchestrator.State())
		default:
			time.Sleep(time.Millisecond)
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	if orchestrator.State() != usb.Uninitialized {
		t.Fatalf("state after shutdown = %v, want Uninitialized", orchestrator.State())
	}
}

func TestNew_DefaultsPollInterval(t *testing.T) {
	backend := usb.NewFakeBackend()
	orchestrator := newTestOrchestrator(t, backend)
	s := New(Config{
		Orchestrator: orchestrator,
		Collector:    logcollector.New(t.TempDir()),
		CoreMu:       &sync.Mutex{},
	})
	if s.cfg.PollInterval != 30*time.Second {
		t.Fatalf("default PollInterval = %v, want 30s", s.cfg.PollInterval)
	}
}
