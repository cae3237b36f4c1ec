// Copyright 2026 The Syncdrive Authors
// SPDX-License-Identifier: Apache-2.0

package usb

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestOrchestrator(t *testing.T, backend *FakeBackend) *Orchestrator {
	t.Helper()
	dir := t.TempDir()
	o, err := New(Config{
		Backend:      backend,
		ImagePath:    filepath.Join(dir, "drive.img"),
		MountDir:     filepath.Join(dir, "mnt"),
		GadgetName:   "synctest",
		ImageSizeMB:  16,
		VendorID:     "0x1d6b",
		ProductID:    "0x0104",
		Manufacturer: "Syncdrive",
		Product:      "Syncdrive Agent",
		SerialNumber: "TEST0001",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return o
}

func TestInit_TransitionsUninitializedToReady(t *testing.T) {
	backend := NewFakeBackend()
	o := newTestOrchestrator(t, backend)

	if got := o.State(); got != Uninitialized {
		t.Fatalf("initial state = %v, want Uninitialized", got)
	}
	if !o.Init() {
		t.Fatal("Init failed")
	}
	if got := o.State(); got != Ready {
		t.Fatalf("state after Init = %v, want Ready", got)
	}
}

func TestInit_IsIdempotent(t *testing.T) {
	backend := NewFakeBackend()
	o := newTestOrchestrator(t, backend)

	if !o.Init() {
		t.Fatal("first Init failed")
	}
	callsAfterFirst := len(backend.Observations)

	if !o.Init() {
		t.Fatal("second Init failed")
	}
	if len(backend.Observations) != callsAfterFirst {
		t.Fatal("second Init against an already-Ready orchestrator made backend calls")
	}
}

func TestExpose_RequiresReady(t *testing.T) {
	backend := NewFakeBackend()
	o := newTestOrchestrator(t, backend)

	if o.Expose() {
		t.Fatal("Expose unexpectedly succeeded from Uninitialized")
	}
}

func TestFullLifecycle_InitPrepareExposeUnexposeCleanup(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "log.txt")
	if err := os.WriteFile(srcPath, []byte("log contents"), 0o644); err != nil {
		t.Fatalf("writing source file: %v", err)
	}

	backend := NewFakeBackend()
	o := newTestOrchestrator(t, backend)

	if !o.Init() {
		t.Fatal("Init failed")
	}
	if !o.PrepareImage([]FilePair{{SourcePath: srcPath, DestName: "log.txt"}}) {
		t.Fatal("PrepareImage failed")
	}
	if !o.Expose() {
		t.Fatal("Expose failed")
	}
	if got := o.State(); got != Exposed {
		t.Fatalf("state after Expose = %v, want Exposed", got)
	}
	if !backend.Connected() {
		t.Fatal("expected the fake backend to report a connected host after Expose")
	}

	if !o.Unexpose() {
		t.Fatal("Unexpose failed")
	}
	if got := o.State(); got != Ready {
		t.Fatalf("state after Unexpose = %v, want Ready", got)
	}
	if backend.Connected() {
		t.Fatal("expected the fake backend to report disconnected after Unexpose")
	}

	o.Cleanup()
	if got := o.State(); got != Uninitialized {
		t.Fatalf("state after Cleanup = %v, want Uninitialized", got)
	}
}

// TestUsbExclusion_NoMutationWhileHostConnected covers the USB
// exclusion property: for any interval during which the backend
// reports a connected host, no Mount/CopyInto/DeleteFrom/Unmount call
// succeeds — here, Refresh is driven through a full cycle and the
// backend's own rejection logic (derived from the UDC attribute) is
// what would catch an orchestrator bug, not a staged assertion.
func TestUsbExclusion_NoMutationWhileHostConnected(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "data.bin")
	if err := os.WriteFile(srcPath, []byte("payload"), 0o644); err != nil {
		t.Fatalf("writing source file: %v", err)
	}

	backend := NewFakeBackend()
	o := newTestOrchestrator(t, backend)

	if !o.Init() {
		t.Fatal("Init failed")
	}
	if !o.Expose() {
		t.Fatal("Expose failed")
	}
	if !backend.Connected() {
		t.Fatal("expected connected host after Expose")
	}

	// A well-behaved Refresh must unexpose (clearing the UDC binding)
	// before it ever calls Mount. If it didn't, the fake backend's
	// Mount would return an error and Refresh would report failure.
	if !o.Refresh([]FilePair{{SourcePath: srcPath, DestName: "data.bin"}}) {
		t.Fatal("Refresh failed — likely attempted to mount while still connected")
	}
	if got := o.State(); got != Exposed {
		t.Fatalf("state after Refresh = %v, want Exposed", got)
	}

	// Directly confirm the exclusion property on the backend itself:
	// Mount must be refused while a UDC binding is active.
	directBackend := NewFakeBackend()
	if err := directBackend.WriteAttribute(gadgetPath("direct")+"/UDC", "fake-udc0"); err != nil {
		t.Fatalf("WriteAttribute: %v", err)
	}
	if err := directBackend.Mount("image.img", dir); err == nil {
		t.Fatal("expected Mount to be refused while the backend reports a connected host")
	}
}

func TestRefresh_EmptyFileSetStillReExposes(t *testing.T) {
	backend := NewFakeBackend()
	o := newTestOrchestrator(t, backend)

	if !o.Init() {
		t.Fatal("Init failed")
	}
	if !o.Expose() {
		t.Fatal("Expose failed")
	}

	if !o.Refresh(nil) {
		t.Fatal("Refresh with no files unexpectedly failed")
	}
	if got := o.State(); got != Exposed {
		t.Fatalf("state after Refresh = %v, want Exposed", got)
	}
}

func TestUnexpose_NoOpFromReady(t *testing.T) {
	backend := NewFakeBackend()
	o := newTestOrchestrator(t, backend)

	if !o.Init() {
		t.Fatal("Init failed")
	}
	if !o.Unexpose() {
		t.Fatal("Unexpose from Ready should be a no-op returning true")
	}
	if got := o.State(); got != Ready {
		t.Fatalf("state = %v, want Ready", got)
	}
}

func TestPrepareImage_RequiresReady(t *testing.T) {
	backend := NewFakeBackend()
	o := newTestOrchestrator(t, backend)

	if o.PrepareImage(nil) {
		t.Fatal("PrepareImage unexpectedly succeeded from Uninitialized")
	}
}
