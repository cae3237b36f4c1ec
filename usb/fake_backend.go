// Copyright 2026 The Syncdrive Authors
// SPDX-License-Identifier: Apache-2.0

package usb

import (
	"fmt"
	"strings"
	"sync"
)

// FakeBackend is an in-memory PlatformBackend for tests. It tracks
// gadget and mount state as
// plain Go values instead of touching configfs or a loop device.
//
// Connected state is derived, not manually toggled: whatever value was
// last written to the gadget's UDC attribute is exactly what a real
// host would see, so Connected reports true iff that value is
// non-empty. Every operation that would disturb the backing image
// while a host is attached (Mount, CopyInto, DeleteFrom, Unmount)
// checks this derived state and returns an error instead of mutating
// anything, so an Orchestrator bug that tries to touch the image while
// still bound to a UDC is caught for real rather than by a staged
// assertion.
type FakeBackend struct {
	mu sync.Mutex

	images     map[string]int             // path -> size in megabytes
	formatted  map[string]string          // path -> label
	mounted    map[string]string          // mountDir -> imagePath
	files      map[string]map[string]bool // mountDir -> set of file names
	gadgets    map[string]bool
	attributes map[string]string
	udcBinding string // last value written to a UDC attribute; "" = disconnected
	udcs       []string

	// Observations records every call made against this backend, for
	// assertions about call ordering and the exclusion property.
	Observations []string
}

// NewFakeBackend returns a FakeBackend with one UDC available
// ("fake-udc0"), matching the "Pi Zero W has exactly one UDC" shape of
// the hardware this orchestrator targets.
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{
		images:     make(map[string]int),
		formatted:  make(map[string]string),
		mounted:    make(map[string]string),
		files:      make(map[string]map[string]bool),
		gadgets:    make(map[string]bool),
		attributes: make(map[string]string),
		udcs:       []string{"fake-udc0"},
	}
}

// Connected reports whether a real host would currently observe this
// gadget, derived from the last value written to its UDC attribute.
func (b *FakeBackend) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.udcBinding != ""
}

func (b *FakeBackend) record(op string) {
	b.Observations = append(b.Observations, op)
}

func (b *FakeBackend) AllocateImage(path string, megabytes int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("AllocateImage:" + path)
	b.images[path] = megabytes
	return nil
}

func (b *FakeBackend) FormatFAT32(path, label string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("FormatFAT32:" + path)
	b.formatted[path] = label
	return nil
}

func (b *FakeBackend) Mount(imagePath, mountDir string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("Mount:" + mountDir)
	if b.udcBinding != "" {
		return fmt.Errorf("usb: fake backend refuses Mount while bound to UDC %s", b.udcBinding)
	}
	b.mounted[mountDir] = imagePath
	if b.files[mountDir] == nil {
		b.files[mountDir] = make(map[string]bool)
	}
	return nil
}

func (b *FakeBackend) Unmount(mountDir string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("Unmount:" + mountDir)
	if b.udcBinding != "" {
		return fmt.Errorf("usb: fake backend refuses Unmount while bound to UDC %s", b.udcBinding)
	}
	delete(b.mounted, mountDir)
	return nil
}

func (b *FakeBackend) Sync() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("Sync")
	return nil
}

func (b *FakeBackend) CreateGadgetSkeleton(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("CreateGadgetSkeleton:" + name)
	b.gadgets[name] = true
	return nil
}

func (b *FakeBackend) RemoveGadgetSkeleton(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("RemoveGadgetSkeleton:" + name)
	delete(b.gadgets, name)
	return nil
}

// WriteAttribute tracks every attribute in a flat map. A write to a
// path ending in "/UDC" additionally updates the derived connected
// state Mount/Unmount/CopyInto/DeleteFrom consult.
func (b *FakeBackend) WriteAttribute(path, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("WriteAttribute:" + path)
	b.attributes[path] = value
	if strings.HasSuffix(path, "/UDC") {
		b.udcBinding = value
	}
	return nil
}

func (b *FakeBackend) ListUDCs() ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("ListUDCs")
	return append([]string(nil), b.udcs...), nil
}

func (b *FakeBackend) CopyInto(mountDir, sourcePath, destName string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("CopyInto:" + destName)
	if b.udcBinding != "" {
		return fmt.Errorf("usb: fake backend refuses CopyInto while bound to UDC %s", b.udcBinding)
	}
	if b.files[mountDir] == nil {
		b.files[mountDir] = make(map[string]bool)
	}
	b.files[mountDir][destName] = true
	return nil
}

func (b *FakeBackend) DeleteFrom(mountDir, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("DeleteFrom:" + name)
	if b.udcBinding != "" {
		return fmt.Errorf("usb: fake backend refuses DeleteFrom while bound to UDC %s", b.udcBinding)
	}
	delete(b.files[mountDir], name)
	return nil
}

func (b *FakeBackend) ListFiles(mountDir string) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("ListFiles:" + mountDir)
	names := make([]string, 0, len(b.files[mountDir]))
	for name := range b.files[mountDir] {
		names = append(names, name)
	}
	return names, nil
}

// Attribute returns the last value written to path, for test
// assertions.
func (b *FakeBackend) Attribute(path string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attributes[path]
}

var _ PlatformBackend = (*FakeBackend)(nil)
