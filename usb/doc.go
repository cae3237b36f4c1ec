// Copyright 2026 The Syncdrive Authors
// SPDX-License-Identifier: Apache-2.0

// Package usb drives a USB mass-storage gadget lifecycle over a
// FAT32-formatted backing image and a configfs gadget skeleton.
//
// The Orchestrator owns a three-state machine — Uninitialized, Ready,
// Exposed — and every privileged operation (image allocation, FAT
// formatting, mounting, configfs writes, UDC binding) is delegated to
// a PlatformBackend. This keeps the state machine and its invariants
// testable on any host: production code wires a linuxBackend, tests
// wire a fakeBackend.
//
// The central invariant is "prepare then expose": the backing image is
// mutated only while the gadget is disconnected from the host (Ready),
// and the host is only ever allowed to see it once that mutation window
// has closed (Exposed). Refresh is the operation that walks this cycle
// end to end.
package usb
