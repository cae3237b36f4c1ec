// Copyright 2026 The Syncdrive Authors
// SPDX-License-Identifier: Apache-2.0

// Package supervisor runs the agent's top-level poll loop: it
// initializes the USB gadget once at startup, then on every tick scans
// logs and refreshes the gadget contents, serialized against the HTTP
// boundary's own calls into the same core state machines through a
// shared mutex.
package supervisor
