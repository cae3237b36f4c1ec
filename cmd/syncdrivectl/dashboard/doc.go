// Copyright 2026 The Syncdrive Authors
// SPDX-License-Identifier: Apache-2.0

// Package dashboard implements the bubbletea model backing syncdrivectl:
// a read-only poll loop over an agent's admin HTTP API, rendered as
// three panels (USB lifecycle, firmware table, last transfer).
package dashboard
