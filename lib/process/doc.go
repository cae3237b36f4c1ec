// Copyright 2026 The Syncdrive Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides binary entrypoint helpers for the syncdrive
// agent and its companion diagnostic console. It centralizes the one
// legitimate raw I/O pattern that exists before the structured logger is
// initialized: fatal error reporting to stderr followed by process exit.
package process
