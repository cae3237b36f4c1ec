// Copyright 2026 The Syncdrive Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the syncdrive
// agent. (The syncdrivectl diagnostic console takes command-line flags
// only and does not use this package.)
//
// Configuration is loaded from a single file specified by either the
// SYNCDRIVE_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks, no ~/.config discovery, and no
// automatic file search. This ensures deterministic, auditable
// configuration with no hidden overrides.
//
// A handful of scalar fields — the Wi-Fi bind address, the pre-shared
// token, the hex cipher key, and the poll interval — may additionally be
// overridden by dedicated SYNCDRIVE_* environment variables applied after
// the file loads. This is the only environment-variable override path; no
// other config values are affected.
//
// Variable expansion is performed on path fields after loading:
// ${HOME}, ${SYNCDRIVE_ROOT}, and ${VAR:-default} patterns are expanded.
//
// Key exports:
//
//   - [Config] -- master struct with Paths, WiFi, Transfer, USB
//   - [Default] -- returns a Config with sensible zero-value defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends on no other syncdrive packages.
package config
