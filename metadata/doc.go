// Copyright 2026 The Syncdrive Authors
// SPDX-License-Identifier: Apache-2.0

// Package metadata holds a small capability table of parsers that turn
// a field-device sidecar file's raw bytes into structured
// DeviceMetadata. It is deliberately a plain map, not a type switch: an
// unregistered format tag is a lookup miss, not a programming error.
package metadata
