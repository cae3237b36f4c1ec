// Copyright 2026 The Syncdrive Authors
// SPDX-License-Identifier: Apache-2.0

// Package logcollector scans a flat directory of field-device log files
// and reports their names, sizes, and modification times in a stable
// order. It does not read file contents beyond what stat gives it —
// interpreting those bytes is left to the metadata package.
package logcollector
