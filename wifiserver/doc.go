// Copyright 2026 The Syncdrive Authors
// SPDX-License-Identifier: Apache-2.0

// Package wifiserver is the HTTP boundary a field operator's phone or
// laptop talks to over the device's own Wi-Fi access point: listing and
// pulling logs, pushing firmware, and reading an admin status summary.
// Every route but /healthz requires a pre-shared bearer token, checked
// in constant time, except that /v1/status also admits requests from a
// loopback address without one.
package wifiserver
