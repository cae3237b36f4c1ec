// Copyright 2026 The Syncdrive Authors
// SPDX-License-Identifier: Apache-2.0

package metadata

import "sync"

// DeviceMetadata is whatever a parser could extract from a sidecar
// file: a flat string-keyed bag, the common shape for field-device
// telemetry (firmware version, serial, last-fix time, battery level).
type DeviceMetadata map[string]string

// Parser turns raw sidecar bytes into DeviceMetadata. A parser returns
// an error only for malformed input it was actually asked to parse —
// an unrecognized format tag never reaches a Parser at all.
type Parser func([]byte) (DeviceMetadata, error)

// Registry is a capability table mapping a format tag (e.g. "kv",
// "json") to the Parser that understands it.
type Registry struct {
	mu      sync.RWMutex
	parsers map[string]Parser
}

// NewRegistry returns an empty Registry. Callers typically follow this
// with Register calls for the built-in kv and json parsers plus any
// field-specific formats.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register installs parser under formatTag, replacing any existing
// parser for that tag.
func (r *Registry) Register(formatTag string, parser Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsers[formatTag] = parser
}

// Parse looks up formatTag and, if found, runs its parser over data. An
// unregistered tag returns ok=false and a zero-value DeviceMetadata; so
// does a registered parser that reports an error for malformed bytes.
// Parse itself never returns an error.
func (r *Registry) Parse(formatTag string, data []byte) (metadata DeviceMetadata, ok bool) {
	r.mu.RLock()
	parser, found := r.parsers[formatTag]
	r.mu.RUnlock()
	if !found {
		return nil, false
	}
	result, err := parser(data)
	if err != nil {
		return nil, false
	}
	return result, true
}
