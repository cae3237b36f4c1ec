// Copyright 2026 The Syncdrive Authors
// SPDX-License-Identifier: Apache-2.0

package metadata

// NewDefaultRegistry returns a Registry with the "kv" and "json"
// parsers already registered under those tags.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("kv", ParseKV)
	r.Register("json", ParseJSON)
	return r
}
