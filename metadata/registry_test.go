// Copyright 2026 The Syncdrive Authors
// SPDX-License-Identifier: Apache-2.0

package metadata

import "testing"

func TestParse_UnregisteredTagReturnsFalseNotError(t *testing.T) {
	r := NewRegistry()
	got, ok := r.Parse("nonexistent", []byte("anything"))
	if ok {
		t.Fatal("expected ok=false for an unregistered tag")
	}
	if got != nil {
		t.Fatalf("expected a nil DeviceMetadata, got %+v", got)
	}
}

func TestParse_KVBuiltin(t *testing.T) {
	r := NewDefaultRegistry()
	got, ok := r.Parse("kv", []byte("firmware=1.4.2\n# comment\nserial=SN001\n\nbattery=87\n"))
	if !ok {
		t.Fatal("expected ok=true for the kv tag")
	}
	want := DeviceMetadata{"firmware": "1.4.2", "serial": "SN001", "battery": "87"}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("got[%q] = %q, want %q", k, got[k], v)
		}
	}
}

func TestParse_KVMalformedLineFails(t *testing.T) {
	r := NewDefaultRegistry()
	_, ok := r.Parse("kv", []byte("not-a-kv-line"))
	if ok {
		t.Fatal("expected ok=false for a malformed kv line")
	}
}

func TestParse_JSONBuiltin(t *testing.T) {
	r := NewDefaultRegistry()
	got, ok := r.Parse("json", []byte(`{"firmware":"1.4.2","battery":87}`))
	if !ok {
		t.Fatal("expected ok=true for the json tag")
	}
	if got["firmware"] != "1.4.2" {
		t.Errorf("firmware = %q, want 1.4.2", got["firmware"])
	}
	if got["battery"] != "87" {
		t.Errorf("battery = %q, want 87", got["battery"])
	}
}

func TestParse_JSONMalformedFails(t *testing.T) {
	r := NewDefaultRegistry()
	_, ok := r.Parse("json", []byte("{not json"))
	if ok {
		t.Fatal("expected ok=false for malformed json")
	}
}

func TestRegister_ReplacesExisting(t *testing.T) {
	r := NewRegistry()
	calls := 0
	r.Register("tag", func(data []byte) (DeviceMetadata, error) {
		calls++
		return DeviceMetadata{"v": "1"}, nil
	})
	r.Register("tag", func(data []byte) (DeviceMetadata, error) {
		calls++
		return DeviceMetadata{"v": "2"}, nil
	})

	got, ok := r.Parse("tag", nil)
	if !ok || got["v"] != "2" {
		t.Fatalf("expected the second registration to win, got %+v ok=%v", got, ok)
	}
	if calls != 1 {
		t.Fatalf("expected exactly one parser invocation, got %d", calls)
	}
}
