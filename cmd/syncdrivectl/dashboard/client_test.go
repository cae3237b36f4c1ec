// Copyright 2026 The Syncdrive Authors
// SPDX-License-Identifier: Apache-2.0

package dashboard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchStatus_DecodesEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/status" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(adminStatus{
			USBState: "Exposed",
			Firmware: map[string]string{"bootloader.bin": "Applied"},
			LastTransfer: &transferSummary{
				Success: true, BytesTransferred: 1024, BytesPerSecond: 512, CorrelationID: "abc-123",
			},
		})
	}))
	defer server.Close()

	c := newClient(server.URL, "")
	status, err := c.fetchStatus()
	if err != nil {
		t.Fatalf("fetchStatus: %v", err)
	}
	if status.USBState != "Exposed" {
		t.Fatalf("USBState = %q, want Exposed", status.USBState)
	}
	if status.Firmware["bootloader.bin"] != "Applied" {
		t.Fatalf("firmware status = %+v", status.Firmware)
	}
	if status.LastTransfer == nil || status.LastTransfer.CorrelationID != "abc-123" {
		t.Fatalf("lastTransfer = %+v", status.LastTransfer)
	}
}

func TestFetchLogs_DecodesEntries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]logEntry{{Name: "a.log", Size: 10}})
	}))
	defer server.Close()

	c := newClient(server.URL, "")
	entries, err := c.fetchLogs()
	if err != nil {
		t.Fatalf("fetchLogs: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "a.log" {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestGet_NonOKStatusIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer server.Close()

	c := newClient(server.URL, "")
	if _, err := c.fetchStatus(); err == nil {
		t.Fatal("expected an error for a 401 response")
	}
}

func TestGet_SendsBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(adminStatus{})
	}))
	defer server.Close()

	c := newClient(server.URL, "secret-token")
	if _, err := c.fetchStatus(); err != nil {
		t.Fatalf("fetchStatus: %v", err)
	}
	if gotAuth != "Bearer secret-token" {
		t.Fatalf("Authorization header = %q", gotAuth)
	}
}
