// Copyright 2026 The Syncdrive Authors
// SPDX-License-Identifier: Apache-2.0

package dashboard

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func TestUpdate_PollMsgUpdatesStateOnSuccess(t *testing.T) {
	m := New(Config{BaseURL: "http://example.invalid", PollInterval: time.Second})

	updated, _ := m.Update(pollMsg{
		status: adminStatus{USBState: "Exposed"},
		logs:   []logEntry{{Name: "a.log"}},
	})
	model := updated.(Model)

	if model.status.USBState != "Exposed" {
		t.Fatalf("status.USBState = %q, want Exposed", model.status.USBState)
	}
	if len(model.logs) != 1 {
		t.Fatalf("logs = %+v", model.logs)
	}
	if model.lastErr != nil {
		t.Fatalf("lastErr = %v, want nil", model.lastErr)
	}
}

func TestUpdate_PollMsgErrorPreservesPriorState(t *testing.T) {
	m := New(Config{BaseURL: "http://example.invalid", PollInterval: time.Second})
	updated, _ := m.Update(pollMsg{status: adminStatus{USBState: "Exposed"}})
	m = updated.(Model)

	updated, _ = m.Update(pollMsg{err: errBoom})
	model := updated.(Model)

	if model.status.USBState != "Exposed" {
		t.Fatalf("expected prior status to survive a failed poll, got %q", model.status.USBState)
	}
	if model.lastErr == nil {
		t.Fatal("expected lastErr to be set")
	}
}

func TestUpdate_QuitKeySetsQuitting(t *testing.T) {
	m := New(Config{BaseURL: "http://example.invalid"})
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	model := updated.(Model)
	if !model.quitting {
		t.Fatal("expected quitting=true after 'q'")
	}
	if cmd == nil {
		t.Fatal("expected a tea.Quit command")
	}
}

var errBoom = fmtError("boom")

type fmtError string

func (e fmtError) Error() string { return string(e) }
