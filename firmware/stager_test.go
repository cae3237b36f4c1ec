// Copyright 2026 The Syncdrive Authors
// SPDX-License-Identifier: Apache-2.0

package firmware

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fieldsync/syncdrive/cryptocore/hash"
)

func newTestStager(t *testing.T) *Stager {
	t.Helper()
	dir := t.TempDir()
	s, err := New(Config{
		StagingDir:   filepath.Join(dir, "staging"),
		InstalledDir: filepath.Join(dir, "installed"),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

// TestHappyPathSequence covers scenario 4: receive, verify with the
// correct digest, apply, and confirm the installed bytes match.
func TestHappyPathSequence(t *testing.T) {
	s := newTestStager(t)

	if !s.Receive("fw.bin", []byte("ORIGINAL")) {
		t.Fatal("Receive failed")
	}
	if got := s.Status("fw.bin"); got != Received {
		t.Fatalf("status after receive = %v, want Received", got)
	}

	digest := hash.FormatDigest(hash.HashBytes([]byte("ORIGINAL")))
	if !s.Verify("fw.bin", digest) {
		t.Fatal("Verify failed with correct digest")
	}
	if got := s.Status("fw.bin"); got != Verified {
		t.Fatalf("status after verify = %v, want Verified", got)
	}

	if !s.Apply("fw.bin") {
		t.Fatal("Apply failed after successful verify")
	}
	if got := s.Status("fw.bin"); got != Applied {
		t.Fatalf("status after apply = %v, want Applied", got)
	}

	installedPath := filepath.Join(s.installedDir, "fw.bin")
	data, err := os.ReadFile(installedPath)
	if err != nil {
		t.Fatalf("reading installed file: %v", err)
	}
	if string(data) != "ORIGINAL" {
		t.Fatalf("installed bytes = %q, want %q", data, "ORIGINAL")
	}
}

// TestTamperSequence covers scenario 5: a wrong expected digest fails
// verification, apply is then refused, and nothing lands in installed/.
func TestTamperSequence(t *testing.T) {
	s := newTestStager(t)

	if !s.Receive("fw.bin", []byte("ORIGINAL")) {
		t.Fatal("Receive failed")
	}

	wrongDigest := ""
	for i := 0; i < 64; i++ {
		wrongDigest += "0"
	}
	if s.Verify("fw.bin", wrongDigest) {
		t.Fatal("Verify unexpectedly succeeded with the wrong digest")
	}
	if got := s.Status("fw.bin"); got != Failed {
		t.Fatalf("status after failed verify = %v, want Failed", got)
	}

	if s.Apply("fw.bin") {
		t.Fatal("Apply unexpectedly succeeded after a failed verify")
	}

	installedPath := filepath.Join(s.installedDir, "fw.bin")
	if _, err := os.Stat(installedPath); !os.IsNotExist(err) {
		t.Fatalf("installed file unexpectedly exists: err=%v", err)
	}
}

func TestReceive_RejectsEmptyPayload(t *testing.T) {
	s := newTestStager(t)

	if s.Receive("empty.bin", nil) {
		t.Fatal("Receive unexpectedly succeeded with empty data")
	}
	if got := s.Status("empty.bin"); got != Failed {
		t.Fatalf("status after empty receive = %v, want Failed", got)
	}
}

func TestVerify_MissingStagedFileDoesNotTouchStatus(t *testing.T) {
	s := newTestStager(t)

	if s.Verify("never-received.bin", "irrelevant") {
		t.Fatal("Verify unexpectedly succeeded for a name that was never received")
	}
	if got := s.Status("never-received.bin"); got != NotFound {
		t.Fatalf("status = %v, want NotFound", got)
	}
}

func TestApply_RequiresVerifiedState(t *testing.T) {
	s := newTestStager(t)

	s.Receive("fw.bin", []byte("data"))
	if s.Apply("fw.bin") {
		t.Fatal("Apply unexpectedly succeeded from Received state")
	}
}

// TestReceive_ResetsGateAfterPriorVerification ensures that a fresh
// Receive restarts the verify-before-apply gate rather than letting a
// stale Verified status survive into a new payload.
func TestReceive_ResetsGateAfterPriorVerification(t *testing.T) {
	s := newTestStager(t)

	s.Receive("fw.bin", []byte("first"))
	digest := hash.FormatDigest(hash.HashBytes([]byte("first")))
	if !s.Verify("fw.bin", digest) {
		t.Fatal("Verify failed for first payload")
	}

	s.Receive("fw.bin", []byte("second"))
	if got := s.Status("fw.bin"); got != Received {
		t.Fatalf("status after re-receive = %v, want Received", got)
	}
	if s.Apply("fw.bin") {
		t.Fatal("Apply unexpectedly succeeded without re-verifying the new payload")
	}
}

func TestStatus_UnknownNameIsNotFound(t *testing.T) {
	s := newTestStager(t)
	if got := s.Status("ghost.bin"); got != NotFound {
		t.Fatalf("Status(unknown) = %v, want NotFound", got)
	}
}
