// Copyright 2026 The Syncdrive Authors
// SPDX-License-Identifier: Apache-2.0

package transfer

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fieldsync/syncdrive/lib/clock"
)

func writeTestFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

// TestTransfer_ProgressReachesOneHundred covers scenario 6: a 10240
// byte source copied in 2048-byte chunks reports a monotonically
// non-decreasing progress sequence ending at exactly 100.0, and the
// destination bytes equal the source bytes.
func TestTransfer_ProgressReachesOneHundred(t *testing.T) {
	dir := t.TempDir()
	content := make([]byte, 10240)
	for i := range content {
		content[i] = byte(i % 251)
	}
	src := writeTestFile(t, dir, "src.bin", content)
	dst := filepath.Join(dir, "dst.bin")

	engine := New(Config{ChunkSize: 2048})

	var percentages []float64
	result := engine.Transfer(src, dst, func(p float64) {
		percentages = append(percentages, p)
	})

	if !result.Success {
		t.Fatalf("Transfer failed: %s", result.ErrorMessage)
	}
	if result.BytesTransferred != uint64(len(content)) {
		t.Fatalf("BytesTransferred = %d, want %d", result.BytesTransferred, len(content))
	}
	if len(percentages) == 0 {
		t.Fatal("expected at least one progress callback")
	}
	if last := percentages[len(percentages)-1]; last != 100.0 {
		t.Fatalf("last reported percentage = %v, want 100.0", last)
	}
	for i := 1; i < len(percentages); i++ {
		if percentages[i] < percentages[i-1] {
			t.Fatalf("progress sequence not monotonically non-decreasing at index %d: %v", i, percentages)
		}
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("reading destination: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Fatal("destination bytes do not equal source bytes")
	}
}

// TestResume_ContinuesFromRecordedOffset covers scenario 7: a
// destination pre-populated with the first half of the source, a
// recorded partial transfer, and a Resume that completes the copy.
func TestResume_ContinuesFromRecordedOffset(t *testing.T) {
	dir := t.TempDir()
	content := make([]byte, 10240)
	for i := range content {
		content[i] = byte(i % 200)
	}
	src := writeTestFile(t, dir, "src.bin", content)
	dst := writeTestFile(t, dir, "dst.bin", content[:5120])

	engine := New(Config{})
	engine.RecordPartial(src, dst, 5120)

	result := engine.Resume(src, dst, nil)
	if !result.Success {
		t.Fatalf("Resume failed: %s", result.ErrorMessage)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("reading destination: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Fatal("destination does not equal full source after resume")
	}
}

// TestResume_FallsBackToFreshTransferWithoutRecord ensures Resume
// behaves like Transfer when no partial record exists for src.
func TestResume_FallsBackToFreshTransferWithoutRecord(t *testing.T) {
	dir := t.TempDir()
	content := []byte("no partial record for this one")
	src := writeTestFile(t, dir, "src.bin", content)
	dst := filepath.Join(dir, "dst.bin")

	engine := New(Config{})
	result := engine.Resume(src, dst, nil)
	if !result.Success {
		t.Fatalf("Resume failed: %s", result.ErrorMessage)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("reading destination: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Fatal("destination does not equal source")
	}
}

func TestTransfer_MissingSourceFails(t *testing.T) {
	dir := t.TempDir()
	engine := New(Config{})

	result := engine.Transfer(filepath.Join(dir, "missing.bin"), filepath.Join(dir, "dst.bin"), nil)
	if result.Success {
		t.Fatal("expected failure for a missing source")
	}
	if result.ErrorMessage == "" {
		t.Fatal("expected a populated error message")
	}
}

func TestTransferBatch_OneFailureDoesNotAbortBatch(t *testing.T) {
	dir := t.TempDir()
	ok := writeTestFile(t, dir, "ok.bin", []byte("fine"))
	engine := New(Config{})

	pairs := []Pair{
		{Src: filepath.Join(dir, "missing.bin"), Dst: filepath.Join(dir, "out1.bin")},
		{Src: ok, Dst: filepath.Join(dir, "out2.bin")},
	}
	results := engine.TransferBatch(pairs)

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Success {
		t.Error("expected the first pair to fail")
	}
	if !results[1].Success {
		t.Errorf("expected the second pair to succeed: %s", results[1].ErrorMessage)
	}
}

// TestResult_ZeroDurationRate covers the division-by-zero special case:
// when elapsed time is effectively zero, bytes_per_second equals
// bytes_transferred.
func TestResult_ZeroDurationRate(t *testing.T) {
	dir := t.TempDir()
	src := writeTestFile(t, dir, "tiny.bin", []byte("x"))
	dst := filepath.Join(dir, "dst.bin")

	// A fake clock that is never advanced makes the measured elapsed
	// time exactly zero.
	engine := New(Config{Clock: clock.Fake(time.Unix(0, 0))})
	result := engine.Transfer(src, dst, nil)
	if !result.Success {
		t.Fatalf("Transfer failed: %s", result.ErrorMessage)
	}
	if result.BytesPerSecond != float64(result.BytesTransferred) {
		t.Fatalf("BytesPerSecond = %v, want %v (bytes transferred) for a zero-duration transfer", result.BytesPerSecond, result.BytesTransferred)
	}
}
