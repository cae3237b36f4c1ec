// Copyright 2026 The Syncdrive Authors
// SPDX-License-Identifier: Apache-2.0

package hash

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHashBytes_KnownVectors(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{"hello", "hello", "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FormatDigest(HashBytes([]byte(tc.in)))
			if got != tc.want {
				t.Errorf("HashBytes(%q) = %s, want %s", tc.in, got, tc.want)
			}
		})
	}
}

func TestWrite_ChunkingIndependence(t *testing.T) {
	data := make([]byte, 10000)
	for i := range data {
		data[i] = byte(i)
	}

	oneShot := HashBytes(data)

	d := New()
	chunkSizes := []int{1, 3, 7, 64, 4096}
	offset := 0
	for i := 0; offset < len(data); i++ {
		size := chunkSizes[i%len(chunkSizes)]
		end := offset + size
		if end > len(data) {
			end = len(data)
		}
		d.Write(data[offset:end])
		offset = end
	}
	chunked := d.Sum()

	if oneShot != chunked {
		t.Errorf("chunked hash differs from one-shot hash: %x != %x", chunked, oneShot)
	}
}

func TestHashFile_StreamsInChunks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	content := make([]byte, streamChunkSize*3+17)
	for i := range content {
		content[i] = byte(i * 7)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("writing test file: %v", err)
	}

	got, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}
	want := HashBytes(content)
	if got != want {
		t.Errorf("HashFile digest mismatch: %x != %x", got, want)
	}
}

func TestVerifyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fw.bin")
	content := []byte("firmware payload")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("writing test file: %v", err)
	}

	goodHex := FormatDigest(HashBytes(content))
	if !VerifyFile(path, goodHex) {
		t.Error("expected VerifyFile to succeed with correct digest")
	}

	if VerifyFile(path, "0000000000000000000000000000000000000000000000000000000000000000") {
		t.Error("expected VerifyFile to fail with wrong digest")
	}

	if VerifyFile(filepath.Join(dir, "missing.bin"), goodHex) {
		t.Error("expected VerifyFile to fail for a missing file")
	}

	if VerifyFile(path, "not-hex") {
		t.Error("expected VerifyFile to fail for a malformed hex string")
	}
}

func TestParseDigest_RoundTrip(t *testing.T) {
	digest := HashBytes([]byte("round trip"))
	hexStr := FormatDigest(digest)

	parsed, err := ParseDigest(hexStr)
	if err != nil {
		t.Fatalf("ParseDigest: %v", err)
	}
	if parsed != digest {
		t.Error("round-tripped digest does not match original")
	}

	if _, err := ParseDigest("too-short"); err == nil {
		t.Error("expected error for malformed digest")
	}
}
