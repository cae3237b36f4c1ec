// Copyright 2026 The Syncdrive Authors
// SPDX-License-Identifier: Apache-2.0

package hash

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
)

// streamChunkSize is the buffer size used to stream a file through the
// digest in fixed-size chunks, keeping memory use constant regardless of
// file size.
const streamChunkSize = 8192

// HashFile computes the SHA-256 digest of the file at path, streaming it
// through the digest in fixed-size chunks. A missing or unreadable path
// returns the zero digest alongside the error; callers that need to treat
// this as "no match" rather than propagate the error should prefer
// VerifyFile, which does exactly that.
func HashFile(path string) ([Size]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return [Size]byte{}, fmt.Errorf("hash: opening %s: %w", path, err)
	}
	defer file.Close()

	d := New()
	buf := make([]byte, streamChunkSize)
	for {
		n, readErr := file.Read(buf)
		if n > 0 {
			d.Write(buf[:n])
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			return [Size]byte{}, fmt.Errorf("hash: reading %s: %w", path, readErr)
		}
	}

	return d.Sum(), nil
}

// VerifyFile hashes the file at path and compares it against expectedHex
// (a 64-character lowercase hex digest) in constant time: every byte pair
// is XORed into an accumulator and only the final accumulator is tested,
// so a mismatch on the first byte takes exactly as long as a mismatch on
// the last. A missing file, an unreadable file, or a length mismatch in
// the expected hex string are all treated as "no match" rather than
// surfaced as an error — callers care only about the boolean verdict.
func VerifyFile(path, expectedHex string) bool {
	expected, err := hex.DecodeString(expectedHex)
	if err != nil || len(expected) != Size {
		return false
	}

	digest, err := HashFile(path)
	if err != nil {
		return false
	}

	return constantTimeEqual(digest[:], expected)
}

// constantTimeEqual reports whether a and b hold the same bytes, taking
// time independent of where (or whether) they first differ. Both slices
// must be the same length; a length mismatch returns false immediately
// since no byte-for-byte comparison is meaningful.
func constantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var diff byte
	for i := range a {
		diff |= a[i] ^ b[i]
	}
	return diff == 0
}

// FormatDigest returns the lowercase hex encoding of a digest. This is
// the canonical on-the-wire and on-disk representation used throughout
// the agent (firmware hash headers, log lines, admin status JSON).
func FormatDigest(digest [Size]byte) string {
	return hex.EncodeToString(digest[:])
}

// ParseDigest parses a 64-character hex string into a digest. It returns
// an error if the string is not a valid hex encoding of exactly Size
// bytes.
func ParseDigest(hexDigest string) ([Size]byte, error) {
	var digest [Size]byte
	decoded, err := hex.DecodeString(hexDigest)
	if err != nil {
		return digest, fmt.Errorf("hash: parsing digest: %w", err)
	}
	if len(decoded) != Size {
		return digest, fmt.Errorf("hash: digest is %d bytes, want %d", len(decoded), Size)
	}
	copy(digest[:], decoded)
	return digest, nil
}
