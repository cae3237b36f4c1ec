// Copyright 2026 The Syncdrive Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadFromPath_File(t *testing.T) {
	tempDir := t.TempDir()

	tests := []struct {
		name     string
		content  string
		expected string
	}{
		{
			name:     "plain value",
			content:  "deadbeefcafef00d0123456789abcdef0123456789abcdef0123456789abcd",
			expected: "deadbeefcafef00d0123456789abcdef0123456789abcdef0123456789abcd",
		},
		{
			name:     "trailing newline",
			content:  "deadbeefcafef00d0123456789abcdef0123456789abcdef0123456789abcd\n",
			expected: "deadbeefcafef00d0123456789abcdef0123456789abcdef0123456789abcd",
		},
		{
			name:     "trailing whitespace",
			content:  "deadbeefcafef00d0123456789abcdef0123456789abcdef0123456789abcd  \n",
			expected: "deadbeefcafef00d0123456789abcdef0123456789abcdef0123456789abcd",
		},
		{
			name:     "leading whitespace",
			content:  "  deadbeefcafef00d0123456789abcdef0123456789abcdef0123456789abcd",
			expected: "deadbeefcafef00d0123456789abcdef0123456789abcdef0123456789abcd",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			path := filepath.Join(tempDir, test.name)
			if err := os.WriteFile(path, []byte(test.content), 0600); err != nil {
				t.Fatalf("writing test file: %v", err)
			}

			result, err := ReadFromPath(path)
			if err != nil {
				t.Fatalf("ReadFromPath() error: %v", err)
			}
			defer result.Close()
			if result.String() != test.expected {
				t.Errorf("ReadFromPath() = %q, want %q", result.String(), test.expected)
			}
		})
	}
}

func TestReadFromPath_FileNotFound(t *testing.T) {
	_, err := ReadFromPath("/nonexistent/path/to/secret")
	if err == nil {
		t.Error("ReadFromPath() with nonexistent file should return error")
	}
}

func TestReadFromPath_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty")
	if err := os.WriteFile(path, []byte(""), 0600); err != nil {
		t.Fatalf("writing test file: %v", err)
	}
	_, err := ReadFromPath(path)
	if err == nil {
		t.Error("ReadFromPath() with empty file should return error")
	}
}

func TestReadFromPath_WhitespaceOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "whitespace")
	if err := os.WriteFile(path, []byte("   \n\t\n"), 0600); err != nil {
		t.Fatalf("writing test file: %v", err)
	}
	_, err := ReadFromPath(path)
	if err == nil {
		t.Error("ReadFromPath() with whitespace-only file should return error")
	}
}
