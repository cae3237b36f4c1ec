// Copyright 2026 The Syncdrive Authors
// SPDX-License-Identifier: Apache-2.0

package firmware

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/fieldsync/syncdrive/cryptocore/hash"
)

// Status is the lifecycle state of a staged firmware name.
type Status int

const (
	// NotFound is returned by Status for a name that has never been
	// received. It is not a real state in the transition table; no
	// record actually holds this value.
	NotFound Status = iota
	Received
	Verified
	Applied
	Failed
)

func (s Status) String() string {
	switch s {
	case NotFound:
		return "NotFound"
	case Received:
		return "Received"
	case Verified:
		return "Verified"
	case Applied:
		return "Applied"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Config configures a Stager.
type Config struct {
	// StagingDir holds blobs that have been received but not yet
	// applied. Created if absent.
	StagingDir string

	// InstalledDir holds blobs that have successfully been applied.
	// Created if absent.
	InstalledDir string

	// Logger receives operational messages for every state
	// transition. If nil, a no-op logger is used.
	Logger *slog.Logger
}

// Stager tracks a single mutable mapping from filename to Status plus
// the two directories backing it. A Stager is safe for concurrent use:
// a single internal mutex serializes every operation, whichever name it
// touches.
type Stager struct {
	mu           sync.Mutex
	status       map[string]Status
	stagingDir   string
	installedDir string
	logger       *slog.Logger
}

// New creates both configured directories if absent and returns a
// ready Stager. Failure to create either directory is a fatal
// construction error.
func New(cfg Config) (*Stager, error) {
	if cfg.StagingDir == "" || cfg.InstalledDir == "" {
		return nil, fmt.Errorf("firmware: StagingDir and InstalledDir are required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if err := os.MkdirAll(cfg.StagingDir, 0o755); err != nil {
		return nil, fmt.Errorf("firmware: creating staging dir %s: %w", cfg.StagingDir, err)
	}
	if err := os.MkdirAll(cfg.InstalledDir, 0o755); err != nil {
		return nil, fmt.Errorf("firmware: creating installed dir %s: %w", cfg.InstalledDir, err)
	}

	return &Stager{
		status:       make(map[string]Status),
		stagingDir:   cfg.StagingDir,
		installedDir: cfg.InstalledDir,
		logger:       logger,
	}, nil
}

// Receive writes data under staging/name. Empty data fails
// unconditionally. On any I/O failure the status transitions to
// Failed; on success it transitions to Received, clearing any prior
// status for name (a fresh Receive always restarts the gate).
func (s *Stager) Receive(name string, data []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	correlationID := uuid.NewString()

	if len(data) == 0 {
		s.status[name] = Failed
		s.logger.Warn("firmware receive rejected empty payload",
			"name", name, "correlation_id", correlationID)
		return false
	}

	path := filepath.Join(s.stagingDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		s.status[name] = Failed
		s.logger.Error("firmware receive failed",
			"name", name, "error", err, "correlation_id", correlationID)
		return false
	}

	s.status[name] = Received
	s.logger.Info("firmware received",
		"name", name, "bytes", len(data), "correlation_id", correlationID)
	return true
}

// Verify resolves staging/name; a missing file returns false without
// touching status. Otherwise it hashes the file via cryptocore/hash and
// compares against expectedHex in constant time. On match, status
// transitions to Verified; on mismatch (or hashing failure), Failed.
// Verify only proceeds from Received or Verified; any other current
// status is a no-op returning false.
func (s *Stager) Verify(name, expectedHex string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.status[name]
	if !ok || (current != Received && current != Verified) {
		return false
	}

	path := filepath.Join(s.stagingDir, name)
	if _, err := os.Stat(path); err != nil {
		return false
	}

	correlationID := uuid.NewString()

	if hash.VerifyFile(path, expectedHex) {
		s.status[name] = Verified
		s.logger.Info("firmware verified",
			"name", name, "correlation_id", correlationID)
		return true
	}

	s.status[name] = Failed
	s.logger.Warn("firmware verification failed, digest mismatch",
		"name", name, "correlation_id", correlationID)
	return false
}

// Apply rejects unless the current status is exactly Verified — this
// is the safety gate the package exists to enforce. On success it
// copies staging/name to installed/name (overwriting) and transitions
// to Applied; on copy failure it transitions to Failed.
func (s *Stager) Apply(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status[name] != Verified {
		return false
	}

	correlationID := uuid.NewString()

	src := filepath.Join(s.stagingDir, name)
	dst := filepath.Join(s.installedDir, name)
	if err := copyFileOverwrite(src, dst); err != nil {
		s.status[name] = Failed
		s.logger.Error("firmware apply failed",
			"name", name, "error", err, "correlation_id", correlationID)
		return false
	}

	s.status[name] = Applied
	s.logger.Info("firmware applied",
		"name", name, "correlation_id", correlationID)
	return true
}

// Status returns the current status of name, or NotFound if name has
// never been received.
func (s *Stager) Status(name string) Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	status, ok := s.status[name]
	if !ok {
		return NotFound
	}
	return status
}

// Names returns every name the Stager has ever received, in no
// particular order, for callers that need to report the full table
// (e.g. an admin status endpoint).
func (s *Stager) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.status))
	for name := range s.status {
		names = append(names, name)
	}
	return names
}

func copyFileOverwrite(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("opening destination: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copying bytes: %w", err)
	}

	return out.Sync()
}
