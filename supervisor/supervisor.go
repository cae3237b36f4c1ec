// Copyright 2026 The Syncdrive Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fieldsync/syncdrive/lib/clock"
	"github.com/fieldsync/syncdrive/logcollector"
	"github.com/fieldsync/syncdrive/usb"
)

// Config configures a Supervisor.
type Config struct {
	Orchestrator *usb.Orchestrator
	Collector    *logcollector.Collector

	// PollInterval is how often the poll loop scans logs and refreshes
	// the gadget image.
	PollInterval time.Duration

	// CoreMu serializes poll-loop access to the Orchestrator and
	// FirmwareStager with concurrent HTTP handlers touching the same
	// state. Required — the supervisor never constructs its own, since
	// the whole point is to share one mutex with the HTTP boundary.
	CoreMu *sync.Mutex

	Clock  clock.Clock
	Logger *slog.Logger
}

// Supervisor runs the agent's poll loop until its context is canceled.
type Supervisor struct {
	cfg    Config
	clock  clock.Clock
	logger *slog.Logger
}

// New returns a Supervisor. PollInterval defaults to 30s if zero or
// negative.
func New(cfg Config) *Supervisor {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 30 * time.Second
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Supervisor{cfg: cfg, clock: clk, logger: logger}
}

// Run initializes the USB gadget, then loops on a ticker calling
// refresh until ctx is canceled, at which point it calls Cleanup on the
// orchestrator and returns.
func (s *Supervisor) Run(ctx context.Context) error {
	s.cfg.CoreMu.Lock()
	ok := s.cfg.Orchestrator.Init()
	s.cfg.CoreMu.Unlock()
	if !ok {
		s.logger.Error("supervisor: usb init failed")
	}

	ticker := s.clock.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.cfg.CoreMu.Lock()
			s.cfg.Orchestrator.Cleanup()
			s.cfg.CoreMu.Unlock()
			s.logger.Info("supervisor: shut down")
			return nil
		case <-ticker.C:
			s.refresh()
		}
	}
}

// refresh performs one poll-loop iteration: scan logs, then refresh the
// gadget image with exactly that file set.
func (s *Supervisor) refresh() {
	correlationID := uuid.NewString()

	entries, err := s.cfg.Collector.Collect()
	if err != nil {
		s.logger.Error("supervisor: collecting logs failed", "error", err, "correlation_id", correlationID)
		return
	}

	files := make([]usb.FilePair, 0, len(entries))
	for _, entry := range entries {
		files = append(files, usb.FilePair{
			SourcePath: s.cfg.Collector.Path(entry.Name),
			DestName:   entry.Name,
		})
	}

	s.cfg.CoreMu.Lock()
	ok := s.cfg.Orchestrator.Refresh(files)
	s.cfg.CoreMu.Unlock()

	if !ok {
		s.logger.Error("supervisor: refresh failed", "correlation_id", correlationID)
		return
	}
	s.logger.Info("supervisor: refresh complete", "files", len(files), "correlation_id", correlationID)
}
