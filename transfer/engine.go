// Copyright 2026 The Syncdrive Authors
// SPDX-License-Identifier: Apache-2.0

package transfer

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/fieldsync/syncdrive/lib/clock"
)

const (
	// DefaultMaxRetries is the default attempt budget for
	// RetryWithBackoff.
	DefaultMaxRetries = 3

	// DefaultBaseBackoffMs is the default initial backoff interval in
	// milliseconds for RetryWithBackoff.
	DefaultBaseBackoffMs = 1000

	// DefaultChunkSize is the default copy buffer size in bytes.
	DefaultChunkSize = 65536
)

// ProgressFunc receives a percentage in [0, 100] as each chunk is
// copied. It is invoked only when the total size is known.
type ProgressFunc func(percent float64)

// Result is the outcome of a single Transfer/TransferWithOffset call.
type Result struct {
	Success          bool
	ErrorMessage     string
	BytesTransferred uint64
	BytesPerSecond   float64
	CorrelationID    string
}

// Config configures an Engine. All fields have sensible defaults if
// left zero.
type Config struct {
	MaxRetries    int
	BaseBackoffMs int
	ChunkSize     int

	// Clock abstracts time for RetryWithBackoff's sleeps and for
	// measuring transfer duration. Defaults to clock.Real().
	Clock clock.Clock

	// Logger receives operational messages. If nil, a no-op logger is
	// used.
	Logger *slog.Logger
}

// Engine is a resumable byte-copy engine. It is safe for concurrent
// use; the only shared mutable state is the partial-transfer ledger,
// which is guarded by a mutex.
type Engine struct {
	maxRetries    int
	baseBackoffMs int
	chunkSize     int
	clock         clock.Clock
	logger        *slog.Logger

	mu       sync.Mutex
	partials map[string]partialTransfer
}

// partialTransfer is the recorded state of an interrupted transfer:
// the destination that already holds the first bytesCompleted bytes
// of the source.
type partialTransfer struct {
	dst            string
	bytesCompleted uint64
}

// New returns an Engine with cfg's settings, substituting defaults for
// any zero field.
func New(cfg Config) *Engine {
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	baseBackoffMs := cfg.BaseBackoffMs
	if baseBackoffMs <= 0 {
		baseBackoffMs = DefaultBaseBackoffMs
	}
	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Engine{
		maxRetries:    maxRetries,
		baseBackoffMs: baseBackoffMs,
		chunkSize:     chunkSize,
		clock:         clk,
		logger:        logger,
		partials:      make(map[string]partialTransfer),
	}
}

// Transfer copies src to dst in its entirety. Equivalent to
// TransferWithOffset(src, dst, 0, progress).
func (e *Engine) Transfer(src, dst string, progress ProgressFunc) Result {
	return e.TransferWithOffset(src, dst, 0, progress)
}

// TransferWithOffset opens src for reading and seeks to offset; it
// opens dst in append mode when offset > 0, otherwise in truncating
// write mode. It copies in chunks of the configured ChunkSize until
// EOF, invoking progress with ((offset+bytesWritten)/totalSize)*100
// after each chunk when the total size is known. A missing source, a destination
// open failure, or a mid-transfer read/write failure short-circuits and
// returns immediately with a populated ErrorMessage; no internal retry
// is attempted here.
func (e *Engine) TransferWithOffset(src, dst string, offset int64, progress ProgressFunc) Result {
	correlationID := uuid.NewString()

	in, err := os.Open(src)
	if err != nil {
		return e.fail(correlationID, fmt.Sprintf("opening source: %v", err))
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return e.fail(correlationID, fmt.Sprintf("statting source: %v", err))
	}
	totalSize := info.Size()

	if offset > 0 {
		if _, err := in.Seek(offset, io.SeekStart); err != nil {
			return e.fail(correlationID, fmt.Sprintf("seeking source: %v", err))
		}
	}

	flags := os.O_WRONLY | os.O_CREATE
	if offset > 0 {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	out, err := os.OpenFile(dst, flags, 0o644)
	if err != nil {
		return e.fail(correlationID, fmt.Sprintf("opening destination: %v", err))
	}
	defer out.Close()

	start := e.clock.Now()
	buf := make([]byte, e.chunkSize)
	var written uint64

	for {
		n, readErr := in.Read(buf)
		if n > 0 {
			if _, writeErr := out.Write(buf[:n]); writeErr != nil {
				return e.fail(correlationID, fmt.Sprintf("writing destination: %v", writeErr))
			}
			written += uint64(n)
			if progress != nil && totalSize > 0 {
				progress((float64(offset+int64(written)) / float64(totalSize)) * 100)
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			return e.fail(correlationID, fmt.Sprintf("reading source: %v", readErr))
		}
	}

	elapsed := e.clock.Now().Sub(start)
	bytesPerSecond := float64(written)
	if elapsed.Seconds() >= 1e-9 {
		bytesPerSecond = float64(written) / elapsed.Seconds()
	}

	e.logger.Info("transfer complete",
		"src", src, "dst", dst, "bytes", written, "correlation_id", correlationID)

	return Result{
		Success:          true,
		BytesTransferred: written,
		BytesPerSecond:   bytesPerSecond,
		CorrelationID:    correlationID,
	}
}

func (e *Engine) fail(correlationID, message string) Result {
	e.logger.Error("transfer failed", "error", message, "correlation_id", correlationID)
	return Result{Success: false, ErrorMessage: message, CorrelationID: correlationID}
}

// Pair is one (src, dst) entry in a TransferBatch call.
type Pair struct {
	Src string
	Dst string
}

// TransferBatch runs Transfer sequentially over pairs. It is
// best-effort: a failed pair does not abort the remaining pairs.
func (e *Engine) TransferBatch(pairs []Pair) []Result {
	results := make([]Result, len(pairs))
	for i, pair := range pairs {
		results[i] = e.Transfer(pair.Src, pair.Dst, nil)
	}
	return results
}

// RecordPartial records that dst already holds the first bytesWritten
// bytes of src, for a later Resume to pick up from.
func (e *Engine) RecordPartial(src, dst string, bytesWritten uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.partials[src] = partialTransfer{dst: dst, bytesCompleted: bytesWritten}
}

// Resume looks up a recorded partial transfer for src. If one exists,
// it is consumed (removed from the ledger) and TransferWithOffset is
// called with its byte count. If none exists, Resume falls back to a
// fresh Transfer. dst is the caller's own destination for this resume
// attempt; it is expected to match the destination recorded by
// RecordPartial.
func (e *Engine) Resume(src, dst string, progress ProgressFunc) Result {
	e.mu.Lock()
	partial, ok := e.partials[src]
	if ok {
		delete(e.partials, src)
	}
	e.mu.Unlock()

	if !ok {
		return e.Transfer(src, dst, progress)
	}
	return e.TransferWithOffset(src, dst, int64(partial.bytesCompleted), progress)
}
