// Copyright 2026 The Syncdrive Authors
// SPDX-License-Identifier: Apache-2.0

package transfer

import (
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
)

// RetryWithBackoff invokes op up to e.maxRetries times. Between attempt
// i and i+1 it sleeps baseBackoffMs * 2^i milliseconds — exponential,
// no jitter — via the injected clock, so tests can assert on the exact
// schedule without a real wall-clock wait. It returns true on the
// first successful attempt, false if every attempt fails. No sleep
// follows the final attempt.
//
// The backoff schedule itself is computed by
// github.com/cenkalti/backoff/v4's ExponentialBackOff with
// RandomizationFactor set to zero: with Multiplier=2 and
// InitialInterval=baseBackoff, successive calls to NextBackOff return
// exactly baseBackoff, baseBackoff*2, baseBackoff*4, ... a deterministic
// schedule, so callers can assert on exact timing in tests.
func (e *Engine) RetryWithBackoff(op func() bool) bool {
	correlationID := uuid.NewString()

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Duration(e.baseBackoffMs) * time.Millisecond
	policy.Multiplier = 2
	policy.RandomizationFactor = 0
	policy.MaxInterval = time.Hour // effectively unbounded for e.maxRetries attempts
	policy.MaxElapsedTime = 0      // no overall deadline; e.maxRetries bounds attempts instead
	policy.Reset()                 // re-seed currentInterval from the fields set above

	for attempt := 0; attempt < e.maxRetries; attempt++ {
		if op() {
			e.logger.Info("retry_with_backoff succeeded",
				"attempt", attempt+1, "correlation_id", correlationID)
			return true
		}

		interval := policy.NextBackOff()
		if attempt < e.maxRetries-1 {
			e.logger.Warn("retry_with_backoff attempt failed, backing off",
				"attempt", attempt+1, "sleep", interval, "correlation_id", correlationID)
			e.clock.Sleep(interval)
		}
	}

	e.logger.Error("retry_with_backoff exhausted all attempts",
		"attempts", e.maxRetries, "correlation_id", correlationID)
	return false
}
