// Copyright 2026 The Syncdrive Authors
// SPDX-License-Identifier: Apache-2.0

// Package transfer implements a resumable byte-copy engine: chunked
// transfer with progress reporting, a partial-transfer ledger for
// resuming an interrupted copy from the last recorded offset, and a
// deterministic exponential-backoff retry helper built on
// github.com/cenkalti/backoff/v4.
package transfer
