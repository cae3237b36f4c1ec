// Copyright 2026 The Syncdrive Authors
// SPDX-License-Identifier: Apache-2.0

// Package firmware implements a staged firmware promotion pipeline:
// receive a candidate blob, verify it against an expected SHA-256
// digest, and only then apply it into the installed set.
//
// The verify-before-apply gate is the safety property the package
// exists to enforce: Apply refuses any name whose current status is
// not exactly Verified, so a blob that failed integrity checking (or
// was never checked at all) can never reach the installed directory.
package firmware
