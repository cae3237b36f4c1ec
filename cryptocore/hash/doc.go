// Copyright 2026 The Syncdrive Authors
// SPDX-License-Identifier: Apache-2.0

// Package hash implements SHA-256 from first principles, per FIPS 180-4.
//
// This is deliberately not a thin wrapper around crypto/sha256: the agent's
// firmware integrity gate and at-rest log confidentiality both sit on top
// of a hand-rolled primitive so the whole cryptographic substrate (this
// package plus cryptocore/cipher) has no dependency on the standard
// library's crypto implementations.
//
// [Digest] streams arbitrary amounts of data through Write calls and
// produces the same 32-byte result regardless of how the caller chunks
// its input (see [Digest.Sum]). [HashFile] and [VerifyFile] are the two
// entry points most callers need; [VerifyFile] compares against an
// expected hex digest using a constant-time reduction so a firmware
// integrity check never exits early on the first mismatched byte.
package hash
