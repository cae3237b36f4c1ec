// Copyright 2026 The Syncdrive Authors
// SPDX-License-Identifier: Apache-2.0

// Package cipher implements AES-256 in CBC mode with PKCS#7 padding from
// first principles: the Rijndael S-box tables, the key schedule, the
// round transforms (SubBytes, ShiftRows, MixColumns, AddRoundKey) and
// their inverses, and the CBC chaining logic that sits on top of the raw
// 128-bit block cipher.
//
// [Cipher] is confidentiality-only by construction: it guarantees nothing
// about integrity. A tampered or truncated ciphertext either fails a
// structural check (wrong length, invalid padding) or decrypts to
// plausible-looking garbage — it is the caller's job to cross-check
// important payloads against an out-of-band digest (see cryptocore/hash
// and the firmware package, which does exactly that before ever trusting
// a received blob).
//
// Every call to [Cipher.Encrypt] draws a fresh 16-byte IV from an
// injected entropy source (crypto/rand.Reader by default) and prepends
// it to the ciphertext; [Cipher.Decrypt] consumes that prefix. The wire
// format is bit-exact: IV(16) || C_1 || ... || C_n, no magic, no version,
// no MAC.
package cipher
