// Copyright 2026 The Syncdrive Authors
// SPDX-License-Identifier: Apache-2.0

package hash

// Size is the length in bytes of a SHA-256 digest.
const Size = 32

// blockSize is the length in bytes of a SHA-256 message block.
const blockSize = 64

// initial hash values, the first 32 bits of the fractional parts of the
// square roots of the first 8 primes.
var initialState = [8]uint32{
	0x6a09e667, 0xbb67ae85, 0x3c6ef372, 0xa54ff53a,
	0x510e527f, 0x9b05688c, 0x1f83d9ab, 0x5be0cd19,
}

// round constants, the first 32 bits of the fractional parts of the cube
// roots of the first 64 primes.
var roundConstants = [64]uint32{
	0x428a2f98, 0x71374491, 0xb5c0fbcf, 0xe9b5dba5,
	0x3956c25b, 0x59f111f1, 0x923f82a4, 0xab1c5ed5,
	0xd807aa98, 0x12835b01, 0x243185be, 0x550c7dc3,
	0x72be5d74, 0x80deb1fe, 0x9bdc06a7, 0xc19bf174,
	0xe49b69c1, 0xefbe4786, 0x0fc19dc6, 0x240ca1cc,
	0x2de92c6f, 0x4a7484aa, 0x5cb0a9dc, 0x76f988da,
	0x983e5152, 0xa831c66d, 0xb00327c8, 0xbf597fc7,
	0xc6e00bf3, 0xd5a79147, 0x06ca6351, 0x14292967,
	0x27b70a85, 0x2e1b2138, 0x4d2c6dfc, 0x53380d13,
	0x650a7354, 0x766a0abb, 0x81c2c92e, 0x92722c85,
	0xa2bfe8a1, 0xa81a664b, 0xc24b8b70, 0xc76c51a3,
	0xd192e819, 0xd6990624, 0xf40e3585, 0x106aa070,
	0x19a4c116, 0x1e376c08, 0x2748774c, 0x34b0bcb5,
	0x391c0cb3, 0x4ed8aa4a, 0x5b9cca4f, 0x682e6ff3,
	0x748f82ee, 0x78a5636f, 0x84c87814, 0x8cc70208,
	0x90befffa, 0xa4506ceb, 0xbef9a3f7, 0xc67178f2,
}

// Digest accumulates SHA-256 state across successive Write calls. The
// zero value is not valid; use New.
type Digest struct {
	state    [8]uint32
	buf      [blockSize]byte
	bufLen   int
	totalLen uint64 // total bytes written, for the length suffix
}

// New returns a Digest ready to accept data via Write.
func New() *Digest {
	d := &Digest{}
	d.state = initialState
	return d
}

// Write absorbs p into the running hash. It never returns an error.
func (d *Digest) Write(p []byte) (int, error) {
	n := len(p)
	d.totalLen += uint64(n)

	if d.bufLen > 0 {
		room := blockSize - d.bufLen
		if room > len(p) {
			room = len(p)
		}
		copy(d.buf[d.bufLen:], p[:room])
		d.bufLen += room
		p = p[room:]
		if d.bufLen == blockSize {
			d.processBlock(d.buf[:])
			d.bufLen = 0
		}
	}

	for len(p) >= blockSize {
		d.processBlock(p[:blockSize])
		p = p[blockSize:]
	}

	if len(p) > 0 {
		copy(d.buf[d.bufLen:], p)
		d.bufLen += len(p)
	}

	return n, nil
}

// Sum finalizes a copy of the current state (padding and appending the
// 64-bit bit-length suffix per FIPS 180-4 §5.1.1) and returns the
// resulting 32-byte digest. The receiver is left unmodified, so callers
// may continue writing after calling Sum — mirroring hash.Hash semantics
// even though this package does not implement that interface directly.
func (d *Digest) Sum() [Size]byte {
	clone := *d

	// Append the 0x80 terminator bit, then zero padding, then the
	// 64-bit big-endian bit length, so the total length is a multiple
	// of the block size.
	clone.buf[clone.bufLen] = 0x80
	clone.bufLen++

	if clone.bufLen > blockSize-8 {
		for clone.bufLen < blockSize {
			clone.buf[clone.bufLen] = 0
			clone.bufLen++
		}
		clone.processBlock(clone.buf[:])
		clone.bufLen = 0
	}
	for clone.bufLen < blockSize-8 {
		clone.buf[clone.bufLen] = 0
		clone.bufLen++
	}

	bitLen := clone.totalLen * 8
	for i := 0; i < 8; i++ {
		clone.buf[blockSize-1-i] = byte(bitLen >> (8 * i))
	}
	clone.processBlock(clone.buf[:])

	var out [Size]byte
	for i, word := range clone.state {
		out[i*4] = byte(word >> 24)
		out[i*4+1] = byte(word >> 16)
		out[i*4+2] = byte(word >> 8)
		out[i*4+3] = byte(word)
	}
	return out
}

func (d *Digest) processBlock(block []byte) {
	var w [64]uint32
	for i := 0; i < 16; i++ {
		w[i] = uint32(block[i*4])<<24 | uint32(block[i*4+1])<<16 |
			uint32(block[i*4+2])<<8 | uint32(block[i*4+3])
	}
	for i := 16; i < 64; i++ {
		s0 := rotr32(w[i-15], 7) ^ rotr32(w[i-15], 18) ^ (w[i-15] >> 3)
		s1 := rotr32(w[i-2], 17) ^ rotr32(w[i-2], 19) ^ (w[i-2] >> 10)
		w[i] = w[i-16] + s0 + w[i-7] + s1
	}

	a, b, c, dd, e, f, g, h := d.state[0], d.state[1], d.state[2], d.state[3],
		d.state[4], d.state[5], d.state[6], d.state[7]

	for i := 0; i < 64; i++ {
		bigS1 := rotr32(e, 6) ^ rotr32(e, 11) ^ rotr32(e, 25)
		ch := (e & f) ^ (^e & g)
		temp1 := h + bigS1 + ch + roundConstants[i] + w[i]
		bigS0 := rotr32(a, 2) ^ rotr32(a, 13) ^ rotr32(a, 22)
		maj := (a & b) ^ (a & c) ^ (b & c)
		temp2 := bigS0 + maj

		h = g
		g = f
		f = e
		e = dd + temp1
		dd = c
		c = b
		b = a
		a = temp1 + temp2
	}

	d.state[0] += a
	d.state[1] += b
	d.state[2] += c
	d.state[3] += dd
	d.state[4] += e
	d.state[5] += f
	d.state[6] += g
	d.state[7] += h
}

func rotr32(x uint32, n uint) uint32 {
	return (x >> n) | (x << (32 - n))
}

// HashBytes computes the SHA-256 digest of data in one call.
func HashBytes(data []byte) [Size]byte {
	d := New()
	d.Write(data)
	return d.Sum()
}
