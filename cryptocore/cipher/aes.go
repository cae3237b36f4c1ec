// Copyright 2026 The Syncdrive Authors
// SPDX-License-Identifier: Apache-2.0

package cipher

// blockSize is the AES block size in bytes: 128 bits, fixed regardless of
// key size.
const blockSize = 16

// keySize is the AES-256 key size in bytes.
const keySize = 32

// numRounds is the number of AES rounds for a 256-bit key (Nr = 14).
const numRounds = 14

// numKeyWords is the key length in 32-bit words for a 256-bit key (Nk = 8).
const numKeyWords = 8

// numRoundKeyWords is the total size of the expanded key schedule in
// 32-bit words: Nb*(Nr+1) = 4*15 = 60.
const numRoundKeyWords = 4 * (numRounds + 1)

// sbox is the Rijndael S-box used by SubBytes.
var sbox = [256]byte{
	0x63, 0x7c, 0x77, 0x7b, 0xf2, 0x6b, 0x6f, 0xc5, 0x30, 0x01, 0x67, 0x2b, 0xfe, 0xd7, 0xab, 0x76,
	0xca, 0x82, 0xc9, 0x7d, 0xfa, 0x59, 0x47, 0xf0, 0xad, 0xd4, 0xa2, 0xaf, 0x9c, 0xa4, 0x72, 0xc0,
	0xb7, 0xfd, 0x93, 0x26, 0x36, 0x3f, 0xf7, 0xcc, 0x34, 0xa5, 0xe5, 0xf1, 0x71, 0xd8, 0x31, 0x15,
	0x04, 0xc7, 0x23, 0xc3, 0x18, 0x96, 0x05, 0x9a, 0x07, 0x12, 0x80, 0xe2, 0xeb, 0x27, 0xb2, 0x75,
	0x09, 0x83, 0x2c, 0x1a, 0x1b, 0x6e, 0x5a, 0xa0, 0x52, 0x3b, 0xd6, 0xb3, 0x29, 0xe3, 0x2f, 0x84,
	0x53, 0xd1, 0x00, 0xed, 0x20, 0xfc, 0xb1, 0x5b, 0x6a, 0xcb, 0xbe, 0x39, 0x4a, 0x4c, 0x58, 0xcf,
	0xd0, 0xef, 0xaa, 0xfb, 0x43, 0x4d, 0x33, 0x85, 0x45, 0xf9, 0x02, 0x7f, 0x50, 0x3c, 0x9f, 0xa8,
	0x51, 0xa3, 0x40, 0x8f, 0x92, 0x9d, 0x38, 0xf5, 0xbc, 0xb6, 0xda, 0x21, 0x10, 0xff, 0xf3, 0xd2,
	0xcd, 0x0c, 0x13, 0xec, 0x5f, 0x97, 0x44, 0x17, 0xc4, 0xa7, 0x7e, 0x3d, 0x64, 0x5d, 0x19, 0x73,
	0x60, 0x81, 0x4f, 0xdc, 0x22, 0x2a, 0x90, 0x88, 0x46, 0xee, 0xb8, 0x14, 0xde, 0x5e, 0x0b, 0xdb,
	0xe0, 0x32, 0x3a, 0x0a, 0x49, 0x06, 0x24, 0x5c, 0xc2, 0xd3, 0xac, 0x62, 0x91, 0x95, 0xe4, 0x79,
	0xe7, 0xc8, 0x37, 0x6d, 0x8d, 0xd5, 0x4e, 0xa9, 0x6c, 0x56, 0xf4, 0xea, 0x65, 0x7a, 0xae, 0x08,
	0xba, 0x78, 0x25, 0x2e, 0x1c, 0xa6, 0xb4, 0xc6, 0xe8, 0xdd, 0x74, 0x1f, 0x4b, 0xbd, 0x8b, 0x8a,
	0x70, 0x3e, 0xb5, 0x66, 0x48, 0x03, 0xf6, 0x0e, 0x61, 0x35, 0x57, 0xb9, 0x86, 0xc1, 0x1d, 0x9e,
	0xe1, 0xf8, 0x98, 0x11, 0x69, 0xd9, 0x8e, 0x94, 0x9b, 0x1e, 0x87, 0xe9, 0xce, 0x55, 0x28, 0xdf,
	0x8c, 0xa1, 0x89, 0x0d, 0xbf, 0xe6, 0x42, 0x68, 0x41, 0x99, 0x2d, 0x0f, 0xb0, 0x54, 0xbb, 0x16,
}

// invSbox is the inverse Rijndael S-box used by InvSubBytes, satisfying
// invSbox[sbox[x]] == x for all x.
var invSbox = [256]byte{
	0x52, 0x09, 0x6a, 0xd5, 0x30, 0x36, 0xa5, 0x38, 0xbf, 0x40, 0xa3, 0x9e, 0x81, 0xf3, 0xd7, 0xfb,
	0x7c, 0xe3, 0x39, 0x82, 0x9b, 0x2f, 0xff, 0x87, 0x34, 0x8e, 0x43, 0x44, 0xc4, 0xde, 0xe9, 0xcb,
	0x54, 0x7b, 0x94, 0x32, 0xa6, 0xc2, 0x23, 0x3d, 0xee, 0x4c, 0x95, 0x0b, 0x42, 0xfa, 0xc3, 0x4e,
	0x08, 0x2e, 0xa1, 0x66, 0x28, 0xd9, 0x24, 0xb2, 0x76, 0x5b, 0xa2, 0x49, 0x6d, 0x8b, 0xd1, 0x25,
	0x72, 0xf8, 0xf6, 0x64, 0x86, 0x68, 0x98, 0x16, 0xd4, 0xa4, 0x5c, 0xcc, 0x5d, 0x65, 0xb6, 0x92,
	0x6c, 0x70, 0x48, 0x50, 0xfd, 0xed, 0xb9, 0xda, 0x5e, 0x15, 0x46, 0x57, 0xa7, 0x8d, 0x9d, 0x84,
	0x90, 0xd8, 0xab, 0x00, 0x8c, 0xbc, 0xd3, 0x0a, 0xf7, 0xe4, 0x58, 0x05, 0xb8, 0xb3, 0x45, 0x06,
	0xd0, 0x2c, 0x1e, 0x8f, 0xca, 0x3f, 0x0f, 0x02, 0xc1, 0xaf, 0xbd, 0x03, 0x01, 0x13, 0x8a, 0x6b,
	0x3a, 0x91, 0x11, 0x41, 0x4f, 0x67, 0xdc, 0xea, 0x97, 0xf2, 0xcf, 0xce, 0xf0, 0xb4, 0xe6, 0x73,
	0x96, 0xac, 0x74, 0x22, 0xe7, 0xad, 0x35, 0x85, 0xe2, 0xf9, 0x37, 0xe8, 0x1c, 0x75, 0xdf, 0x6e,
	0x47, 0xf1, 0x1a, 0x71, 0x1d, 0x29, 0xc5, 0x89, 0x6f, 0xb7, 0x62, 0x0e, 0xaa, 0x18, 0xbe, 0x1b,
	0xfc, 0x56, 0x3e, 0x4b, 0xc6, 0xd2, 0x79, 0x20, 0x9a, 0xdb, 0xc0, 0xfe, 0x78, 0xcd, 0x5a, 0xf4,
	0x1f, 0xdd, 0xa8, 0x33, 0x88, 0x07, 0xc7, 0x31, 0xb1, 0x12, 0x10, 0x59, 0x27, 0x80, 0xec, 0x5f,
	0x60, 0x51, 0x7f, 0xa9, 0x19, 0xb5, 0x4a, 0x0d, 0x2d, 0xe5, 0x7a, 0x9f, 0x93, 0xc9, 0x9c, 0xef,
	0xa0, 0xe0, 0x3b, 0x4d, 0xae, 0x2a, 0xf5, 0xb0, 0xc8, 0xeb, 0xbb, 0x3c, 0x83, 0x53, 0x99, 0x61,
	0x17, 0x2b, 0x04, 0x7e, 0xba, 0x77, 0xd6, 0x26, 0xe1, 0x69, 0x14, 0x63, 0x55, 0x21, 0x0c, 0x7d,
}

// blockCipher holds an expanded AES-256 key schedule and exposes
// single-block encrypt/decrypt. It has no notion of mode (CBC, etc.) —
// that lives in cbc.go, which drives this type one 16-byte block at a
// time.
type blockCipher struct {
	roundKeys [numRoundKeyWords]uint32
}

// newBlockCipher expands a 32-byte AES-256 key into the 60-word round
// key schedule (Rijndael key expansion, FIPS 197 §5.2).
func newBlockCipher(key []byte) *blockCipher {
	if len(key) != keySize {
		panic("cipher: AES-256 key must be exactly 32 bytes")
	}

	bc := &blockCipher{}
	for i := 0; i < numKeyWords; i++ {
		bc.roundKeys[i] = wordFromBytes(key[4*i : 4*i+4])
	}

	rc := byte(0x01)
	for i := numKeyWords; i < numRoundKeyWords; i++ {
		temp := bc.roundKeys[i-1]
		switch {
		case i%numKeyWords == 0:
			temp = subWord(rotWord(temp)) ^ (uint32(rc) << 24)
			rc = xtime(rc)
		case numKeyWords > 6 && i%numKeyWords == 4:
			temp = subWord(temp)
		}
		bc.roundKeys[i] = bc.roundKeys[i-numKeyWords] ^ temp
	}

	return bc
}

func wordFromBytes(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func subWord(w uint32) uint32 {
	return uint32(sbox[w>>24&0xff])<<24 |
		uint32(sbox[w>>16&0xff])<<16 |
		uint32(sbox[w>>8&0xff])<<8 |
		uint32(sbox[w&0xff])
}

func rotWord(w uint32) uint32 {
	return w<<8 | w>>24
}

// xtime multiplies a GF(2^8) element by x (i.e. by 2), reducing modulo
// the AES polynomial x^8+x^4+x^3+x+1 (0x11B, truncated to 0x1B once the
// high bit is shifted out of an 8-bit value).
func xtime(b byte) byte {
	hi := b & 0x80
	b <<= 1
	if hi != 0 {
		b ^= 0x1b
	}
	return b
}

// gmul multiplies two GF(2^8) elements under the AES reducing polynomial.
func gmul(a, b byte) byte {
	var product byte
	for i := 0; i < 8; i++ {
		if b&1 != 0 {
			product ^= a
		}
		hiBitSet := a & 0x80
		a <<= 1
		if hiBitSet != 0 {
			a ^= 0x1b
		}
		b >>= 1
	}
	return product
}

// addRoundKey XORs the 16-byte state (column-major: state[col*4+row])
// with the 4 words of round key at roundKeys[round*4 : round*4+4].
func (bc *blockCipher) addRoundKey(state *[blockSize]byte, round int) {
	for col := 0; col < 4; col++ {
		w := bc.roundKeys[round*4+col]
		state[col*4+0] ^= byte(w >> 24)
		state[col*4+1] ^= byte(w >> 16)
		state[col*4+2] ^= byte(w >> 8)
		state[col*4+3] ^= byte(w)
	}
}

func subBytes(state *[blockSize]byte) {
	for i := range state {
		state[i] = sbox[state[i]]
	}
}

func invSubBytes(state *[blockSize]byte) {
	for i := range state {
		state[i] = invSbox[state[i]]
	}
}

// shiftRows cyclically shifts row r left by r positions. Row r occupies
// positions {r, r+4, r+8, r+12} in the column-major byte layout.
func shiftRows(state *[blockSize]byte) {
	var row [4]byte
	for r := 1; r < 4; r++ {
		for c := 0; c < 4; c++ {
			row[c] = state[((c+r)%4)*4+r]
		}
		for c := 0; c < 4; c++ {
			state[c*4+r] = row[c]
		}
	}
}

func invShiftRows(state *[blockSize]byte) {
	var row [4]byte
	for r := 1; r < 4; r++ {
		for c := 0; c < 4; c++ {
			row[c] = state[((c-r+4)%4)*4+r]
		}
		for c := 0; c < 4; c++ {
			state[c*4+r] = row[c]
		}
	}
}

// mixColumns applies the MixColumns matrix to each column under GF(2^8)
// multiplication: [2 3 1 1; 1 2 3 1; 1 1 2 3; 3 1 1 2].
func mixColumns(state *[blockSize]byte) {
	for c := 0; c < 4; c++ {
		s0, s1, s2, s3 := state[c*4], state[c*4+1], state[c*4+2], state[c*4+3]
		state[c*4] = gmul(s0, 2) ^ gmul(s1, 3) ^ s2 ^ s3
		state[c*4+1] = s0 ^ gmul(s1, 2) ^ gmul(s2, 3) ^ s3
		state[c*4+2] = s0 ^ s1 ^ gmul(s2, 2) ^ gmul(s3, 3)
		state[c*4+3] = gmul(s0, 3) ^ s1 ^ s2 ^ gmul(s3, 2)
	}
}

// invMixColumns applies the inverse MixColumns matrix:
// [14 11 13 9; 9 14 11 13; 13 9 14 11; 11 13 9 14].
func invMixColumns(state *[blockSize]byte) {
	for c := 0; c < 4; c++ {
		s0, s1, s2, s3 := state[c*4], state[c*4+1], state[c*4+2], state[c*4+3]
		state[c*4] = gmul(s0, 14) ^ gmul(s1, 11) ^ gmul(s2, 13) ^ gmul(s3, 9)
		state[c*4+1] = gmul(s0, 9) ^ gmul(s1, 14) ^ gmul(s2, 11) ^ gmul(s3, 13)
		state[c*4+2] = gmul(s0, 13) ^ gmul(s1, 9) ^ gmul(s2, 14) ^ gmul(s3, 11)
		state[c*4+3] = gmul(s0, 11) ^ gmul(s1, 13) ^ gmul(s2, 9) ^ gmul(s3, 14)
	}
}

// encryptBlock encrypts exactly one 16-byte block in place semantics,
// returning a new 16-byte array.
func (bc *blockCipher) encryptBlock(in *[blockSize]byte) [blockSize]byte {
	state := *in
	bc.addRoundKey(&state, 0)

	for round := 1; round < numRounds; round++ {
		subBytes(&state)
		shiftRows(&state)
		mixColumns(&state)
		bc.addRoundKey(&state, round)
	}

	subBytes(&state)
	shiftRows(&state)
	bc.addRoundKey(&state, numRounds)

	return state
}

// decryptBlock decrypts exactly one 16-byte block.
func (bc *blockCipher) decryptBlock(in *[blockSize]byte) [blockSize]byte {
	state := *in
	bc.addRoundKey(&state, numRounds)

	for round := numRounds - 1; round >= 1; round-- {
		invShiftRows(&state)
		invSubBytes(&state)
		bc.addRoundKey(&state, round)
		invMixColumns(&state)
	}

	invShiftRows(&state)
	invSubBytes(&state)
	bc.addRoundKey(&state, 0)

	return state
}
