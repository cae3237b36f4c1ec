// Copyright 2026 The Syncdrive Authors
// SPDX-License-Identifier: Apache-2.0

package cipher

import (
	"crypto/rand"
	"fmt"
	"io"
	"os"

	"github.com/fieldsync/syncdrive/lib/secret"
)

// ivSize is the size of the random initialization vector prepended to
// every ciphertext, equal to the AES block size.
const ivSize = blockSize

// Cipher encrypts and decrypts byte streams using AES-256 in CBC mode
// with PKCS#7 padding. A Cipher is safe for concurrent use: each call
// builds its own block schedule state on the stack and touches no
// shared mutable fields besides the immutable key schedule and entropy
// source.
type Cipher struct {
	bc      *blockCipher
	entropy io.Reader
}

// New returns a Cipher for the given AES-256 key, drawing IVs from
// crypto/rand.Reader.
func New(key []byte) (*Cipher, error) {
	return NewWithEntropy(key, rand.Reader)
}

// NewWithEntropy returns a Cipher that draws its IVs from entropy
// instead of crypto/rand.Reader. This exists so tests can supply a
// deterministic reader and assert on exact ciphertext bytes; production
// callers should use New.
func NewWithEntropy(key []byte, entropy io.Reader) (*Cipher, error) {
	if entropy == nil {
		return nil, fmt.Errorf("cipher: entropy source must not be nil")
	}
	return &Cipher{bc: newBlockCipher(normalizeKey(key)), entropy: entropy}, nil
}

// normalizeKey enforces the key-size contract: shorter keys are
// zero-padded to 32 bytes, longer keys are truncated to the first 32
// bytes. This is an observable behavior, not an error path — a
// misconfigured key length never fails construction, it silently
// changes which 32 bytes actually get used.
func normalizeKey(key []byte) []byte {
	out := make([]byte, keySize)
	n := len(key)
	if n > keySize {
		n = keySize
	}
	copy(out, key[:n])
	return out
}

// Encrypt pads plaintext with PKCS#7, draws a fresh random IV, and
// returns IV(16) || ciphertext. The returned length is always
// len(plaintext) plus 1 to 16 bytes of padding (a full extra block when
// len(plaintext) is already block-aligned), plus 16.
func (c *Cipher) Encrypt(plaintext []byte) ([]byte, error) {
	padded := pkcs7Pad(plaintext, blockSize)

	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(c.entropy, iv); err != nil {
		return nil, fmt.Errorf("cipher: reading IV: %w", err)
	}

	out := make([]byte, ivSize+len(padded))
	copy(out, iv)

	prev := [blockSize]byte{}
	copy(prev[:], iv)

	for offset := 0; offset < len(padded); offset += blockSize {
		var block [blockSize]byte
		copy(block[:], padded[offset:offset+blockSize])
		for i := range block {
			block[i] ^= prev[i]
		}
		cipherBlock := c.bc.encryptBlock(&block)
		copy(out[ivSize+offset:ivSize+offset+blockSize], cipherBlock[:])
		prev = cipherBlock
	}

	return out, nil
}

// Decrypt consumes a 16-byte IV prefix, CBC-decrypts the remainder, and
// strips PKCS#7 padding. It returns an error if the input is shorter
// than one IV plus one block, is not a whole number of blocks, or the
// padding is structurally invalid.
func (c *Cipher) Decrypt(data []byte) ([]byte, error) {
	if len(data) < ivSize+blockSize || (len(data)-ivSize)%blockSize != 0 {
		return nil, fmt.Errorf("cipher: malformed ciphertext: length %d is not IV + whole blocks", len(data))
	}

	prev := [blockSize]byte{}
	copy(prev[:], data[:ivSize])
	body := data[ivSize:]

	out := make([]byte, len(body))
	for offset := 0; offset < len(body); offset += blockSize {
		var cipherBlock [blockSize]byte
		copy(cipherBlock[:], body[offset:offset+blockSize])
		plainBlock := c.bc.decryptBlock(&cipherBlock)
		for i := range plainBlock {
			plainBlock[i] ^= prev[i]
		}
		copy(out[offset:offset+blockSize], plainBlock[:])
		prev = cipherBlock
	}

	return pkcs7Unpad(out, blockSize)
}

// StoreToFile encrypts plaintext and writes IV(16) || ciphertext to
// path.
func (c *Cipher) StoreToFile(path string, plaintext []byte) error {
	encrypted, err := c.Encrypt(plaintext)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, encrypted, 0o600); err != nil {
		return fmt.Errorf("cipher: writing %s: %w", path, err)
	}
	return nil
}

// LoadFromFile reads the file at path and decrypts it, rejecting
// anything shorter than one IV plus one block before it ever reaches
// padding validation.
func (c *Cipher) LoadFromFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cipher: reading %s: %w", path, err)
	}
	if len(data) < ivSize+blockSize {
		return nil, fmt.Errorf("cipher: %s is too short to be a valid ciphertext (%d bytes)", path, len(data))
	}
	return c.Decrypt(data)
}

// pkcs7Pad appends between 1 and blockSize padding bytes, each holding
// the pad length, so the result is always a whole number of blocks
// even when len(data) is already a multiple of blockSize.
func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padLen)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}
	return padded
}

// pkcs7Unpad validates and strips PKCS#7 padding. It rejects a pad byte
// of 0, a pad byte greater than blockSize, a pad byte greater than the
// remaining data length, or any padding byte that does not match the
// stated pad length. It returns at the first check that fails, with an
// error naming that check.
func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, fmt.Errorf("cipher: cannot unpad %d bytes against block size %d", len(data), blockSize)
	}

	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > blockSize || padLen > len(data) {
		return nil, fmt.Errorf("cipher: invalid PKCS#7 padding length %d", padLen)
	}

	for i := len(data) - padLen; i < len(data); i++ {
		if int(data[i]) != padLen {
			return nil, fmt.Errorf("cipher: invalid PKCS#7 padding byte at offset %d", i)
		}
	}

	return data[:len(data)-padLen], nil
}

// SecureKey wraps an AES-256 key in an mmap-backed, mlocked secret.Buffer
// so the key material never sits unprotected on the Go heap between
// construction and the calls that consume it.
type SecureKey struct {
	buf *secret.Buffer
}

// NewSecureKey normalizes raw to 32 bytes (zero-padding or truncating,
// per the CipherKey contract) and copies the result into a protected
// secret.Buffer, zeroing the caller's copy.
func NewSecureKey(raw []byte) (*SecureKey, error) {
	normalized := normalizeKey(raw)
	for i := range raw {
		raw[i] = 0
	}
	buf, err := secret.NewFromBytes(normalized)
	if err != nil {
		return nil, fmt.Errorf("cipher: protecting key material: %w", err)
	}
	return &SecureKey{buf: buf}, nil
}

// Cipher builds a Cipher backed by this key's protected bytes.
func (k *SecureKey) Cipher() (*Cipher, error) {
	return New(k.buf.Bytes())
}

// Close zeros and releases the underlying protected memory.
func (k *SecureKey) Close() error {
	return k.buf.Close()
}
