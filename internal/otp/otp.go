// Package otp generates the one-time reset codes and implements the
// symmetric cipher callers use to wrap a code before transmission.
//
// The cipher is not a security boundary: the secret is static and known to
// the server. It exists so the raw code never travels over a potentially
// logged channel. AES-256-GCM with a SHA-256-derived key; the nonce is
// prepended to the ciphertext and the whole blob is base64-encoded for
// JSON transport.
package otp

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"math/big"
)

// ErrDecrypt is returned when a ciphertext cannot be decrypted with the
// shared secret, for any reason. Callers treat all failures the same.
var ErrDecrypt = errors.New("otp: decryption failed")

// codeSpan is the size of the 6-digit code space: 100000 through 999999.
const (
	codeMin  = 100000
	codeSpan = 900000
)

// GenerateCode returns a 6-digit numeric code drawn uniformly at random
// from 100000-999999 using crypto/rand.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpan))
	if err != nil {
		return "", fmt.Errorf("generating code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+codeMin), nil
}

// deriveKey produces a 32-byte AES-256 key from the shared secret.
// Uses SHA-256 so any length secret works consistently.
func deriveKey(secret string) []byte {
	h := sha256.Sum256([]byte(secret))
	return h[:]
}

// Encrypt encrypts a plaintext code with the shared secret and returns the
// base64 blob a caller would submit to the verify endpoint. Provided for
// clients and tests; the server itself only decrypts.
func Encrypt(plaintext, secret string) (string, error) {
	if secret == "" {
		return "", errors.New("otp: empty secret")
	}

	block, err := aes.NewCipher(deriveKey(secret))
	if err != nil {
		return "", fmt.Errorf("creating cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("creating GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	// Nonce is prepended to ciphertext: [nonce][ciphertext+tag]
	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Any failure -- bad base64, truncated blob,
// wrong secret, tampered ciphertext -- returns ErrDecrypt.
func Decrypt(encoded, secret string) (string, error) {
	if secret == "" {
		return "", ErrDecrypt
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrDecrypt
	}

	block, err := aes.NewCipher(deriveKey(secret))
	if err != nil {
		return "", ErrDecrypt
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", ErrDecrypt
	}

	nonceSize := gcm.NonceSize()
	if len(raw) < nonceSize {
		return "", ErrDecrypt
	}

	nonce, ct := raw[:nonceSize], raw[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", ErrDecrypt
	}

	return string(plaintext), nil
}
