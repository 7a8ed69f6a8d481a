// Package crypto seals snapshot blobs for the git store.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const (
	// NonceSize is the size of the nonce for AES-GCM (12 bytes).
	NonceSize = 12
	// KeySize is the size of the AES-256 key (32 bytes).
	KeySize = 32
)

var (
	// ErrInvalidKey is returned when the encryption key is invalid.
	ErrInvalidKey = errors.New("invalid encryption key: must be 32 bytes (64 hex characters)")
	// ErrDecryptionFailed is returned when decryption fails.
	ErrDecryptionFailed = errors.New("decryption failed: invalid ciphertext or key")
	// ErrCiphertextTooShort is returned when the ciphertext is too short.
	ErrCiphertextTooShort = errors.New("ciphertext too short")
)

// Encryptor handles AES-256-GCM encryption with content-derived nonces.
//
// The nonce is an HMAC of the plaintext, so the same snapshot always seals
// to the same blob and unchanged snapshots keep their object hash. Equal
// plaintexts are therefore recognizable as equal; nothing else leaks.
type Encryptor struct {
	gcm      cipher.AEAD
	nonceKey []byte
}

// NewEncryptor creates a new Encryptor with the given hex-encoded key.
// The key must be 64 hex characters (32 bytes).
func NewEncryptor(hexKey string) (*Encryptor, error) {
	key, err := hex.DecodeString(strings.TrimSpace(hexKey))
	if err != nil || len(key) != KeySize {
		return nil, ErrInvalidKey
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}

	// Separate key for nonce derivation.
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte("issuetree nonce"))

	return &Encryptor{gcm: gcm, nonceKey: mac.Sum(nil)}, nil
}

func (e *Encryptor) nonce(plaintext []byte) []byte {
	mac := hmac.New(sha256.New, e.nonceKey)
	mac.Write(plaintext)
	return mac.Sum(nil)[:NonceSize]
}

// Encrypt seals plaintext.
// Returns: nonce (12 bytes) + ciphertext + auth tag
func (e *Encryptor) Encrypt(plaintext []byte) []byte {
	nonce := e.nonce(plaintext)
	return e.gcm.Seal(nonce, nonce, plaintext, nil)
}

// Decrypt opens a sealed blob.
// Expects: nonce (12 bytes) + ciphertext + auth tag
func (e *Encryptor) Decrypt(sealed []byte) ([]byte, error) {
	if len(sealed) < NonceSize {
		return nil, ErrCiphertextTooShort
	}
	plaintext, err := e.gcm.Open(nil, sealed[:NonceSize], sealed[NonceSize:], nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}
