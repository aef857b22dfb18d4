package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"finance-sync-go/internal/models"
)

const (
	keyLength   = 32
	nonceLength = 16
	tagLength   = 16
)

// ErrIntegrity indicates a blob that failed authentication or is malformed.
// Callers must treat it as fatal for the affected credential, never retry.
var ErrIntegrity = errors.New("credential integrity check failed")

// Vault encrypts and decrypts credential blobs at rest with AES-256-GCM.
// Each encryption uses a fresh random nonce, so two encryptions of the same
// plaintext never produce the same blob. The emitted format is
// nonceHex:tagHex:cipherHex.
type Vault struct {
	aead cipher.AEAD
}

// New builds a Vault from a 64-hex-character (32 byte) key. Key problems are
// startup-time errors; nothing is retried at runtime.
func New(keyHex string) (*Vault, error) {
	if len(keyHex) != keyLength*2 {
		return nil, fmt.Errorf("encryption key must be %d hex characters (%d bytes), got %d", keyLength*2, keyLength, len(keyHex))
	}

	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("encryption key is not valid hex: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("unable to create cipher: %w", err)
	}

	aead, err := cipher.NewGCMWithNonceSize(block, nonceLength)
	if err != nil {
		return nil, fmt.Errorf("unable to create GCM: %w", err)
	}

	return &Vault{aead: aead}, nil
}

// Encrypt seals plaintext into an opaque nonceHex:tagHex:cipherHex string.
func (v *Vault) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, nonceLength)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("unable to generate nonce: %w", err)
	}

	sealed := v.aead.Seal(nil, nonce, []byte(plaintext), nil)

	// Seal appends the authentication tag after the ciphertext; the blob
	// format carries the tag as its own segment.
	ciphertext := sealed[:len(sealed)-tagLength]
	tag := sealed[len(sealed)-tagLength:]

	return hex.EncodeToString(nonce) + ":" + hex.EncodeToString(tag) + ":" + hex.EncodeToString(ciphertext), nil
}

// Decrypt opens a blob produced by Encrypt. Returns ErrIntegrity if the blob
// is malformed or the authentication tag does not verify.
func (v *Vault) Decrypt(blob string) (string, error) {
	parts := strings.Split(blob, ":")
	if len(parts) != 3 {
		return "", fmt.Errorf("%w: expected 3 segments, got %d", ErrIntegrity, len(parts))
	}

	nonce, err := hex.DecodeString(parts[0])
	if err != nil || len(nonce) != nonceLength {
		return "", fmt.Errorf("%w: invalid nonce segment", ErrIntegrity)
	}

	tag, err := hex.DecodeString(parts[1])
	if err != nil || len(tag) != tagLength {
		return "", fmt.Errorf("%w: invalid tag segment", ErrIntegrity)
	}

	ciphertext, err := hex.DecodeString(parts[2])
	if err != nil {
		return "", fmt.Errorf("%w: invalid ciphertext segment", ErrIntegrity)
	}

	plaintext, err := v.aead.Open(nil, nonce, append(ciphertext, tag...), nil)
	if err != nil {
		return "", fmt.Errorf("%w: authentication failed", ErrIntegrity)
	}

	return string(plaintext), nil
}

// EncryptCredentials seals a credential record for storage.
func (v *Vault) EncryptCredentials(creds models.Credentials) (string, error) {
	data, err := json.Marshal(creds)
	if err != nil {
		return "", fmt.Errorf("unable to marshal credentials: %w", err)
	}
	return v.Encrypt(string(data))
}

// DecryptCredentials opens a stored credential blob.
func (v *Vault) DecryptCredentials(blob string) (models.Credentials, error) {
	plaintext, err := v.Decrypt(blob)
	if err != nil {
		return models.Credentials{}, err
	}

	var creds models.Credentials
	if err := json.Unmarshal([]byte(plaintext), &creds); err != nil {
		return models.Credentials{}, fmt.Errorf("unable to unmarshal credentials: %w", err)
	}
	return creds, nil
}
