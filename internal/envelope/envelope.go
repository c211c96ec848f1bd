// Package envelope implements the AEAD envelope: AES-256-GCM with a
// 96-bit random IV per message, on-disk encoding base64(IV ‖ ciphertext ‖
// tag), and a canonicalize-to-JSON variant for structured values. Modeled
// on encryptionOps.go's GCM branch (encryptWithGCM/DecryptWithGCM),
// generalized from "encrypt key material with a mode selected at init
// time" to "encrypt any payload with key-scoped associated data," and
// narrowed to GCM only since one envelope algorithm covers every caller.
package envelope

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/slasshy/vault/internal/primitives"
	"github.com/slasshy/vault/internal/vaulterrors"
)

const nonceSize = 12 // 96-bit GCM nonce

// Encrypt seals plaintext under key with the given associated data and
// returns base64(IV ‖ ciphertext ‖ tag). A fresh IV is drawn from the CSPRNG
// on every call, so the same (key, aad, plaintext) triple never produces
// the same payload twice.
func Encrypt(plaintext, key, aad []byte) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}
	nonce, err := primitives.RandomBytes(nonceSize)
	if err != nil {
		return "", err
	}
	sealed := gcm.Seal(nil, nonce, plaintext, aad)
	out := make([]byte, 0, len(nonce)+len(sealed))
	out = append(out, nonce...)
	out = append(out, sealed...)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt opens a payload produced by Encrypt. Any authentication failure
// — tampered ciphertext, tampered AAD, or the wrong key — is surfaced as
// the single vaulterrors.ErrTampered, never a partial or probed result.
func Decrypt(payload string, key, aad []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed payload", vaulterrors.ErrTampered)
	}
	if len(raw) < nonceSize+gcm.Overhead() {
		return nil, fmt.Errorf("%w: payload too short", vaulterrors.ErrTampered)
	}
	nonce, ciphertext := raw[:nonceSize], raw[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, vaulterrors.ErrTampered
	}
	return plaintext, nil
}

// EncryptObject canonicalizes value to JSON, then encrypts it.
func EncryptObject(value any, key, aad []byte) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("envelope: marshal object: %w", err)
	}
	return Encrypt(data, key, aad)
}

// DecryptObject decrypts a payload produced by EncryptObject and
// unmarshals it into out (a pointer).
func DecryptObject(payload string, key, aad []byte, out any) error {
	data, err := Decrypt(payload, key, aad)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: object unmarshal: %v", vaulterrors.ErrTampered, err)
	}
	return nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("envelope: key must be 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("envelope: new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("envelope: new gcm: %w", err)
	}
	return gcm, nil
}
