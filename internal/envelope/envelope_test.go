package envelope

import (
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/slasshy/vault/internal/primitives"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	k, err := primitives.RandomBytes(32)
	if err != nil {
		t.Fatalf("random key: %v", err)
	}
	return k
}

func TestRoundTrip(t *testing.T) {
	key := testKey(t)
	aad := []byte("entry-id-123")
	plaintext := []byte("hunter2")

	payload, err := Encrypt(plaintext, key, aad)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	got, err := Decrypt(payload, key, aad)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("roundtrip mismatch: got %q want %q", got, plaintext)
	}
}

func TestTamperedCiphertextFails(t *testing.T) {
	key := testKey(t)
	aad := []byte("aad")
	payload, err := Encrypt([]byte("secret"), key, aad)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	// Flip the first byte after the 12-byte IV so we mutate ciphertext, not
	// the IV or the base64 padding.
	raw[nonceSize] ^= 0xFF
	tampered := base64.StdEncoding.EncodeToString(raw)

	if _, err := Decrypt(tampered, key, aad); err == nil {
		t.Fatalf("expected tampered ciphertext to fail")
	}
}

func TestTamperedAADFails(t *testing.T) {
	key := testKey(t)
	payload, err := Encrypt([]byte("secret"), key, []byte("aad-1"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if _, err := Decrypt(payload, key, []byte("aad-2")); err == nil {
		t.Fatalf("expected mismatched AAD to fail")
	}
}

func TestWrongKeyFails(t *testing.T) {
	key1 := testKey(t)
	key2 := testKey(t)
	payload, err := Encrypt([]byte("secret"), key1, []byte("aad"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if _, err := Decrypt(payload, key2, []byte("aad")); err == nil {
		t.Fatalf("expected wrong key to fail")
	}
}

type sample struct {
	Name string `json:"name"`
	Count int `json:"count"`
}

func TestEncryptDecryptObject(t *testing.T) {
	key := testKey(t)
	in := sample{Name: "github", Count: 3}
	payload, err := EncryptObject(in, key, []byte("id"))
	if err != nil {
		t.Fatalf("encrypt object: %v", err)
	}
	var out sample
	if err := DecryptObject(payload, key, []byte("id"), &out); err != nil {
		t.Fatalf("decrypt object: %v", err)
	}
	if out != in {
		t.Fatalf("object roundtrip mismatch: got %+v want %+v", out, in)
	}
}

func TestEncryptNeverRepeatsIV(t *testing.T) {
	key := testKey(t)
	p1, err := Encrypt([]byte("same plaintext"), key, []byte("aad"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	p2, err := Encrypt([]byte("same plaintext"), key, []byte("aad"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if p1 == p2 {
		t.Fatalf("expected distinct payloads for identical plaintext due to fresh IV")
	}
}
