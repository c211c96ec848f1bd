package keyring

import (
	"bytes"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

func TestDeriveMasterDeterministic(t *testing.T) {
	salt := bytes.Repeat([]byte{0x42}, 32)
	params := DefaultKDFParams()

	k1, err := DeriveMaster("correct horse battery staple", salt, params)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	k2, err := DeriveMaster("correct horse battery staple", salt, params)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if !bytes.Equal(k1, k2) {
		t.Fatalf("expected deterministic derivation for identical inputs")
	}

	k3, err := DeriveMaster("wrong passphrase", salt, params)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if bytes.Equal(k1, k3) {
		t.Fatalf("expected different master keys for different passphrases")
	}
}

func TestDeriveMasterRejectsWeakParams(t *testing.T) {
	salt := bytes.Repeat([]byte{0x01}, 32)
	weak := KDFParams{TimeCost: 1, MemoryCostKB: 1024, Parallelism: 1}
	if _, err := DeriveMaster("pw", salt, weak); err == nil {
		t.Fatalf("expected weak KDF params to be rejected")
	}
}

func TestDeriveLabeledSubkeysDistinct(t *testing.T) {
	master, _ := DeriveMaster("pw", bytes.Repeat([]byte{0x02}, 32), DefaultKDFParams())
	keys, err := DeriveLabeledSubkeys(master)
	if err != nil {
		t.Fatalf("derive subkeys: %v", err)
	}
	if bytes.Equal(keys.IndexKey, keys.EntryKey) || bytes.Equal(keys.EntryKey, keys.MetadataKey) {
		t.Fatalf("expected distinct labeled subkeys")
	}
}

func TestHolderLockZeroizes(t *testing.T) {
	master, _ := DeriveMaster("pw", bytes.Repeat([]byte{0x03}, 32), DefaultKDFParams())
	keys, _ := DeriveLabeledSubkeys(master)
	sentinelCopy := append([]byte(nil), keys.IndexKey...)

	h := NewHolder(keys, 0)
	if _, err := h.GetKey(IndexKeyLabel); err != nil {
		t.Fatalf("expected unlocked access: %v", err)
	}

	h.Lock()
	if !h.IsLocked() {
		t.Fatalf("expected holder to report locked")
	}
	if _, err := h.GetKey(IndexKeyLabel); err == nil {
		t.Fatalf("expected locked access to fail")
	}
	if bytes.Equal(keys.IndexKey, sentinelCopy) {
		t.Fatalf("expected key bytes to be zeroized after lock")
	}
	allZero := true
	for _, b := range keys.IndexKey {
		if b != 0 {
			allZero = false
			break
		}
	}
	if !allZero {
		t.Fatalf("expected key buffer to be all-zero after lock")
	}
}

func TestHolderAutoLockExpiry(t *testing.T) {
	master, _ := DeriveMaster("pw", bytes.Repeat([]byte{0x04}, 32), DefaultKDFParams())
	keys, _ := DeriveLabeledSubkeys(master)

	mock := clock.NewMock()
	h := NewHolderWithClock(keys, 5*time.Minute, mock)

	if h.IsLocked() {
		t.Fatalf("expected holder to start unlocked")
	}

	mock.Add(5*time.Minute + time.Second)
	// AfterFunc callbacks run synchronously against the mock clock's queue.
	if !h.IsLocked() {
		t.Fatalf("expected holder to auto-lock after expiry")
	}
}
