package keyring

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"

	"github.com/slasshy/vault/internal/vaulterrors"
)

// DeriveMaster derives a 32-byte master key from a passphrase and salt
// using Argon2id. Deterministic for a fixed (passphrase,
// salt, params) triple.
func DeriveMaster(passphrase string, salt []byte, params KDFParams) ([]byte, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if len(salt) < 16 {
		return nil, fmt.Errorf("%w: salt too short", vaulterrors.ErrKdfFail)
	}
	key := argon2.IDKey([]byte(passphrase), salt, params.TimeCost, params.MemoryCostKB, params.Parallelism, MasterKeyLen)
	return key, nil
}

// DeriveSubkey derives a labeled subkey from the master key using
// HKDF-SHA256 with an empty salt (the master is already salted) and
// info = label.
func DeriveSubkey(master []byte, label string, length int) ([]byte, error) {
	if length <= 0 {
		length = MasterKeyLen
	}
	r := hkdf.New(sha256.New, master, nil, []byte(label))
	out := make([]byte, length)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, fmt.Errorf("%w: hkdf expand: %v", vaulterrors.ErrKdfFail, err)
	}
	return out, nil
}

// LabeledSubkeys are the three subkeys always derived at unlock.
type LabeledSubkeys struct {
	IndexKey []byte
	EntryKey []byte
	MetadataKey []byte
}

// DeriveLabeledSubkeys derives the index, entry, and metadata subkeys from
// a master key in one pass.
func DeriveLabeledSubkeys(master []byte) (*LabeledSubkeys, error) {
	idx, err := DeriveSubkey(master, IndexKeyLabel, MasterKeyLen)
	if err != nil {
		return nil, err
	}
	entry, err := DeriveSubkey(master, EntryKeyLabel, MasterKeyLen)
	if err != nil {
		return nil, err
	}
	meta, err := DeriveSubkey(master, MetadataKeyLabel, MasterKeyLen)
	if err != nil {
		return nil, err
	}
	return &LabeledSubkeys{IndexKey: idx, EntryKey: entry, MetadataKey: meta}, nil
}

// Zero overwrites every subkey buffer with zeros.
func (k *LabeledSubkeys) Zero() {
	if k == nil {
		return
	}
	Zeroize(k.IndexKey)
	Zeroize(k.EntryKey)
	Zeroize(k.MetadataKey)
}

// Zeroize overwrites b with random bytes then zeros, the shutdown
// discipline applied to every tracked secret buffer on release.
func Zeroize(b []byte) {
	if len(b) == 0 {
		return
	}
	_, _ = rand.Read(b) // best effort; the zero pass below is unconditional
	for i := range b {
		b[i] = 0
	}
}
