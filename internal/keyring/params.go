// Package keyring implements the key hierarchy: passphrase to master key
// via Argon2id, master key to labeled subkeys via HKDF-SHA256, and an
// in-memory key holder with auto-expiry and zeroization. Modeled on an
// aeskey package's KDFConfig and its Setup*Defaults / Build*Config shape,
// generalized from scrypt/PBKDF2 to Argon2id, and on an argon2id_deriver.go
// for the argon2.IDKey call shape.
package keyring

import "github.com/slasshy/vault/internal/vaulterrors"

// Argon2 parameters. These are authoritative defaults; implementations must
// reject weaker.
const (
	Argon2TimeCost = 3
	Argon2MemoryCostKB = 64 * 1024 // 64 MiB
	Argon2Parallelism = 4
	MasterKeyLen = 32

	IndexKeyLabel = "slasshy-index-key"
	EntryKeyLabel = "slasshy-entry-key"
	MetadataKeyLabel = "slasshy-metadata-key"
)

// KDFParams carries the Argon2id cost parameters actually used to derive a
// given vault's master key. A vault reads them from the kdf block of its
// settings file (see internal/config), falling back to the defaults above
// for keys that are not set; Validate rejects anything weaker than those
// defaults, so a vault can tighten costs but never loosen them.
type KDFParams struct {
	TimeCost uint32
	MemoryCostKB uint32
	Parallelism uint8
}

// DefaultKDFParams returns the authoritative Argon2id parameters.
func DefaultKDFParams() KDFParams {
	return KDFParams{
		TimeCost:     Argon2TimeCost,
		MemoryCostKB: Argon2MemoryCostKB,
		Parallelism:  Argon2Parallelism,
	}
}

// Validate rejects parameters weaker than the authoritative defaults.
func (p KDFParams) Validate() error {
	if p.TimeCost < Argon2TimeCost || p.MemoryCostKB < Argon2MemoryCostKB || p.Parallelism < Argon2Parallelism {
		return vaulterrors.ErrKdfFail
	}
	return nil
}
