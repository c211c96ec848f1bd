package vaultindex

// onDiskIndex is the literal JSON document persisted at index.bin:
// base64(IV‖ct‖tag) where plaintext is canonical JSON matching the Vault
// Index. Salt and KeyHash must be readable without decrypting anything —
// unlock needs them to re-derive keys before it can even attempt a
// decrypt — so they sit outside the AEAD envelope as a cleartext header;
// Body is the actual encrypted payload, using the version string as AAD
// (aad = Version below).
type onDiskIndex struct {
	Version string `json:"version"`
	Salt string `json:"salt"`
	KeyHash string `json:"key_hash"`
	Body string `json:"body"`
	Duress *DuressConfig `json:"duress,omitempty"`

	// KeyVerifierV2 is reserved for a future dedicated verification key,
	// HKDF-derived and domain-separated from the master, to replace
	// KeyHash's exposed sha256(master) preimage. Left unpopulated;
	// migration is a future schema version bump.
	KeyVerifierV2 string `json:"key_verifier_v2,omitempty"`
}

// indexBody is the plaintext structure sealed inside onDiskIndex.Body —
// the Vault Index, minus the fields that must stay cleartext.
type indexBody struct {
	Entries map[string]IndexEntry `json:"entries"`
	Metadata Metadata `json:"metadata"`
	SecondFactor string `json:"second_factor,omitempty"`
	TombstonedHandles []string `json:"tombstoned_handles,omitempty"`

	// DecoyHandles lists cloud handles of decoy carriers uploaded to pad
	// the collaborator's carrier set per Settings.DecoyRatio. A decoy
	// belongs to no Index Entry; it exists purely so the cloud side
	// cannot distinguish real fragment counts from padding.
	DecoyHandles []string `json:"decoy_handles,omitempty"`
}

// CurrentVersion is the Vault Index schema version written by new vaults.
// It is monotonically non-decreasing across the life of a vault.
const CurrentVersion = "1"
