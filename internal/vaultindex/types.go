// Package vaultindex is the Vault Index & Record Store: the durable
// encrypted index mapping record ids to encrypted titles, metadata,
// carrier descriptors, and local-file or cloud-chunk references, plus the
// CRUD contract the external UI/CLI consume.
//
// Modeled on a config.Manager (a vaultRoot-scoped struct wrapping a
// loaded manifest, with load-on-demand and save-on-write methods)
// generalized from "manifest of file chunks" to "index of encrypted
// entries," and on a staged-transaction commit discipline (here:
// internal/vaulttxn) for every mutation.
package vaultindex

import "fmt"

// Kind distinguishes what an Entry stores.
type Kind string

const (
	KindCredential Kind = "credential"
	KindNote Kind = "note"
	KindFile Kind = "file"
)

// CarrierType is the steganographic carrier format an Index Entry's
// fragments are embedded in. Only png is implemented; jpg is reserved.
type CarrierType string

const (
	CarrierPNG CarrierType = "png"
	CarrierJPG CarrierType = "jpg"
	CarrierDecoy CarrierType = "decoy"
)

// Entry is the plaintext record: never serialized
// unencrypted to disk. It is assembled in memory from a decrypted record
// body plus the Index Entry fields that are stored in the clear inside
// the (separately encrypted) Vault Index body.
type Entry struct {
	ID string `json:"id"`
	Kind Kind `json:"kind"`
	Title string `json:"title"`
	Created int64 `json:"created"`
	Modified int64 `json:"modified"`
	Favorite bool `json:"favorite"`
	Category string `json:"category,omitempty"`

	Credential *CredentialFields `json:"credential,omitempty"`
	Note *NoteFields `json:"note,omitempty"`
	File *FileFields `json:"file,omitempty"`
}

// CredentialFields holds the fields kind=credential adds.
type CredentialFields struct {
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	URL string `json:"url,omitempty"`
	Notes string `json:"notes,omitempty"`
}

// NoteFields holds the field kind=note adds.
type NoteFields struct {
	Content string `json:"content"`
}

// FileFields holds the metadata kind=file adds. The body itself never
// lives here — it is stored as encrypted blob(s) addressed by
// ContentHash (internal/blobstore).
type FileFields struct {
	OriginalName string `json:"original_name"`
	MimeType string `json:"mime_type"`
	Size int64 `json:"size"`
	SHA256 string `json:"sha256"`
	ContentHash string `json:"content_hash"`
	Notes string `json:"notes,omitempty"`
}

// Field length limits for credential/note/entry values.
const (
	MaxTitleLen = 256
	MaxCategoryLen = 64
	MaxUsernameLen = 256
	MaxPasswordLen = 4096
	MaxURLLen = 2048
	MaxCredNotes = 65536
	MaxNoteContent = 1 << 20 // 1 MiB
)

// Fragments is a handle list, not an owning pointer: the
// ordered set of carrier descriptors that together hold one entry's
// encrypted record body when it has been fragmented out to stego carriers
// rather than kept as a single local record file.
type Fragments []CarrierDescriptor

// CarrierDescriptor names either a local path or a cloud chunk handle
// holding one fragment of an entry's encrypted body.
type CarrierDescriptor struct {
	Type CarrierType `json:"type"`
	LocalPath string `json:"local_path,omitempty"`
	CloudHandle string `json:"cloud_handle,omitempty"`
	FragmentIndex int `json:"fragment_index"`
	FragmentTotal int `json:"fragment_total"`
}

// IndexEntry is the encrypted-at-rest counterpart of Entry:
// everything but EncryptedTitle is stored in the clear inside the Vault
// Index's own AEAD-encrypted body, since the whole index.bin is already
// an encrypted root. EncryptedTitle is a second, independent envelope
// under the metadata key so searching/listing titles never requires the
// entry key.
type IndexEntry struct {
	ID string `json:"id"`
	EncryptedTitle string `json:"encrypted_title"`
	Carriers Fragments `json:"carriers,omitempty"`
	CarrierType CarrierType `json:"carrier_type"`
	Kind Kind `json:"kind"`
	Created int64 `json:"created"`
	Modified int64 `json:"modified"`
	Favorite bool `json:"favorite"`
	Category string `json:"category,omitempty"`
	File *FileFields `json:"file,omitempty"`

	// RecordPath is set when the record body is a local file under
	// records/ rather than fragmented out to carriers (
	// "record payloads sit beside it as encrypted blobs").
	RecordPath string `json:"record_path,omitempty"`

	// Compression names the algorithm (internal/compression.Algorithm)
	// the record body was compressed with before encryption, so Get can
	// reverse it regardless of what the vault's current settings say.
	Compression string `json:"compression,omitempty"`
}

// IndexSummary is what List returns: decrypted titles, never written
// back to disk.
type IndexSummary struct {
	ID string
	Title string
	Kind Kind
	Created int64
	Modified int64
	Favorite bool
	Category string
}

// Metadata is the Vault Index's own bookkeeping.
type Metadata struct {
	Created int64 `json:"created"`
	LastSync *int64 `json:"last_sync,omitempty"`
	EntryCount int `json:"entry_count"`
}

// SecondFactorConfig is stored opaquely (encrypted under the metadata key)
// and never interpreted by this package: TOTP helpers are an external
// collaborator.
type SecondFactorConfig struct {
	Enabled bool `json:"enabled"`
	Secret string `json:"secret,omitempty"`
}

// DuressConfig configures the decoy-unlock path (duress mode). Its
// Salt/KeyHash must be readable without first
// decrypting anything under the real passphrase, so — like the primary
// Salt/KeyHash — they are stored in the clear in the on-disk wire format;
// only DecoyBody is itself an encrypted blob, sealed under the decoy's own
// derived index key.
type DuressConfig struct {
	Salt string `json:"salt"`
	KeyHash string `json:"key_hash"`
	DecoyBody string `json:"decoy_body"`
}

// Stats is the summary returned by Vault.Stats.
type Stats struct {
	EntryCount int
	Created int64
	LastSync *int64
}

// Paths is the summary returned by Vault.GetPaths.
type Paths struct {
	Dir string
	Records string
	Carriers string
	Tokens string
}

// Patch describes a partial update to a credential or note entry. Nil
// fields are left unchanged; non-nil fields (including empty-string ones)
// replace the existing value.
type Patch struct {
	Title *string
	Favorite *bool
	Category *string
	Username *string
	Password *string
	URL *string
	CredNotes *string
	NoteText *string
}

func (k Kind) String() string { return string(k) }

func validateLen(field, value string, max int) error {
	if len(value) > max {
		return fmt.Errorf("vaultindex: %s exceeds %d bytes", field, max)
	}
	return nil
}
