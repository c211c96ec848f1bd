package vaultindex

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/slasshy/vault/internal/compression"
	"github.com/slasshy/vault/internal/envelope"
	"github.com/slasshy/vault/internal/keyring"
	"github.com/slasshy/vault/internal/primitives"
	"github.com/slasshy/vault/internal/vaulterrors"
)

// AddCredential stores a new credential entry.
func (v *Vault) AddCredential(title string, fields CredentialFields) (*Entry, error) {
	if err := ValidateTitle(title); err != nil {
		return nil, err
	}
	if err := ValidateCredential(fields); err != nil {
		return nil, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.requireUnlockedLocked(); err != nil {
		return nil, err
	}

	now := v.now()
	entry := &Entry{
		ID:         primitives.UUIDv4(),
		Kind:       KindCredential,
		Title:      title,
		Created:    now,
		Modified:   now,
		Credential: &fields,
	}
	if err := v.storeNewEntryLocked(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// AddNote stores a new note entry.
func (v *Vault) AddNote(title, content string) (*Entry, error) {
	if err := ValidateTitle(title); err != nil {
		return nil, err
	}
	fields := NoteFields{Content: content}
	if err := ValidateNote(fields); err != nil {
		return nil, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.requireUnlockedLocked(); err != nil {
		return nil, err
	}

	now := v.now()
	entry := &Entry{
		ID:       primitives.UUIDv4(),
		Kind:     KindNote,
		Title:    title,
		Created:  now,
		Modified: now,
		Note:     &fields,
	}
	if err := v.storeNewEntryLocked(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// AddFile reads sourcePath, stores its bytes content-addressed in the
// blob store, and creates a new file entry referencing it.
func (v *Vault) AddFile(title, sourcePath string, notes string) (*Entry, error) {
	if err := ValidateTitle(title); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("vaultindex: read source file: %w", err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.requireUnlockedLocked(); err != nil {
		return nil, err
	}

	entryKey, err := v.keyFor(keyring.EntryKeyLabel)
	if err != nil {
		return nil, err
	}
	contentHash, err := v.blobs.Put(data, entryKey)
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(data)
	mimeType := mime.TypeByExtension(filepath.Ext(sourcePath))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	now := v.now()
	fileFields := &FileFields{
		OriginalName: filepath.Base(sourcePath),
		MimeType:     mimeType,
		Size:         int64(len(data)),
		SHA256:       hex.EncodeToString(sum[:]),
		ContentHash:  contentHash,
		Notes:        notes,
	}
	entry := &Entry{
		ID:       primitives.UUIDv4(),
		Kind:     KindFile,
		Title:    title,
		Created:  now,
		Modified: now,
		File:     fileFields,
	}

	if err := v.storeNewEntryLocked(entry); err != nil {
		_ = v.blobs.Release(contentHash)
		return nil, err
	}
	return entry, nil
}

// storeNewEntryLocked encrypts entry's record body and title, inserts the
// Index Entry, and commits the record write and the index write through
// one staged transaction. Callers must hold v.mu and have already
// validated entry's fields.
func (v *Vault) storeNewEntryLocked(entry *Entry) error {
	entryKey, err := v.keyFor(keyring.EntryKeyLabel)
	if err != nil {
		return err
	}
	metaKey, err := v.keyFor(keyring.MetadataKeyLabel)
	if err != nil {
		return err
	}

	recordPath, compAlgo, recordData, err := v.writeRecordLocked(entry, entryKey)
	if err != nil {
		return err
	}
	encTitle, err := envelope.Encrypt([]byte(entry.Title), metaKey, []byte(entry.ID))
	if err != nil {
		return err
	}

	idxEntry := IndexEntry{
		ID:             entry.ID,
		EncryptedTitle: encTitle,
		Kind:           entry.Kind,
		Created:        entry.Created,
		Modified:       entry.Modified,
		Favorite:       entry.Favorite,
		Category:       entry.Category,
		File:           entry.File,
		RecordPath:     recordPath,
		Compression:    string(compAlgo),
	}
	v.body.Entries[entry.ID] = idxEntry
	v.body.Metadata.EntryCount = len(v.body.Entries)
	if err := v.commitMutationLocked(recordPath, recordData, ""); err != nil {
		delete(v.body.Entries, entry.ID)
		v.body.Metadata.EntryCount = len(v.body.Entries)
		return err
	}
	v.logEvent("mutation", "entry added", map[string]any{"id": entry.ID, "kind": string(entry.Kind)})
	return nil
}

// writeRecordLocked encrypts entry's compressed body under entryKey and
// returns the record's path and encoded bytes without writing them;
// callers stage the write through commitMutationLocked alongside the
// index.bin write it belongs with.
func (v *Vault) writeRecordLocked(entry *Entry, entryKey []byte) (path string, algo compression.Algorithm, data []byte, err error) {
	bodyJSON, err := json.Marshal(entry)
	if err != nil {
		return "", "", nil, fmt.Errorf("vaultindex: marshal entry: %w", err)
	}
	algo = compression.Algorithm(v.settings.Compression)
	compressed, err := compression.CompressData(bodyJSON, algo)
	if err != nil {
		return "", "", nil, err
	}
	payload, err := envelope.Encrypt(compressed, entryKey, []byte(entry.ID))
	if err != nil {
		return "", "", nil, err
	}
	path = filepath.Join(v.recordsDir, entry.ID+".bin")
	return path, algo, []byte(payload), nil
}

func (v *Vault) readRecordLocked(idxEntry IndexEntry) (*Entry, error) {
	entryKey, err := v.keyFor(keyring.EntryKeyLabel)
	if err != nil {
		return nil, err
	}
	payload, err := os.ReadFile(idxEntry.RecordPath)
	if err != nil {
		return nil, fmt.Errorf("%w: read record %s: %v", vaulterrors.ErrCorrupt, idxEntry.ID, err)
	}
	compressed, err := envelope.Decrypt(string(payload), entryKey, []byte(idxEntry.ID))
	if err != nil {
		return nil, err
	}
	bodyJSON, err := compression.DecompressData(compressed, compression.Algorithm(idxEntry.Compression))
	if err != nil {
		return nil, fmt.Errorf("%w: decompress record %s: %v", vaulterrors.ErrCorrupt, idxEntry.ID, err)
	}
	var entry Entry
	if err := json.Unmarshal(bodyJSON, &entry); err != nil {
		return nil, fmt.Errorf("%w: unmarshal record %s: %v", vaulterrors.ErrCorrupt, idxEntry.ID, err)
	}
	// The Index Entry is authoritative for fields ToggleFavorite/Update can
	// mutate without rewriting the record body.
	entry.Favorite = idxEntry.Favorite
	entry.Category = idxEntry.Category
	entry.Modified = idxEntry.Modified
	return &entry, nil
}

// Get decrypts and returns the full entry named by id.
func (v *Vault) Get(id string) (*Entry, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if err := v.requireUnlockedLocked(); err != nil {
		return nil, err
	}
	idxEntry, ok := v.body.Entries[id]
	if !ok {
		return nil, &vaulterrors.NotFound{ID: id}
	}
	return v.readRecordLocked(idxEntry)
}

// GetNote is Get narrowed to kind=note.
func (v *Vault) GetNote(id string) (*Entry, error) {
	entry, err := v.Get(id)
	if err != nil {
		return nil, err
	}
	if entry.Kind != KindNote {
		return nil, &vaulterrors.NotFound{ID: id}
	}
	return entry, nil
}

// GetFileMeta returns a file entry's metadata without touching blob
// storage.
func (v *Vault) GetFileMeta(id string) (*Entry, error) {
	entry, err := v.Get(id)
	if err != nil {
		return nil, err
	}
	if entry.Kind != KindFile {
		return nil, &vaulterrors.NotFound{ID: id}
	}
	return entry, nil
}

// GetFileBytes decrypts and returns a file entry's body bytes.
func (v *Vault) GetFileBytes(id string) ([]byte, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if err := v.requireUnlockedLocked(); err != nil {
		return nil, err
	}
	idxEntry, ok := v.body.Entries[id]
	if !ok || idxEntry.Kind != KindFile || idxEntry.File == nil {
		return nil, &vaulterrors.NotFound{ID: id}
	}
	entryKey, err := v.keyFor(keyring.EntryKeyLabel)
	if err != nil {
		return nil, err
	}
	return v.blobs.Get(idxEntry.File.ContentHash, entryKey)
}

// List returns decrypted titles and metadata for every entry, in
// unspecified order. The decrypted titles never touch disk.
func (v *Vault) List() ([]IndexSummary, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if err := v.requireUnlockedLocked(); err != nil {
		return nil, err
	}
	metaKey, err := v.keyFor(keyring.MetadataKeyLabel)
	if err != nil {
		return nil, err
	}

	out := make([]IndexSummary, 0, len(v.body.Entries))
	for id, idxEntry := range v.body.Entries {
		title, err := envelope.Decrypt(idxEntry.EncryptedTitle, metaKey, []byte(id))
		if err != nil {
			return nil, err
		}
		out = append(out, IndexSummary{
			ID:       id,
			Title:    string(title),
			Kind:     idxEntry.Kind,
			Created:  idxEntry.Created,
			Modified: idxEntry.Modified,
			Favorite: idxEntry.Favorite,
			Category: idxEntry.Category,
		})
	}
	return out, nil
}

// Search performs a linear case-insensitive substring match over
// decrypted titles.
func (v *Vault) Search(query string) ([]IndexSummary, error) {
	all, err := v.List()
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(query)
	out := make([]IndexSummary, 0, len(all))
	for _, s := range all {
		if strings.Contains(strings.ToLower(s.Title), needle) {
			out = append(out, s)
		}
	}
	return out, nil
}

// Update applies patch to a credential or note entry. File entries are
// immutable via this path; replace one by deleting and re-adding it.
func (v *Vault) Update(id string, patch Patch) (*Entry, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.requireUnlockedLocked(); err != nil {
		return nil, err
	}
	idxEntry, ok := v.body.Entries[id]
	if !ok {
		return nil, &vaulterrors.NotFound{ID: id}
	}
	if idxEntry.Kind == KindFile {
		return nil, fmt.Errorf("%w: file entries are immutable; delete and re-add", vaulterrors.ErrConflict)
	}

	entry, err := v.readRecordLocked(idxEntry)
	if err != nil {
		return nil, err
	}

	titleChanged := false
	if patch.Title != nil {
		if err := ValidateTitle(*patch.Title); err != nil {
			return nil, err
		}
		entry.Title = *patch.Title
		titleChanged = true
	}
	if patch.Favorite != nil {
		entry.Favorite = *patch.Favorite
	}
	if patch.Category != nil {
		if err := ValidateCategory(*patch.Category); err != nil {
			return nil, err
		}
		entry.Category = *patch.Category
	}
	if entry.Kind == KindCredential {
		if entry.Credential == nil {
			entry.Credential = &CredentialFields{}
		}
		if patch.Username != nil {
			entry.Credential.Username = *patch.Username
		}
		if patch.Password != nil {
			entry.Credential.Password = *patch.Password
		}
		if patch.URL != nil {
			entry.Credential.URL = *patch.URL
		}
		if patch.CredNotes != nil {
			entry.Credential.Notes = *patch.CredNotes
		}
		if err := ValidateCredential(*entry.Credential); err != nil {
			return nil, err
		}
	}
	if entry.Kind == KindNote && patch.NoteText != nil {
		if entry.Note == nil {
			entry.Note = &NoteFields{}
		}
		entry.Note.Content = *patch.NoteText
		if err := ValidateNote(*entry.Note); err != nil {
			return nil, err
		}
	}

	entry.Modified = v.now()
	if err := ValidateTimestamps(entry.Created, entry.Modified); err != nil {
		return nil, err
	}

	entryKey, err := v.keyFor(keyring.EntryKeyLabel)
	if err != nil {
		return nil, err
	}
	recordPath, algo, recordData, err := v.writeRecordLocked(entry, entryKey)
	if err != nil {
		return nil, err
	}
	idxEntry.Compression = string(algo)
	idxEntry.RecordPath = recordPath

	if titleChanged {
		metaKey, err := v.keyFor(keyring.MetadataKeyLabel)
		if err != nil {
			return nil, err
		}
		encTitle, err := envelope.Encrypt([]byte(entry.Title), metaKey, []byte(id))
		if err != nil {
			return nil, err
		}
		idxEntry.EncryptedTitle = encTitle
	}
	idxEntry.Favorite = entry.Favorite
	idxEntry.Category = entry.Category
	idxEntry.Modified = entry.Modified
	v.body.Entries[id] = idxEntry

	if err := v.commitMutationLocked(recordPath, recordData, ""); err != nil {
		return nil, err
	}
	v.logEvent("mutation", "entry updated", map[string]any{"id": id})
	return entry, nil
}

// ToggleFavorite flips an entry's favorite flag without touching its
// record body.
func (v *Vault) ToggleFavorite(id string) (*Entry, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.requireUnlockedLocked(); err != nil {
		return nil, err
	}
	idxEntry, ok := v.body.Entries[id]
	if !ok {
		return nil, &vaulterrors.NotFound{ID: id}
	}
	idxEntry.Favorite = !idxEntry.Favorite
	idxEntry.Modified = v.now()
	v.body.Entries[id] = idxEntry
	if err := v.persistIndexLocked(); err != nil {
		return nil, err
	}
	v.logEvent("mutation", "favorite toggled", map[string]any{"id": id})
	return v.readRecordLocked(idxEntry)
}

// Delete removes an entry's record body (and blob, if any), drops its
// Index Entry, and commits the record deletion and the index write
// through one staged transaction.
func (v *Vault) Delete(id string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.requireUnlockedLocked(); err != nil {
		return err
	}
	idxEntry, ok := v.body.Entries[id]
	if !ok {
		return &vaulterrors.NotFound{ID: id}
	}

	if idxEntry.Kind == KindFile && idxEntry.File != nil {
		if err := v.blobs.Release(idxEntry.File.ContentHash); err != nil {
			return err
		}
	}
	for _, c := range idxEntry.Carriers {
		if c.Type != CarrierDecoy && c.LocalPath != "" {
			_ = os.Remove(c.LocalPath)
		}
		if c.CloudHandle != "" {
			v.body.TombstonedHandles = append(v.body.TombstonedHandles, c.CloudHandle)
		}
	}

	delete(v.body.Entries, id)
	v.body.Metadata.EntryCount = len(v.body.Entries)
	if err := v.commitMutationLocked("", nil, idxEntry.RecordPath); err != nil {
		return err
	}
	v.logEvent("mutation", "entry deleted", map[string]any{"id": id})
	return nil
}

// Stats returns the Vault Index's own bookkeeping.
func (v *Vault) Stats() (Stats, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if err := v.requireUnlockedLocked(); err != nil {
		return Stats{}, err
	}
	return Stats{
		EntryCount: v.body.Metadata.EntryCount,
		Created:    v.body.Metadata.Created,
		LastSync:   v.body.Metadata.LastSync,
	}, nil
}

// GetPaths returns the vault's on-disk layout.
func (v *Vault) GetPaths() Paths {
	return Paths{Dir: v.dir, Records: v.recordsDir, Carriers: v.carriersDir, Tokens: v.tokensPath}
}
