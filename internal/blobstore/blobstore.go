// Package blobstore is the content-addressed, reference-counted store for
// File entry bodies, which are kept as encrypted blob(s) outside the
// entry record. Two File entries with identical plaintext content share
// one physical ciphertext blob.
//
// Modeled on a deduplication package: a Manager wraps an on-disk index of
// content hash -> {RefCount, Size} (a DeduplicationIndex load/save/dirty
// idiom), and a ProcessChunk-style dedup-or-store branch. Content hashing
// uses github.com/zeebo/blake3, the same hasher a chunkFile.go
// createHasher offers as an algorithm choice elsewhere — here it is the
// one fixed choice for the internal dedup key, never the SHA-256 file
// checksum, which stays untouched in the File entry metadata.
package blobstore

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/zeebo/blake3"

	"github.com/slasshy/vault/internal/envelope"
	"github.com/slasshy/vault/internal/vaulttxn"
)

// ContentHash returns the hex-encoded BLAKE3 digest of data, the dedup key
// blobs are addressed by.
func ContentHash(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

type refEntry struct {
	RefCount int `json:"ref_count"`
	Size int64 `json:"size"`
}

// Store manages encrypted, reference-counted blobs under dir/blobs/<hash>.
// Its own index (dir/blobstore_index.json) is a plain JSON file, not an
// AEAD envelope: it records only content hashes and reference counts, no
// plaintext or key material, mirroring a dedup index that is likewise
// stored in the clear.
type Store struct {
	dir string
	indexPath string

	mu sync.Mutex
	entries map[string]refEntry
	dirty bool
}

// Open loads (or lazily creates) a Store rooted at dir.
func Open(dir string) (*Store, error) {
	s := &Store{
		dir:       dir,
		indexPath: filepath.Join(dir, "blobstore_index.json"),
		entries:   make(map[string]refEntry),
	}
	data, err := os.ReadFile(s.indexPath)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("blobstore: read index: %w", err)
	}
	if err := json.Unmarshal(data, &s.entries); err != nil {
		return nil, fmt.Errorf("blobstore: parse index: %w", err)
	}
	return s, nil
}

func (s *Store) blobPath(hash string) string {
	return filepath.Join(s.dir, "blobs", hash)
}

// Put encrypts plaintext under key with aad=hash and stores it, keyed by
// its content hash. If the hash is already known, the existing ciphertext
// is reused and only the reference count increments — the dedup path.
// Returns the content hash callers persist in the File entry.
func (s *Store) Put(plaintext, key []byte) (string, error) {
	hash := ContentHash(plaintext)

	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[hash]; ok {
		e.RefCount++
		s.entries[hash] = e
		s.dirty = true
		return hash, s.saveLocked()
	}

	payload, err := envelope.Encrypt(plaintext, key, []byte(hash))
	if err != nil {
		return "", fmt.Errorf("blobstore: encrypt blob: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(s.dir, "blobs"), 0o755); err != nil {
		return "", fmt.Errorf("blobstore: create blobs dir: %w", err)
	}
	if err := vaulttxn.WriteAtomic(s.blobPath(hash), []byte(payload)); err != nil {
		return "", fmt.Errorf("blobstore: write blob: %w", err)
	}

	s.entries[hash] = refEntry{RefCount: 1, Size: int64(len(plaintext))}
	s.dirty = true
	return hash, s.saveLocked()
}

// Get decrypts and returns the plaintext stored under hash.
func (s *Store) Get(hash string, key []byte) ([]byte, error) {
	payload, err := os.ReadFile(s.blobPath(hash))
	if err != nil {
		return nil, fmt.Errorf("blobstore: read blob %s: %w", hash, err)
	}
	return envelope.Decrypt(string(payload), key, []byte(hash))
}

// Release drops one reference to hash, deleting the physical blob once the
// count reaches zero.
func (s *Store) Release(hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[hash]
	if !ok {
		return nil
	}
	e.RefCount--
	if e.RefCount <= 0 {
		delete(s.entries, hash)
		s.dirty = true
		if err := os.Remove(s.blobPath(hash)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("blobstore: remove blob %s: %w", hash, err)
		}
		return s.saveLocked()
	}
	s.entries[hash] = e
	s.dirty = true
	return s.saveLocked()
}

// RefCount reports the current reference count for hash, or 0 if unknown.
func (s *Store) RefCount(hash string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[hash].RefCount
}

func (s *Store) saveLocked() error {
	if !s.dirty {
		return nil
	}
	data, err := json.MarshalIndent(s.entries, "", " ")
	if err != nil {
		return fmt.Errorf("blobstore: marshal index: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("blobstore: create dir: %w", err)
	}
	if err := vaulttxn.WriteAtomic(s.indexPath, data); err != nil {
		return err
	}
	s.dirty = false
	return nil
}
