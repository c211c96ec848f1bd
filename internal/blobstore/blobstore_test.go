package blobstore

import (
	"bytes"
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

func TestPutGetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	key := testKey(t)
	data := []byte("attachment contents")

	hash, err := s.Put(data, key)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := s.Get(hash, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("roundtrip mismatch")
	}
	if s.RefCount(hash) != 1 {
		t.Fatalf("expected refcount 1, got %d", s.RefCount(hash))
	}
}

func TestPutDedupesIdenticalContent(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	key := testKey(t)
	data := []byte("same bytes twice")

	h1, err := s.Put(data, key)
	if err != nil {
		t.Fatalf("put 1: %v", err)
	}
	h2, err := s.Put(data, key)
	if err != nil {
		t.Fatalf("put 2: %v", err)
	}
	if h1 != h2 {
		t.Fatalf("expected identical content hash, got %q and %q", h1, h2)
	}
	if s.RefCount(h1) != 2 {
		t.Fatalf("expected refcount 2 after second put, got %d", s.RefCount(h1))
	}
}

func TestReleaseRemovesAtZeroRefs(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	key := testKey(t)
	hash, err := s.Put([]byte("x"), key)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Release(hash); err != nil {
		t.Fatalf("release: %v", err)
	}
	if s.RefCount(hash) != 0 {
		t.Fatalf("expected refcount 0, got %d", s.RefCount(hash))
	}
	if _, err := s.Get(hash, key); err == nil {
		t.Fatalf("expected blob to be gone after last release")
	}
}

func TestReopenPreservesIndex(t *testing.T) {
	dir := t.TempDir()
	s1, err := Open(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	key := testKey(t)
	hash, err := s1.Put([]byte("durable"), key)
	if err != nil {
		t.Fatalf("put: %v", err)
	}

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if s2.RefCount(hash) != 1 {
		t.Fatalf("expected refcount to survive reopen, got %d", s2.RefCount(hash))
	}
	got, err := s2.Get(hash, key)
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if string(got) != "durable" {
		t.Fatalf("unexpected content after reopen: %q", got)
	}
}
