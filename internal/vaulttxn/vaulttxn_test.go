package vaulttxn

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteAtomicCreatesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.bin")

	if err := WriteAtomic(path, []byte("v1")); err != nil {
		t.Fatalf("write atomic: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, []byte("v1")) {
		t.Fatalf("unexpected contents: %q", got)
	}
	if _, err := os.Stat(path + BackupSuffix); !os.IsNotExist(err) {
		t.Fatalf("expected no backup after first write")
	}
}

func TestWriteAtomicKeepsOneBackupGeneration(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.bin")

	if err := WriteAtomic(path, []byte("v1")); err != nil {
		t.Fatalf("write v1: %v", err)
	}
	if err := WriteAtomic(path, []byte("v2")); err != nil {
		t.Fatalf("write v2: %v", err)
	}
	if err := WriteAtomic(path, []byte("v3")); err != nil {
		t.Fatalf("write v3: %v", err)
	}

	current, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read current: %v", err)
	}
	if string(current) != "v3" {
		t.Fatalf("expected current v3, got %q", current)
	}

	backup, err := os.ReadFile(path + BackupSuffix)
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if string(backup) != "v2" {
		t.Fatalf("expected backup v2 (one generation kept), got %q", backup)
	}
}

func TestReadWithFallbackUsesBackupWhenPrimaryFailsVerification(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.bin")

	if err := WriteAtomic(path, []byte("good")); err != nil {
		t.Fatalf("write good: %v", err)
	}
	if err := WriteAtomic(path, []byte("corrupt")); err != nil {
		t.Fatalf("write corrupt: %v", err)
	}

	verify := func(b []byte) bool { return string(b) == "good" }
	got, err := ReadWithFallback(path, verify)
	if err != nil {
		t.Fatalf("read with fallback: %v", err)
	}
	if string(got) != "good" {
		t.Fatalf("expected fallback to recover prior generation, got %q", got)
	}
}

func TestTransactionCommitAppliesAllStagedEntries(t *testing.T) {
	dir := t.TempDir()
	indexPath := filepath.Join(dir, "index.bin")
	recordPath := filepath.Join(dir, "record-1")
	staleRecord := filepath.Join(dir, "record-stale")
	if err := os.WriteFile(staleRecord, []byte("old"), 0o600); err != nil {
		t.Fatalf("seed stale record: %v", err)
	}

	tx := Begin()
	tx.StageWrite(recordPath, []byte("record-body"))
	tx.StageDelete(staleRecord)
	tx.StageWrite(indexPath, []byte("index-body"))

	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	if got, err := os.ReadFile(recordPath); err != nil || string(got) != "record-body" {
		t.Fatalf("record body not written correctly: %v %q", err, got)
	}
	if got, err := os.ReadFile(indexPath); err != nil || string(got) != "index-body" {
		t.Fatalf("index not written correctly: %v %q", err, got)
	}
	if _, err := os.Stat(staleRecord); !os.IsNotExist(err) {
		t.Fatalf("expected stale record to be deleted")
	}
}

func TestTransactionCommitTwiceFails(t *testing.T) {
	tx := Begin()
	if err := tx.Commit(); err != nil {
		t.Fatalf("first commit: %v", err)
	}
	if err := tx.Commit(); err == nil {
		t.Fatalf("expected second commit to fail")
	}
}
