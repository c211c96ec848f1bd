package cloud

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/slasshy/vault/internal/vaulterrors"
)

func TestMemoryUploadDownloadRoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	handle, err := m.Upload(ctx, []byte("carrier-bytes"), "frag-0.png", "image/png")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	got, err := m.Download(ctx, handle)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if !bytes.Equal(got, []byte("carrier-bytes")) {
		t.Fatalf("download mismatch")
	}
}

func TestMemoryDeleteRemovesHandle(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	handle, err := m.Upload(ctx, []byte("x"), "n", "image/png")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if err := m.Delete(ctx, handle); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := m.Download(ctx, handle); !errors.Is(err, vaulterrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryDownloadMissingHandleFails(t *testing.T) {
	m := NewMemory()
	if _, err := m.Download(context.Background(), Handle("nope")); !errors.Is(err, vaulterrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestThrottledStoreDelegatesToInner(t *testing.T) {
	inner := NewMemory()
	throttled := NewThrottledStore(inner, NewLimiter(1<<20), NewLimiter(1<<20))
	ctx := context.Background()

	handle, err := throttled.Upload(ctx, []byte("data"), "n", "image/png")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	got, err := throttled.Download(ctx, handle)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if !bytes.Equal(got, []byte("data")) {
		t.Fatalf("mismatch")
	}
}

func TestNilLimiterNeverBlocks(t *testing.T) {
	var l *Limiter
	if err := l.WaitN(context.Background(), 1<<30); err != nil {
		t.Fatalf("expected nil limiter to never block: %v", err)
	}
	if !l.AllowN(1 << 30) {
		t.Fatalf("expected nil limiter to always allow")
	}
}

func TestNewLimiterNonPositiveDisablesThrottling(t *testing.T) {
	if l := NewLimiter(0); l != nil {
		t.Fatalf("expected nil limiter for non-positive rate")
	}
}
