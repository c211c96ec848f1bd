// Package cloud defines the untrusted cloud-storage collaborator contract
// (upload, download, delete, list) and a bandwidth limiter for it. The
// core only ever hands the collaborator PNGs whose payload it has already
// encrypted and embedded; no plaintext, key material, or even the vault's entry
// count is assumed safe from an untrusted store, which is why this
// package ships no real network client — just the interface and a fake
// for tests and local-only operation.
package cloud

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Handle is an opaque reference to a previously uploaded blob. Its
// internal structure belongs entirely to the collaborator implementation.
type Handle string

// Store is the collaborator contract: upload, download, delete, and list,
// all keyed by opaque handles.
type Store interface {
	Upload(ctx context.Context, data []byte, name, mime string) (Handle, error)
	Download(ctx context.Context, handle Handle) ([]byte, error)
	Delete(ctx context.Context, handle Handle) error
	List(ctx context.Context, folder string) ([]Handle, error)
}

// Limiter throttles upload/download calls against a Store. Modeled on a
// limiter.go wrapper: a thin wrapper over golang.org/x/time/rate that is
// safe to call on a nil receiver (an unconfigured limiter imposes no
// throttling), retargeted from file-sync chunk transfer to stego-carrier
// chunk transfer.
type Limiter struct {
	rl *rate.Limiter
}

// NewLimiter builds a Limiter permitting bytesPerSecond sustained
// throughput with a burst of the same size. A non-positive bytesPerSecond
// disables throttling (WaitN becomes a no-op).
func NewLimiter(bytesPerSecond int) *Limiter {
	if bytesPerSecond <= 0 {
		return nil
	}
	return &Limiter{rl: rate.NewLimiter(rate.Limit(bytesPerSecond), bytesPerSecond)}
}

// WaitN blocks until n bytes' worth of bandwidth budget is available, or
// ctx is cancelled. A request larger than the burst (bytesPerSecond)
// fails immediately with an error. A nil Limiter never blocks.
func (l *Limiter) WaitN(ctx context.Context, n int) error {
	if l == nil || l.rl == nil {
		return nil
	}
	return l.rl.WaitN(ctx, n)
}

// AllowN reports whether n bytes may proceed immediately without
// consuming rate-limit budget in the blocking sense. A nil Limiter always
// allows.
func (l *Limiter) AllowN(n int) bool {
	if l == nil || l.rl == nil {
		return true
	}
	return l.rl.AllowN(time.Now(), n)
}

// ThrottledStore wraps a Store with upload/download bandwidth throttling.
type ThrottledStore struct {
	inner Store
	mu sync.Mutex
	up *Limiter
	down *Limiter
}

// NewThrottledStore wraps inner with independent upload/download limiters.
// Either limiter may be nil to leave that direction unthrottled.
func NewThrottledStore(inner Store, up, down *Limiter) *ThrottledStore {
	return &ThrottledStore{inner: inner, up: up, down: down}
}

func (s *ThrottledStore) Upload(ctx context.Context, data []byte, name, mime string) (Handle, error) {
	if err := s.up.WaitN(ctx, len(data)); err != nil {
		return "", fmt.Errorf("cloud: upload throttle: %w", err)
	}
	return s.inner.Upload(ctx, data, name, mime)
}

func (s *ThrottledStore) Download(ctx context.Context, handle Handle) ([]byte, error) {
	data, err := s.inner.Download(ctx, handle)
	if err != nil {
		return nil, err
	}
	if err := s.down.WaitN(ctx, len(data)); err != nil {
		return nil, fmt.Errorf("cloud: download throttle: %w", err)
	}
	return data, nil
}

func (s *ThrottledStore) Delete(ctx context.Context, handle Handle) error {
	return s.inner.Delete(ctx, handle)
}

func (s *ThrottledStore) List(ctx context.Context, folder string) ([]Handle, error) {
	return s.inner.List(ctx, folder)
}
