// Package primitives is the thin layer over a CSPRNG, SHA-256, and
// constant-time comparison that every other core component builds on.
// Modeled on the habit of keeping small, single-purpose crypto helper
// files (utilities.go) rather than reaching for a crypto/rand wrapper
// library, so crypto/rand is used directly.
package primitives

import (
	"crypto/rand"
	"fmt"

	"github.com/google/uuid"

	"github.com/slasshy/vault/internal/vaulterrors"
)

// RandomBytes returns n cryptographically random bytes.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("%w: %v", vaulterrors.ErrRngFail, err)
	}
	return b, nil
}

// RandomInt returns a uniform random integer in [min, max], inclusive.
func RandomInt(min, max int) (int, error) {
	if max < min {
		return 0, fmt.Errorf("primitives: invalid range [%d, %d]", min, max)
	}
	span := uint64(max-min) + 1
	n, err := randUint64n(span)
	if err != nil {
		return 0, err
	}
	return min + int(n), nil
}

// randUint64n draws a uniform value in [0, n) using rejection sampling over
// a fixed-width random buffer, avoiding modulo bias.
func randUint64n(n uint64) (uint64, error) {
	if n == 0 {
		return 0, nil
	}
	max := (^uint64(0)) - (^uint64(0))%n
	for {
		buf, err := RandomBytes(8)
		if err != nil {
			return 0, err
		}
		var v uint64
		for _, b := range buf {
			v = v<<8 | uint64(b)
		}
		if v < max {
			return v % n, nil
		}
	}
}

// UUIDv4 returns a freshly generated random UUID, used for entry ids,
// fragment-set ids, and transaction ids throughout the core.
func UUIDv4() string {
	return uuid.NewString()
}
