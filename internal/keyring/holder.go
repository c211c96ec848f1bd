package keyring

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/slasshy/vault/internal/vaulterrors"
)

// DefaultExpiry is the default auto-lock timeout:
// 5 minutes of inactivity. Zero disables the timer.
const DefaultExpiry = 5 * time.Minute

// Holder owns the three labeled subkeys in memory, resets an inactivity
// timer on every access, and zeroizes on expiry or explicit Lock.
// Modeled on the habit of wrapping stateful singletons (a gc.Manager, a
// deduplication.Manager) in a small struct with Start/Stop lifecycle
// methods; the clock is injected so auto-lock is deterministically
// testable, the same testability argument benbjohnson/clock serves
// elsewhere in this codebase.
type Holder struct {
	mu     sync.Mutex
	clock  clock.Clock
	expiry time.Duration
	keys   *LabeledSubkeys
	timer  *clock.Timer
	locked bool
}

// NewHolder creates a Holder for the given subkeys with the given
// inactivity timeout. A zero timeout disables auto-lock.
func NewHolder(keys *LabeledSubkeys, expiry time.Duration) *Holder {
	return NewHolderWithClock(keys, expiry, clock.New())
}

// NewHolderWithClock is NewHolder with an injectable clock, used by tests
// to simulate the passage of time without real sleeps.
func NewHolderWithClock(keys *LabeledSubkeys, expiry time.Duration, c clock.Clock) *Holder {
	h := &Holder{clock: c, expiry: expiry, keys: keys}
	h.armLocked()
	return h
}

func (h *Holder) armLocked() {
	if h.expiry <= 0 || h.locked {
		return
	}
	if h.timer != nil {
		h.timer.Stop()
	}
	h.timer = h.clock.AfterFunc(h.expiry, func() {
		h.Lock()
	})
}

// GetKey returns a borrowed reference to the subkey named by label and
// resets the inactivity timer. Returns vaulterrors.ErrLocked once the
// holder has zeroized.
func (h *Holder) GetKey(label string) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.locked {
		return nil, vaulterrors.ErrLocked
	}
	h.armLocked()
	switch label {
	case IndexKeyLabel:
		return h.keys.IndexKey, nil
	case EntryKeyLabel:
		return h.keys.EntryKey, nil
	case MetadataKeyLabel:
		return h.keys.MetadataKey, nil
	default:
		return nil, vaulterrors.ErrLocked
	}
}

// Lock zeroizes every held key. Safe to call multiple times.
func (h *Holder) Lock() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.locked {
		return
	}
	if h.timer != nil {
		h.timer.Stop()
	}
	h.keys.Zero()
	h.locked = true
}

// IsLocked reports whether the holder has zeroized its keys.
func (h *Holder) IsLocked() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.locked
}
