// Package carriergc cleans up temporary carrier files: PNGs staged in
// carriers/ while a fragment is being embedded or an upload is in flight,
// which must be removed on every exit path, including failure and panic.
package carriergc

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// TempPrefix marks a carrier file as transient: created during an
// embed/upload step, eligible for sweep if left behind by a crash.
const TempPrefix = ".carrier-tmp-"

// Stats summarizes the result of a sweep.
type Stats struct {
	Scanned int
	Removed int
}

// Manager periodically sweeps a carriers/ directory for orphaned
// temporary files older than MaxAge.
type Manager struct {
	dir      string
	interval time.Duration
	maxAge   time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	stats   Stats
}

// NewManager constructs a Manager for the given carriers directory.
func NewManager(dir string, interval, maxAge time.Duration) *Manager {
	return &Manager{dir: dir, interval: interval, maxAge: maxAge}
}

// Start launches the periodic sweep loop in the background. It is a no-op
// if already running.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true

	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				_, _ = m.Sweep()
			}
		}
	}()
}

// Stop halts the sweep loop.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	m.cancel()
	m.running = false
}

// IsRunning reports whether the sweep loop is active.
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// GetStats returns the cumulative scan/removal counters.
func (m *Manager) GetStats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// Sweep removes temp-prefixed carrier files older than maxAge. It is safe
// to call directly (e.g. right after an unclean shutdown, before
// Start'ing the background loop).
func (m *Manager) Sweep() (Stats, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Stats{}, nil
		}
		return Stats{}, fmt.Errorf("carriergc: read dir: %w", err)
	}

	round := Stats{}
	cutoff := time.Now().Add(-m.maxAge)
	for _, entry := range entries {
		round.Scanned++
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), TempPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(m.dir, entry.Name())); err == nil {
			round.Removed++
		}
	}

	m.mu.Lock()
	m.stats.Scanned += round.Scanned
	m.stats.Removed += round.Removed
	m.mu.Unlock()
	return round, nil
}

var (
	globalMu      sync.Mutex
	activeManager *Manager
)

// StartGlobal starts (or replaces) the process-wide carrier GC manager.
func StartGlobal(ctx context.Context, dir string, interval, maxAge time.Duration) *Manager {
	globalMu.Lock()
	defer globalMu.Unlock()
	if activeManager != nil {
		activeManager.Stop()
	}
	activeManager = NewManager(dir, interval, maxAge)
	activeManager.Start(ctx)
	return activeManager
}

// StopGlobal stops the process-wide manager, if any.
func StopGlobal() {
	globalMu.Lock()
	defer globalMu.Unlock()
	if activeManager != nil {
		activeManager.Stop()
		activeManager = nil
	}
}

// GetGlobal returns the process-wide manager, or nil if none is running.
func GetGlobal() *Manager {
	globalMu.Lock()
	defer globalMu.Unlock()
	return activeManager
}

// WithTempCarrier creates a uniquely named temp-prefixed file in dir,
// invokes fn with its path, and guarantees the file is removed afterward
// regardless of whether fn returns an error or panics: scoped acquisition
// with guaranteed release on every exit path, including panic.
func WithTempCarrier(dir string, fn func(path string) error) (err error) {
	f, err := os.CreateTemp(dir, TempPrefix+"*.png")
	if err != nil {
		return fmt.Errorf("carriergc: create temp carrier: %w", err)
	}
	path := f.Name()
	f.Close()

	defer func() {
		os.Remove(path)
		if r := recover(); r != nil {
			panic(r)
		}
	}()

	return fn(path)
}
