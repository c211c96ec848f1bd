// Package locallog is the local log sink that full error kinds are
// routed to when the user-facing surface only gets a generic message. It
// records the significant lifecycle/mutation events: unlock attempts,
// lock, index mutations, stego embed/extract, cloud transfers.
//
// Modeled on a history.go load-append-rewrite idiom, generalized from a
// single JSON array of sync records to an append-only JSON-lines file —
// rewriting the whole history file on every append is fine for infrequent
// sync records but would make every vault mutation O(n) here, so this
// package appends a line instead of rewriting the file.
package locallog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Event is one structured log line.
type Event struct {
	Timestamp int64 `json:"ts"`
	Kind string `json:"kind"`
	Message string `json:"message"`
	Fields map[string]any `json:"fields,omitempty"`
}

// Logger appends Events to <vault_dir>/.slasshy/logs/core.log.
type Logger struct {
	mu sync.Mutex
	path string
}

// Open ensures the log directory exists and returns a Logger appending to
// it. Callers stamp Event.Timestamp themselves so this package stays
// trivially testable without mocking the clock.
func Open(vaultDir string) (*Logger, error) {
	dir := filepath.Join(vaultDir, ".slasshy", "logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("locallog: create log dir: %w", err)
	}
	return &Logger{path: filepath.Join(dir, "core.log")}, nil
}

// Append writes one Event as a JSON line.
func (l *Logger) Append(e Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("locallog: open: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("locallog: marshal: %w", err)
	}
	data = append(data, '\n')
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("locallog: write: %w", err)
	}
	return nil
}

// Errorf routes a full, untruncated error kind to the log sink under the
// given event kind — the counterpart to vaulterrors.Public, which is what
// gets shown to the untrusted surface instead.
func (l *Logger) Errorf(kind string, err error, fields map[string]any) {
	if l == nil || err == nil {
		return
	}
	_ = l.Append(Event{Kind: kind, Message: err.Error(), Fields: fields})
}
