package locallog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestAppendWritesJSONLines(t *testing.T) {
	dir := t.TempDir()
	l, err := Open(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if err := l.Append(Event{Timestamp: 1, Kind: "unlock", Message: "ok"}); err != nil {
		t.Fatalf("append 1: %v", err)
	}
	if err := l.Append(Event{Timestamp: 2, Kind: "mutation", Message: "add_credential"}); err != nil {
		t.Fatalf("append 2: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, ".slasshy", "logs", "core.log"))
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	var ev Event
	if err := json.Unmarshal([]byte(lines[1]), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.Kind != "mutation" || ev.Message != "add_credential" {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestErrorfIsNilSafe(t *testing.T) {
	var l *Logger
	l.Errorf("x", nil, nil) // must not panic
}
