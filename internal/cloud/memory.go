package cloud

import (
	"context"
	"fmt"
	"sync"

	"github.com/slasshy/vault/internal/primitives"
	"github.com/slasshy/vault/internal/vaulterrors"
)

// Memory is an in-process Store fake: cloud-storage REST clients are an
// external collaborator the core only talks to through the Store
// interface, so Memory stands in for tests and for a fully local-only
// deployment that never leaves the machine.
type Memory struct {
	mu sync.Mutex
	folders map[string]map[Handle]entry
}

type entry struct {
	data []byte
	name string
	mime string
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{folders: make(map[string]map[Handle]entry)}
}

func (m *Memory) Upload(_ context.Context, data []byte, name, mime string) (Handle, error) {
	id := primitives.UUIDv4()
	handle := Handle(id)

	buf := make([]byte, len(data))
	copy(buf, data)

	m.mu.Lock()
	defer m.mu.Unlock()
	folder, ok := m.folders[""]
	if !ok {
		folder = make(map[Handle]entry)
		m.folders[""] = folder
	}
	folder[handle] = entry{data: buf, name: name, mime: mime}
	return handle, nil
}

func (m *Memory) Download(_ context.Context, handle Handle) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, folder := range m.folders {
		if e, ok := folder[handle]; ok {
			out := make([]byte, len(e.data))
			copy(out, e.data)
			return out, nil
		}
	}
	return nil, fmt.Errorf("cloud: %w: handle %s", vaulterrors.ErrNotFound, handle)
}

func (m *Memory) Delete(_ context.Context, handle Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, folder := range m.folders {
		if _, ok := folder[handle]; ok {
			delete(folder, handle)
			return nil
		}
	}
	return fmt.Errorf("cloud: %w: handle %s", vaulterrors.ErrNotFound, handle)
}

func (m *Memory) List(_ context.Context, folder string) ([]Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.folders[folder]
	if !ok {
		return nil, nil
	}
	out := make([]Handle, 0, len(f))
	for h := range f {
		out = append(out, h)
	}
	return out, nil
}

var _ Store = (*Memory)(nil)
