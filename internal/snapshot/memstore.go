package snapshot

import (
	"context"
	"sync"
	"time"
)

// MemStore is an in-memory Store. It lets merge and server code run without a
// real filesystem; modification times are assigned from Clock.
type MemStore struct {
	mu    sync.Mutex
	files map[string]memFile
	Clock func() time.Time
}

type memFile struct {
	data    []byte
	modTime time.Time
}

// NewMemStore returns an empty MemStore using time.Now for modification times.
func NewMemStore() *MemStore {
	return &MemStore{files: make(map[string]memFile), Clock: time.Now}
}

// Location implements Store.
func (m *MemStore) Location() string {
	return "memory"
}

// List implements Store.
func (m *MemStore) List(ctx context.Context) ([]FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]FileInfo, 0, len(m.files))
	for name, f := range m.files {
		out = append(out, FileInfo{Name: name, ModTime: f.modTime, Size: int64(len(f.data))})
	}
	return out, nil
}

// Read implements Store.
func (m *MemStore) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.files[name]
	if !ok {
		return nil, &StoreError{Op: "read", Name: name, Cause: ErrNotFound}
	}
	return append([]byte(nil), f.data...), nil
}

// Create implements Store.
func (m *MemStore) Create(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.files[name]; exists {
		return &StoreError{Op: "create", Name: name, Cause: ErrExists}
	}
	m.files[name] = memFile{data: append([]byte(nil), data...), modTime: m.Clock()}
	return nil
}

// Put implements Store.
func (m *MemStore) Put(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.files[name] = memFile{data: append([]byte(nil), data...), modTime: m.Clock()}
	return nil
}

// AddFile stores a file with an explicit modification time, replacing any
// existing entry. Intended for seeding fixtures.
func (m *MemStore) AddFile(name string, data []byte, modTime time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[name] = memFile{data: append([]byte(nil), data...), modTime: modTime}
}

// Names returns the stored names, unordered.
func (m *MemStore) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.files))
	for name := range m.files {
		names = append(names, name)
	}
	return names
}
