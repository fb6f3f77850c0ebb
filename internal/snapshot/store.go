package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FileInfo describes one entry of a Store.
type FileInfo struct {
	Name    string
	ModTime time.Time
	Size    int64
}

// Store is the storage boundary for snapshot and canonical documents.
// Names are flat file names; stores do not expose directories.
type Store interface {
	// List returns every regular file in the store.
	List(ctx context.Context) ([]FileInfo, error)
	// Read returns the content of a file, or ErrNotFound.
	Read(ctx context.Context, name string) ([]byte, error)
	// Create writes a new file and fails with ErrExists rather than overwrite.
	Create(ctx context.Context, name string, data []byte) error
	// Put creates or replaces an auxiliary file such as the session history.
	Put(ctx context.Context, name string, data []byte) error
	// Location is a human-readable description used in summaries.
	Location() string
}

// DirStore is a Store backed by a single directory.
type DirStore struct {
	dir string
}

// NewDirStore returns a store rooted at dir. The directory is created when missing.
func NewDirStore(dir string) (*DirStore, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &StoreError{Op: "init", Name: dir, Cause: err}
	}
	return &DirStore{dir: dir}, nil
}

// Dir returns the directory backing the store.
func (s *DirStore) Dir() string {
	return s.dir
}

// Location implements Store.
func (s *DirStore) Location() string {
	if abs, err := filepath.Abs(s.dir); err == nil {
		return abs
	}
	return s.dir
}

// Path returns the full path of name inside the store.
func (s *DirStore) Path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name))
}

// List implements Store.
func (s *DirStore) List(ctx context.Context) ([]FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, &StoreError{Op: "list", Name: s.dir, Cause: err}
	}

	files := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		files = append(files, FileInfo{Name: entry.Name(), ModTime: info.ModTime(), Size: info.Size()})
	}
	return files, nil
}

// Read implements Store.
func (s *DirStore) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &StoreError{Op: "read", Name: name, Cause: ErrNotFound}
		}
		return nil, &StoreError{Op: "read", Name: name, Cause: err}
	}
	return data, nil
}

// Create implements Store. The handle is opened with O_EXCL and always closed;
// a failed write or close removes the partial file.
func (s *DirStore) Create(ctx context.Context, name string, data []byte) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := s.Path(name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return &StoreError{Op: "create", Name: name, Cause: ErrExists}
		}
		return &StoreError{Op: "create", Name: name, Cause: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &StoreError{Op: "close", Name: name, Cause: cerr}
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	if _, err := f.Write(data); err != nil {
		return &StoreError{Op: "write", Name: name, Cause: err}
	}
	if err := f.Sync(); err != nil {
		return &StoreError{Op: "sync", Name: name, Cause: err}
	}
	return nil
}

// Put implements Store by writing a temporary file and renaming it into place.
func (s *DirStore) Put(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, "."+filepath.Base(name)+".*")
	if err != nil {
		return &StoreError{Op: "put", Name: name, Cause: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return &StoreError{Op: "put", Name: name, Cause: err}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return &StoreError{Op: "put", Name: name, Cause: err}
	}
	if err := os.Rename(tmpName, s.Path(name)); err != nil {
		_ = os.Remove(tmpName)
		return &StoreError{Op: "put", Name: name, Cause: err}
	}
	return nil
}

// CreateUnique writes data under base+ext, falling back to base_1+ext, base_2+ext...
// when earlier names are taken. It returns the name actually written.
func CreateUnique(ctx context.Context, store Store, base, ext string, data []byte) (string, error) {
	const maxAttempts = 1000
	for i := 0; i < maxAttempts; i++ {
		name := base + ext
		if i > 0 {
			name = fmt.Sprintf("%s_%d%s", base, i, ext)
		}
		err := store.Create(ctx, name, data)
		if err == nil {
			return name, nil
		}
		if !errors.Is(err, ErrExists) {
			return "", err
		}
	}
	return "", &StoreError{Op: "create", Name: base + ext, Cause: fmt.Errorf("no free name after %d attempts", maxAttempts)}
}

// Latest returns the newest file whose name starts with prefix and ends with ext,
// ordered by the embedded timestamp and then by name.
func Latest(ctx context.Context, store Store, prefix, ext string) (string, error) {
	files, err := store.List(ctx)
	if err != nil {
		return "", err
	}
	var matches []FileInfo
	for _, f := range files {
		if strings.HasPrefix(f.Name, prefix) && filepath.Ext(f.Name) == ext {
			matches = append(matches, f)
		}
	}
	if len(matches) == 0 {
		return "", &StoreError{Op: "latest", Name: prefix + "*" + ext, Cause: ErrNotFound}
	}
	sort.Slice(matches, func(i, j int) bool {
		ti, _ := ParseNameTimestamp(matches[i].Name)
		tj, _ := ParseNameTimestamp(matches[j].Name)
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return matches[i].Name < matches[j].Name
	})
	return matches[len(matches)-1].Name, nil
}
