package datastores

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
)

// Files implements [RecordStore] with one JSON file per collection.
//
// Documents are written to a temporary file in the same directory, synced
// and renamed over the previous file, so readers only see complete documents.
type Files struct {
	dir  string
	lock *dirLock
	mu   sync.Mutex // serializes writes from this process
}

var _ RecordStore = (*Files)(nil)

// OpenFiles creates dir if needed and locks it for this process.
func OpenFiles(dir string) (*Files, error) {
	err := os.MkdirAll(dir, 0o700)
	if err != nil {
		return nil, fmt.Errorf("%w: create data directory: %w", ErrUnavailable, err)
	}
	lock, err := lockDir(dir)
	if err != nil {
		return nil, err
	}
	return &Files{dir: dir, lock: lock}, nil
}

func (s *Files) path(collection string) string {
	return filepath.Join(s.dir, collection+".json")
}

func (s *Files) Load(_ context.Context, collection string) ([]byte, error) {
	data, err := os.ReadFile(s.path(collection))
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: read %s: %w", ErrUnavailable, collection, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	data, err = os.ReadFile(s.path(collection))
	switch {
	case err == nil:
		return data, nil
	case errors.Is(err, fs.ErrNotExist):
		err = s.write(Document{Collection: collection, Data: emptyDocument})
		if err != nil {
			return nil, err
		}
		return slices.Clone(emptyDocument), nil
	default:
		return nil, fmt.Errorf("%w: read %s: %w", ErrUnavailable, collection, err)
	}
}

func (s *Files) Save(_ context.Context, docs ...Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(docs...)
}

// write stages every document before renaming any of them.
func (s *Files) write(docs ...Document) error {
	temps := make([]string, 0, len(docs))
	defer func() {
		for _, name := range temps {
			_ = os.Remove(name)
		}
	}()

	for _, d := range docs {
		name, err := s.stage(d)
		if err != nil {
			return fmt.Errorf("%w: write %s: %w", ErrUnavailable, d.Collection, err)
		}
		temps = append(temps, name)
	}

	for i, d := range docs {
		err := os.Rename(temps[i], s.path(d.Collection))
		if err != nil {
			return fmt.Errorf("%w: rename %s: %w", ErrUnavailable, d.Collection, err)
		}
	}
	temps = temps[:0]

	return s.syncDir()
}

func (s *Files) stage(d Document) (string, error) {
	f, err := os.CreateTemp(s.dir, "."+d.Collection+"-*.tmp")
	if err != nil {
		return "", err
	}
	_, err = f.Write(d.Data)
	if err == nil {
		err = f.Sync()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func (s *Files) syncDir() error {
	d, err := os.Open(s.dir)
	if err != nil {
		return fmt.Errorf("%w: open data directory: %w", ErrUnavailable, err)
	}
	defer d.Close()
	if err := d.Sync(); err != nil {
		return fmt.Errorf("%w: sync data directory: %w", ErrUnavailable, err)
	}
	return nil
}

func (s *Files) Ping(context.Context) error {
	_, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

func (s *Files) Close() error { return s.lock.release() }
