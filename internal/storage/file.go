package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
)

// File keeps every key in a single JSON object document. Each Set rewrites
// the document through a temp file and rename.
type File struct {
	fs   afero.Fs
	path string
	mu   sync.Mutex
}

// NewFile returns a store backed by path on fs. A nil fs means the OS filesystem.
func NewFile(fs afero.Fs, path string) *File {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &File{fs: fs, path: path}
}

// Path returns the backing document path.
func (f *File) Path() string {
	return f.path
}

func (f *File) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.read()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

func (f *File) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.read()
	if err != nil {
		return err
	}
	values[key] = value
	return f.write(values)
}

func (f *File) Close() error { return nil }

func (f *File) read() (map[string]string, error) {
	values := make(map[string]string)

	data, err := afero.ReadFile(f.fs, f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return values, nil
		}
		return nil, fmt.Errorf("reading %s: %w", f.path, err)
	}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", f.path, err)
	}
	return values, nil
}

func (f *File) write(values map[string]string) error {
	if err := f.fs.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}

	tmp := f.path + ".tmp"
	if err := afero.WriteFile(f.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := f.fs.Rename(tmp, f.path); err != nil {
		_ = f.fs.Remove(tmp)
		return fmt.Errorf("replacing %s: %w", f.path, err)
	}
	return nil
}

var _ Store = (*File)(nil)
