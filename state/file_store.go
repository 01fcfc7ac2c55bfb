package state

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jrsteele09/devinsights/internal/errors"
	"gopkg.in/yaml.v3"
)

var _ Store = (*FileStore)(nil)

// FileStore keeps every key in a single YAML document. Writes replace the
// file atomically so a crash never leaves a half-written state file.
type FileStore struct {
	path   string
	values map[string]string
	lock   sync.RWMutex
}

// NewFileStore opens the state file at path, creating its directory if
// needed. A missing file is an empty store.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("[NewFileStore] creating state dir: %w", err)
	}

	fs := &FileStore{path: path, values: make(map[string]string)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fs, nil
		}
		return nil, fmt.Errorf("[NewFileStore] reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &fs.values); err != nil {
		return nil, errors.Wrapf(errors.ErrStateCorrupt, "[NewFileStore] %s: %v", path, err)
	}
	if fs.values == nil {
		fs.values = make(map[string]string)
	}
	return fs, nil
}

// Path returns the file backing the store.
func (fs *FileStore) Path() string {
	return fs.path
}

func (fs *FileStore) Get(key string) (string, bool) {
	fs.lock.RLock()
	defer fs.lock.RUnlock()

	v, ok := fs.values[key]
	return v, ok
}

func (fs *FileStore) Set(key, value string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	prev, existed := fs.values[key]
	fs.values[key] = value
	if err := fs.flush(); err != nil {
		if existed {
			fs.values[key] = prev
		} else {
			delete(fs.values, key)
		}
		return err
	}
	return nil
}

func (fs *FileStore) Delete(keys ...string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	changed := false
	for _, k := range keys {
		if _, ok := fs.values[k]; ok {
			delete(fs.values, k)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return fs.flush()
}

// flush must be called with the write lock held.
func (fs *FileStore) flush() error {
	data, err := yaml.Marshal(fs.values)
	if err != nil {
		return fmt.Errorf("[FileStore] encoding state: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(fs.path), ".state-*.yaml")
	if err != nil {
		return fmt.Errorf("[FileStore] creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("[FileStore] writing temp file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("[FileStore] chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("[FileStore] closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, fs.path); err != nil {
		return fmt.Errorf("[FileStore] replacing %s: %w", fs.path, err)
	}
	return nil
}
