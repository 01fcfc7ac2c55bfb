package statefakes

import (
	"sync"

	"github.com/jrsteele09/devinsights/state"
)

var _ state.Store = (*FakeStore)(nil)

type FakeStore struct {
	values map[string]string
	lock   sync.RWMutex

	// SetErr, when non-nil, is returned from every Set call
	SetErr error
}

func NewFakeStore() *FakeStore {
	return &FakeStore{values: make(map[string]string)}
}

func (fs *FakeStore) Get(key string) (string, bool) {
	fs.lock.RLock()
	defer fs.lock.RUnlock()

	v, ok := fs.values[key]
	return v, ok
}

func (fs *FakeStore) Set(key, value string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if fs.SetErr != nil {
		return fs.SetErr
	}
	fs.values[key] = value
	return nil
}

func (fs *FakeStore) Delete(keys ...string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	for _, k := range keys {
		delete(fs.values, k)
	}
	return nil
}
