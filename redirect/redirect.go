// Package redirect decides where the user lands once a readiness job ends.
package redirect

import (
	"net/url"
	"strings"
	"sync"

	"github.com/jrsteele09/devinsights/state"
)

const (
	// FallbackPath is used after a successful job when nothing was requested.
	FallbackPath = "/reports/traceability"
	// ManageRepositoriesPath is where failed and cancelled jobs send the user.
	ManageRepositoriesPath = "/settings/repositories"

	processingPrefix = "/process-repository/"
)

// Resolve returns the destination for a finished job.
func Resolve(success bool, requested string) string {
	if !success {
		return ManageRepositoriesPath
	}
	if isUnset(requested) {
		return FallbackPath
	}
	return requested
}

// ProcessingPath is the location of the processing screen for fullName.
func ProcessingPath(fullName string) string {
	return processingPrefix + url.PathEscape(fullName)
}

// isUnset treats the stringified JavaScript nulls some stored values carry
// as absent.
func isUnset(path string) bool {
	switch strings.TrimSpace(path) {
	case "", "null", "undefined":
		return true
	}
	return false
}

// Tracker remembers the path the user asked for while a repository is
// being processed.
type Tracker struct {
	store state.Store
	lock  sync.Mutex
}

func NewTracker(store state.Store) *Tracker {
	return &Tracker{store: store}
}

// Save records path. Unset values clear any previous entry.
func (t *Tracker) Save(path string) error {
	t.lock.Lock()
	defer t.lock.Unlock()

	if isUnset(path) {
		return t.store.Delete(state.KeyRequestedPath)
	}
	return t.store.Set(state.KeyRequestedPath, path)
}

// Consume returns the saved path and removes it. Only the first caller
// after a Save sees the value.
func (t *Tracker) Consume() (string, error) {
	t.lock.Lock()
	defer t.lock.Unlock()

	path, ok := t.store.Get(state.KeyRequestedPath)
	if !ok {
		return "", nil
	}
	if err := t.store.Delete(state.KeyRequestedPath); err != nil {
		return "", err
	}
	if isUnset(path) {
		return "", nil
	}
	return path, nil
}
