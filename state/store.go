// Package state persists small pieces of client state between runs, the way
// a browser keeps them in local storage.
package state

// Keys written by the client.
const (
	KeyAuthToken            = "auth_token"
	KeyAuthUser             = "auth_user"
	KeySelectedRepo         = "selected_repo"
	KeySelectedRepoFullName = "selected_repo_full_name"
	KeyRequestedPath        = "requested_path"
)

// Store is a durable string key/value store.
type Store interface {
	// Get returns the value for key and whether it was present
	Get(key string) (string, bool)

	// Set stores value under key
	Set(key, value string) error

	// Delete removes the given keys; missing keys are ignored
	Delete(keys ...string) error
}
