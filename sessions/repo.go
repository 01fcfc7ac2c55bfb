package sessions

// Repo persists the single session of the client.
type Repo interface {
	// Load returns the stored session, or ErrSessionNotFound when no token is stored
	Load() (*Session, error)

	// Save stores the session token and user
	Save(session *Session) error

	// Clear removes the stored session
	Clear() error
}
