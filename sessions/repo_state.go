package sessions

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jrsteele09/devinsights/state"
)

var ErrSessionNotFound = errors.New("session not found")

var _ Repo = (*StateRepo)(nil)

// StateRepo keeps the session in a state.Store: the token under auth_token and
// the user as JSON under auth_user.
type StateRepo struct {
	store state.Store
}

func NewStateRepo(store state.Store) *StateRepo {
	return &StateRepo{store: store}
}

func (r *StateRepo) Load() (*Session, error) {
	token, ok := r.store.Get(state.KeyAuthToken)
	if !ok || token == "" {
		return nil, ErrSessionNotFound
	}

	s := &Session{Token: token}
	if raw, ok := r.store.Get(state.KeyAuthUser); ok && raw != "" {
		var u User
		if err := json.Unmarshal([]byte(raw), &u); err == nil {
			s.User = &u
		}
	}
	return s, nil
}

func (r *StateRepo) Save(session *Session) error {
	if session == nil || session.Token == "" {
		return errors.New("[StateRepo.Save] session token is required")
	}
	if err := r.store.Set(state.KeyAuthToken, session.Token); err != nil {
		return fmt.Errorf("[StateRepo.Save] storing token: %w", err)
	}
	if session.User == nil {
		return r.store.Delete(state.KeyAuthUser)
	}
	raw, err := json.Marshal(session.User)
	if err != nil {
		return fmt.Errorf("[StateRepo.Save] encoding user: %w", err)
	}
	if err := r.store.Set(state.KeyAuthUser, string(raw)); err != nil {
		return fmt.Errorf("[StateRepo.Save] storing user: %w", err)
	}
	return nil
}

func (r *StateRepo) Clear() error {
	return r.store.Delete(state.KeyAuthToken, state.KeyAuthUser)
}
