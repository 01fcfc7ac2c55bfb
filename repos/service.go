package repos

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/go-github/v60/github"
	"github.com/jrsteele09/devinsights/internal/errors"
	"github.com/jrsteele09/devinsights/internal/logging"
	"github.com/jrsteele09/devinsights/state"
	"github.com/rs/zerolog"
)

// Lister fetches the user's repositories from the backend.
type Lister interface {
	UserRepositories(ctx context.Context) ([]*github.Repository, error)
}

// Authenticator reports whether a session exists.
type Authenticator interface {
	IsAuthenticated() bool
}

// Service tracks the repository list and the persisted selection.
type Service struct {
	lister Lister
	auth   Authenticator
	store  state.Store
	logger zerolog.Logger

	lock  sync.RWMutex
	repos []Repository
}

func NewService(lister Lister, auth Authenticator, store state.Store) (*Service, error) {
	if lister == nil {
		return nil, fmt.Errorf("[repos.NewService] lister is required")
	}
	if store == nil {
		return nil, fmt.Errorf("[repos.NewService] state store is required")
	}
	return &Service{
		lister: lister,
		auth:   auth,
		store:  store,
		logger: logging.Component("repos"),
	}, nil
}

// Refresh reloads the repository list and reconciles the selection with it:
// a selected repository that disappeared is cleared, a renamed one gets its
// new full name.
func (s *Service) Refresh(ctx context.Context) ([]Repository, error) {
	if s.auth != nil && !s.auth.IsAuthenticated() {
		return nil, errors.ErrNotAuthenticated
	}

	ghRepos, err := s.lister.UserRepositories(ctx)
	if err != nil {
		return nil, fmt.Errorf("[Refresh] fetching repositories: %w", err)
	}

	list := make([]Repository, 0, len(ghRepos))
	for _, r := range ghRepos {
		if r == nil {
			continue
		}
		list = append(list, fromGitHub(r))
	}

	s.lock.Lock()
	s.repos = list
	s.lock.Unlock()

	if err := s.reconcile(list); err != nil {
		return nil, err
	}
	return s.Repositories(), nil
}

func (s *Service) reconcile(list []Repository) error {
	sel, ok := s.Selected()
	if !ok || sel.RepoID == "" {
		return nil
	}
	for _, r := range list {
		if r.ID != sel.RepoID {
			continue
		}
		if r.FullName != sel.RepoFullName {
			s.logger.Info().Str("from", sel.RepoFullName).Str("to", r.FullName).Msg("selected repository renamed")
			return s.store.Set(state.KeySelectedRepoFullName, r.FullName)
		}
		return nil
	}
	s.logger.Info().Str("repo", sel.RepoFullName).Msg("selected repository no longer listed, clearing selection")
	return s.Clear()
}

// Repositories returns the list from the last Refresh.
func (s *Service) Repositories() []Repository {
	s.lock.RLock()
	defer s.lock.RUnlock()

	out := make([]Repository, len(s.repos))
	copy(out, s.repos)
	return out
}

// Select persists the selection.
func (s *Service) Select(repoID, fullName string) error {
	if repoID == "" || fullName == "" {
		return errors.Wrapf(errors.ErrInvalidRepoName, "[Select] repository id and full name are required")
	}
	if _, _, err := ParseFullName(fullName); err != nil {
		return err
	}
	if err := s.store.Set(state.KeySelectedRepo, repoID); err != nil {
		return fmt.Errorf("[Select] storing id: %w", err)
	}
	if err := s.store.Set(state.KeySelectedRepoFullName, fullName); err != nil {
		return fmt.Errorf("[Select] storing full name: %w", err)
	}
	return nil
}

// Clear removes the selection.
func (s *Service) Clear() error {
	return s.store.Delete(state.KeySelectedRepo, state.KeySelectedRepoFullName)
}

// Selected returns the persisted selection, if any.
func (s *Service) Selected() (Selection, bool) {
	id, _ := s.store.Get(state.KeySelectedRepo)
	name, _ := s.store.Get(state.KeySelectedRepoFullName)
	if name == "" {
		return Selection{}, false
	}
	return Selection{RepoID: id, RepoFullName: name}, true
}

func (s *Service) ByID(id string) (Repository, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	for _, r := range s.repos {
		if r.ID == id {
			return r, true
		}
	}
	return Repository{}, false
}

// ByFullName matches case-insensitively, as GitHub does.
func (s *Service) ByFullName(fullName string) (Repository, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	for _, r := range s.repos {
		if strings.EqualFold(r.FullName, fullName) {
			return r, true
		}
	}
	return Repository{}, false
}

// SelectByFullName selects a listed repository. A name that is not listed but
// is well formed is returned without being selected, so it can still be
// processed.
func (s *Service) SelectByFullName(fullName string) (Repository, bool, error) {
	if _, _, err := ParseFullName(fullName); err != nil {
		return Repository{}, false, err
	}
	r, ok := s.ByFullName(fullName)
	if !ok {
		return Repository{FullName: fullName}, false, nil
	}
	if err := s.Select(r.ID, r.FullName); err != nil {
		return Repository{}, false, err
	}
	return r, true, nil
}
