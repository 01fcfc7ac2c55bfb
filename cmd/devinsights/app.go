package main

import (
	"context"
	"fmt"

	"github.com/jrsteele09/devinsights/api"
	"github.com/jrsteele09/devinsights/auth"
	"github.com/jrsteele09/devinsights/internal/config"
	"github.com/jrsteele09/devinsights/internal/errors"
	"github.com/jrsteele09/devinsights/internal/metrics"
	"github.com/jrsteele09/devinsights/readiness"
	"github.com/jrsteele09/devinsights/redirect"
	"github.com/jrsteele09/devinsights/repos"
	"github.com/jrsteele09/devinsights/sessions"
	"github.com/jrsteele09/devinsights/state"
)

// app wires the client's services over one state file.
type app struct {
	cfg      config.Config
	store    *state.FileStore
	auth     *auth.Service
	repos    *repos.Service
	workflow *readiness.Workflow
	tracker  *redirect.Tracker
	metrics  *metrics.Metrics
}

func newApp(cfg config.Config) (*app, error) {
	store, err := state.NewFileStore(cfg.GetStateFile())
	if err != nil {
		return nil, err
	}

	timeouts := api.Timeouts{
		Status:   cfg.GetStatusTimeout(),
		Ingest:   cfg.GetIngestTimeout(),
		Auth:     cfg.GetAuthTimeout(),
		Validate: cfg.GetValidateTimeout(),
	}

	// The auth service validates tokens explicitly, so its client carries none.
	authClient := api.New(cfg.GetAPIURL(), api.WithTimeouts(timeouts))
	authService, err := auth.NewService(authClient, sessions.NewStateRepo(store),
		auth.WithLogoutHook(func() error {
			return store.Delete(state.KeySelectedRepo, state.KeySelectedRepoFullName, state.KeyRequestedPath)
		}),
	)
	if err != nil {
		return nil, err
	}

	client := api.New(cfg.GetAPIURL(), api.WithTimeouts(timeouts), api.WithTokenSource(authService))

	repoService, err := repos.NewService(client, authService, store)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	workflow, err := readiness.NewWorkflow(client, readiness.WithConfig(cfg), readiness.WithMetrics(m))
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:      cfg,
		store:    store,
		auth:     authService,
		repos:    repoService,
		workflow: workflow,
		tracker:  redirect.NewTracker(store),
		metrics:  m,
	}, nil
}

// requireSession restores the stored session or explains how to get one.
func (a *app) requireSession(ctx context.Context) (*sessions.Session, error) {
	sess, err := a.auth.Restore(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w (run `devinsights login --code <code>`)", err)
	}
	return sess, nil
}

// repoArg returns the repository named on the command line, falling back to
// the selected one.
func (a *app) repoArg(args []string) (string, error) {
	if len(args) > 0 {
		if _, _, err := repos.ParseFullName(args[0]); err != nil {
			return "", err
		}
		return args[0], nil
	}
	sel, ok := a.repos.Selected()
	if !ok {
		return "", errors.Wrapf(errors.ErrNoSelection, "pass owner/repo or run `devinsights repos select`")
	}
	return sel.RepoFullName, nil
}
