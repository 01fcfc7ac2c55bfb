package fakebackend

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/jrsteele09/devinsights/api"
)

// Pending and Processed are canned debug responses.
var (
	Pending   = &api.RepositoryDebug{}
	Processed = &api.RepositoryDebug{RepositoryExists: true, FileCount: 12, CommitCount: 40, DeveloperCount: 3}
)

// FakeBackend scripts the backend endpoints the readiness workflow calls.
type FakeBackend struct {
	lock      sync.Mutex
	statuses  []*api.RepositoryDebug
	statusErr error

	// Release, when non-nil, blocks FetchCommits until it is closed
	Release chan struct{}
	// Started receives one value per FetchCommits call, if non-nil
	Started chan struct{}

	FetchResp *api.CommitsResponse
	FetchErr  error

	statusCalls atomic.Int32
	fetchCalls  atomic.Int32
}

// NewFakeBackend returns a backend whose status responses follow statuses in
// order, repeating the last one. Ingestion succeeds with a single commit.
func NewFakeBackend(statuses ...*api.RepositoryDebug) *FakeBackend {
	if len(statuses) == 0 {
		statuses = []*api.RepositoryDebug{Pending}
	}
	return &FakeBackend{
		statuses:  statuses,
		FetchResp: &api.CommitsResponse{Commits: []json.RawMessage{json.RawMessage(`{"sha":"abc"}`)}},
	}
}

// SetStatusErr makes every status call fail with err.
func (fb *FakeBackend) SetStatusErr(err error) {
	fb.lock.Lock()
	defer fb.lock.Unlock()
	fb.statusErr = err
}

func (fb *FakeBackend) RepositoryDebug(ctx context.Context, owner, repo string) (*api.RepositoryDebug, error) {
	n := int(fb.statusCalls.Add(1))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fb.lock.Lock()
	defer fb.lock.Unlock()

	if fb.statusErr != nil {
		return nil, fb.statusErr
	}
	idx := min(n-1, len(fb.statuses)-1)
	d := *fb.statuses[idx]
	return &d, nil
}

func (fb *FakeBackend) FetchCommits(ctx context.Context, fullName, branch string, limit int) (*api.CommitsResponse, error) {
	fb.fetchCalls.Add(1)
	if fb.Started != nil {
		fb.Started <- struct{}{}
	}
	if fb.Release != nil {
		<-fb.Release
	}
	if fb.FetchErr != nil {
		return nil, fb.FetchErr
	}
	return fb.FetchResp, nil
}

func (fb *FakeBackend) StatusCalls() int {
	return int(fb.statusCalls.Load())
}

func (fb *FakeBackend) FetchCalls() int {
	return int(fb.fetchCalls.Load())
}
