package readiness

import (
	"context"
	"fmt"

	"github.com/jrsteele09/devinsights/api"
	"github.com/jrsteele09/devinsights/repos"
)

// RequestIngestion asks the backend to ingest fullName using the workflow's
// branch and commit limit.
func (w *Workflow) RequestIngestion(ctx context.Context, fullName string) (*api.CommitsResponse, error) {
	return w.requestIngestion(ctx, fullName, w.branch, w.limit)
}

// requestIngestion coalesces identical requests: while one is in flight,
// later callers with the same repository, branch and limit wait for it and
// get its result.
//
// The backend call runs detached from the caller's cancellation so a caller
// that gives up does not abort the ingestion for the others; it only stops
// waiting.
func (w *Workflow) requestIngestion(ctx context.Context, fullName, branch string, limit int) (*api.CommitsResponse, error) {
	if _, _, err := repos.ParseFullName(fullName); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("commits_%s_%s_%d", fullName, branch, limit)
	detached := context.WithoutCancel(ctx)

	ch := w.inflight.DoChan(key, func() (any, error) {
		w.logger.Info().Str("repo", fullName).Str("branch", branch).Int("limit", limit).Msg("requesting ingestion")

		resp, err := w.backend.FetchCommits(detached, fullName, branch, limit)
		if err != nil {
			w.metrics.ObserveIngestion("error")
			return nil, fmt.Errorf("[RequestIngestion] %s: %w", fullName, err)
		}
		if resp == nil || len(resp.Commits) == 0 {
			w.metrics.ObserveIngestion("rejected")
			return nil, fmt.Errorf("[RequestIngestion] %s: %w", fullName, ErrIngestionRejected)
		}
		w.metrics.ObserveIngestion("accepted")
		return resp, nil
	})

	select {
	case res := <-ch:
		if res.Shared {
			w.metrics.ObserveCoalesced()
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*api.CommitsResponse), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
