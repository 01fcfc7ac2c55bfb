package readiness

import (
	"context"

	"github.com/jrsteele09/devinsights/api"
	"github.com/jrsteele09/devinsights/repos"
)

// Status is what the backend knows about an ingested repository.
type Status struct {
	Exists         bool
	IsProcessed    bool
	FileCount      int
	CommitCount    int
	DeveloperCount int
}

// StatusFromDebug derives a Status from the backend's debug counters. A
// repository only counts as processed once it has both files and commits.
func StatusFromDebug(d *api.RepositoryDebug) Status {
	if d == nil {
		return Status{}
	}
	return Status{
		Exists:         d.RepositoryExists,
		IsProcessed:    d.RepositoryExists && d.FileCount > 0 && d.CommitCount > 0,
		FileCount:      d.FileCount,
		CommitCount:    d.CommitCount,
		DeveloperCount: d.DeveloperCount,
	}
}

// CheckStatus asks the backend whether fullName is ready. It never fails:
// an unreachable backend, an unknown repository and a malformed name all
// read as "does not exist".
func (w *Workflow) CheckStatus(ctx context.Context, fullName string) Status {
	owner, name, err := repos.ParseFullName(fullName)
	if err != nil {
		w.logger.Warn().Err(err).Msg("status check skipped")
		w.metrics.ObserveStatusCheck("error")
		return Status{}
	}

	debug, err := w.backend.RepositoryDebug(ctx, owner, name)
	if err != nil {
		w.logger.Warn().Err(err).Str("repo", fullName).Msg("status check failed")
		w.metrics.ObserveStatusCheck("error")
		return Status{}
	}

	st := StatusFromDebug(debug)
	if st.IsProcessed {
		w.metrics.ObserveStatusCheck("processed")
	} else {
		w.metrics.ObserveStatusCheck("pending")
	}
	w.logger.Debug().
		Str("repo", fullName).
		Bool("exists", st.Exists).
		Int("files", st.FileCount).
		Int("commits", st.CommitCount).
		Msg("status checked")
	return st
}
