package readiness

import "errors"

var (
	// ErrJobInProgress is returned with the active job when Run is called
	// for a repository that already has one.
	ErrJobInProgress = errors.New("readiness job already running for repository")
	// ErrIngestionRejected means the backend answered the ingestion request
	// without any commits.
	ErrIngestionRejected = errors.New("failed to fetch repository data")
	// ErrPollLimitExceeded fails a job whose polling budget ran out.
	ErrPollLimitExceeded = errors.New("repository was not processed within the polling limit")
)
