// Package readiness makes sure a repository has been ingested by the
// backend before its reports are shown. A job checks the repository's
// status, asks the backend to ingest it when needed and polls until the
// data shows up.
package readiness

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/devinsights/api"
	"github.com/jrsteele09/devinsights/internal/config"
	"github.com/jrsteele09/devinsights/internal/logging"
	"github.com/jrsteele09/devinsights/internal/metrics"
	"github.com/jrsteele09/devinsights/redirect"
	"github.com/jrsteele09/devinsights/repos"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const (
	defaultPollInterval     = 3 * time.Second
	defaultProgressInterval = 500 * time.Millisecond
	defaultBranch           = "main"
	defaultCommitLimit      = 100
)

// Backend is the part of the API client the workflow needs.
type Backend interface {
	RepositoryDebug(ctx context.Context, owner, repo string) (*api.RepositoryDebug, error)
	FetchCommits(ctx context.Context, fullName, branch string, limit int) (*api.CommitsResponse, error)
}

// Options configures a single Run.
type Options struct {
	// OnProgress receives cosmetic progress reports from the job goroutine.
	OnProgress func(Progress)
	// OnComplete runs once when the job succeeds or fails, before Done is
	// closed. It must not wait on the job.
	OnComplete func(success bool, err error)
	// RequestedPath is where to go after success.
	RequestedPath string
	// Branch and Limit override the workflow's ingestion defaults.
	Branch string
	Limit  int
}

type Workflow struct {
	backend          Backend
	pollInterval     time.Duration
	progressInterval time.Duration
	maxPollAttempts  int
	maxPollDuration  time.Duration
	branch           string
	limit            int
	metrics          *metrics.Metrics
	logger           zerolog.Logger
	nowTime          func() time.Time

	inflight singleflight.Group

	lock   sync.Mutex
	active map[string]*Job
}

// WorkflowOption defines a function type to modify the Workflow instance.
type WorkflowOption func(*Workflow)

// WithConfig applies the polling and ingestion settings from cfg.
func WithConfig(cfg config.WorkflowConfig) WorkflowOption {
	return func(w *Workflow) {
		w.pollInterval = cfg.GetPollInterval()
		w.maxPollAttempts = cfg.GetMaxPollAttempts()
		w.maxPollDuration = cfg.GetMaxPollDuration()
		w.branch = cfg.GetBranch()
		w.limit = cfg.GetCommitLimit()
	}
}

func WithPollInterval(d time.Duration) WorkflowOption {
	return func(w *Workflow) {
		w.pollInterval = d
	}
}

// WithProgressInterval sets how often the progress estimate creeps forward
// while polling.
func WithProgressInterval(d time.Duration) WorkflowOption {
	return func(w *Workflow) {
		w.progressInterval = d
	}
}

// WithMaxPollAttempts fails a job after n unsuccessful polls. 0 means no limit.
func WithMaxPollAttempts(n int) WorkflowOption {
	return func(w *Workflow) {
		w.maxPollAttempts = n
	}
}

// WithMaxPollDuration fails a job that has polled for longer than d. 0 means
// no limit.
func WithMaxPollDuration(d time.Duration) WorkflowOption {
	return func(w *Workflow) {
		w.maxPollDuration = d
	}
}

func WithBranch(branch string) WorkflowOption {
	return func(w *Workflow) {
		w.branch = branch
	}
}

func WithCommitLimit(limit int) WorkflowOption {
	return func(w *Workflow) {
		w.limit = limit
	}
}

func WithMetrics(m *metrics.Metrics) WorkflowOption {
	return func(w *Workflow) {
		w.metrics = m
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) WorkflowOption {
	return func(w *Workflow) {
		w.nowTime = nowFunc
	}
}

func NewWorkflow(backend Backend, options ...WorkflowOption) (*Workflow, error) {
	if backend == nil {
		return nil, fmt.Errorf("[NewWorkflow] backend is required")
	}

	w := &Workflow{
		backend:          backend,
		pollInterval:     defaultPollInterval,
		progressInterval: defaultProgressInterval,
		branch:           defaultBranch,
		limit:            defaultCommitLimit,
		logger:           logging.Component("readiness"),
		nowTime:          time.Now,
		active:           make(map[string]*Job),
	}
	for _, opt := range options {
		opt(w)
	}

	if w.pollInterval <= 0 {
		return nil, fmt.Errorf("[NewWorkflow] poll interval must be positive")
	}
	if w.progressInterval <= 0 {
		return nil, fmt.Errorf("[NewWorkflow] progress interval must be positive")
	}
	if w.maxPollAttempts < 0 || w.maxPollDuration < 0 {
		return nil, fmt.Errorf("[NewWorkflow] poll limits must not be negative")
	}
	if w.branch == "" {
		return nil, fmt.Errorf("[NewWorkflow] branch is required")
	}
	if w.limit <= 0 {
		return nil, fmt.Errorf("[NewWorkflow] commit limit must be positive")
	}
	return w, nil
}

// Run starts a readiness job for fullName and returns immediately. If a job
// for the same repository is still running, that job is returned together
// with ErrJobInProgress.
//
// Cancelling ctx cancels the job, as does Job.Cancel.
func (w *Workflow) Run(ctx context.Context, fullName string, opts Options) (*Job, error) {
	if _, _, err := repos.ParseFullName(fullName); err != nil {
		return nil, err
	}

	branch := opts.Branch
	if branch == "" {
		branch = w.branch
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = w.limit
	}

	key := strings.ToLower(fullName)

	w.lock.Lock()
	if existing, ok := w.active[key]; ok {
		w.lock.Unlock()
		return existing, ErrJobInProgress
	}

	jobCtx, cancel := context.WithCancel(ctx)
	job := &Job{
		ID:            uuid.NewString(),
		RepoFullName:  fullName,
		StartedAt:     w.nowTime(),
		requestedPath: opts.RequestedPath,
		branch:        branch,
		limit:         limit,
		onProgress:    opts.OnProgress,
		onComplete:    opts.OnComplete,
		phase:         PhaseIdle,
		cancel:        cancel,
		done:          make(chan struct{}),
	}
	w.active[key] = job
	w.lock.Unlock()

	w.metrics.JobStarted()
	w.logger.Info().Str("job", job.ID).Str("repo", fullName).Msg("readiness job started")

	go w.drive(jobCtx, key, job)
	return job, nil
}

// Active returns the running job for fullName, if there is one.
func (w *Workflow) Active(fullName string) (*Job, bool) {
	w.lock.Lock()
	defer w.lock.Unlock()

	job, ok := w.active[strings.ToLower(fullName)]
	return job, ok
}

func (w *Workflow) drive(ctx context.Context, key string, job *Job) {
	defer job.cancel()

	job.advance(PhaseChecking)
	job.report(0, msgChecking)

	st := w.CheckStatus(ctx, job.RepoFullName)
	if ctx.Err() != nil {
		w.finish(key, job, PhaseCancelled, Status{}, ctx.Err())
		return
	}
	if st.IsProcessed {
		w.finish(key, job, PhaseSucceeded, st, nil)
		return
	}

	job.advance(PhaseRequesting)
	job.report(percentRequesting, msgRequesting)

	ingested := make(chan error, 1)
	go func() {
		_, err := w.requestIngestion(ctx, job.RepoFullName, job.branch, job.limit)
		ingested <- err
	}()

	job.advance(PhasePolling)
	w.poll(ctx, key, job, ingested)
}

// poll waits for the repository to become processed. Status checks never
// fail the job; only the ingestion result, the poll limits and cancellation
// end it early.
func (w *Workflow) poll(ctx context.Context, key string, job *Job, ingested <-chan error) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	creep := time.NewTicker(w.progressInterval)
	defer creep.Stop()

	var deadline <-chan time.Time
	if w.maxPollDuration > 0 {
		timer := time.NewTimer(w.maxPollDuration)
		defer timer.Stop()
		deadline = timer.C
	}

	stop := func() {
		ticker.Stop()
		creep.Stop()
	}

	percent := percentRequesting
	msg := msgRequesting

	for {
		select {
		case <-ctx.Done():
			stop()
			w.finish(key, job, PhaseCancelled, Status{}, ctx.Err())
			return

		case err := <-ingested:
			ingested = nil
			if ctx.Err() != nil {
				stop()
				w.finish(key, job, PhaseCancelled, Status{}, ctx.Err())
				return
			}
			if err != nil {
				stop()
				w.finish(key, job, PhaseFailed, Status{}, err)
				return
			}
			percent = max(percent, percentAccepted)
			msg = msgAccepted
			job.report(percent, msg)

		case <-ticker.C:
			attempt := job.nextAttempt()
			w.metrics.ObservePollTick()

			st := w.CheckStatus(ctx, job.RepoFullName)
			if ctx.Err() != nil {
				stop()
				w.finish(key, job, PhaseCancelled, Status{}, ctx.Err())
				return
			}
			if st.IsProcessed {
				stop()
				w.finish(key, job, PhaseSucceeded, st, nil)
				return
			}
			if w.maxPollAttempts > 0 && attempt >= w.maxPollAttempts {
				stop()
				w.finish(key, job, PhaseFailed, st, fmt.Errorf("%w after %d attempts", ErrPollLimitExceeded, attempt))
				return
			}

		case <-creep.C:
			if percent < percentCeiling {
				percent = min(percent+percentStep, percentCeiling)
				job.report(percent, msg)
			}

		case <-deadline:
			stop()
			w.finish(key, job, PhaseFailed, Status{}, fmt.Errorf("%w after %s", ErrPollLimitExceeded, w.maxPollDuration))
			return
		}
	}
}

// finish moves the job to a terminal phase. The job leaves the active set
// before OnComplete runs so the callback may start a new job for the same
// repository.
func (w *Workflow) finish(key string, job *Job, phase Phase, st Status, err error) {
	if !job.advance(phase) {
		return
	}

	out := Outcome{
		Phase:    phase,
		Status:   st,
		Err:      err,
		Attempts: job.AttemptsMade(),
		Redirect: redirect.Resolve(phase == PhaseSucceeded, job.requestedPath),
	}

	job.lock.Lock()
	job.outcome = out
	job.lastErr = err
	job.lock.Unlock()

	w.lock.Lock()
	if w.active[key] == job {
		delete(w.active, key)
	}
	w.lock.Unlock()

	w.metrics.JobFinished(phase.String(), w.nowTime().Sub(job.StartedAt))

	logEvent := w.logger.Info()
	if phase == PhaseFailed {
		logEvent = w.logger.Error().Err(err)
	}
	logEvent.
		Str("job", job.ID).
		Str("repo", job.RepoFullName).
		Stringer("phase", phase).
		Int("attempts", out.Attempts).
		Msg("readiness job finished")

	if phase == PhaseSucceeded {
		job.report(percentDone, msgDone)
	}
	if phase != PhaseCancelled && job.onComplete != nil {
		job.complete.Do(func() {
			job.onComplete(phase == PhaseSucceeded, err)
		})
	}
	close(job.done)
}
