package readiness

import (
	"context"
	"sync"
	"time"
)

// Outcome is the final state of a job.
type Outcome struct {
	Phase    Phase
	Status   Status
	Err      error
	Attempts int
	// Redirect is where the user should go next.
	Redirect string
}

// Success reports whether the repository ended up processed.
func (o Outcome) Success() bool {
	return o.Phase == PhaseSucceeded
}

// Job is one run of the readiness workflow for a repository. Its phase is
// only changed by the goroutine driving it; the accessors are safe to call
// from anywhere.
type Job struct {
	ID           string
	RepoFullName string
	StartedAt    time.Time

	requestedPath string
	branch        string
	limit         int
	onProgress    func(Progress)
	onComplete    func(success bool, err error)

	lock     sync.RWMutex
	phase    Phase
	attempts int
	lastErr  error
	outcome  Outcome

	cancel   context.CancelFunc
	complete sync.Once
	done     chan struct{}
}

func (j *Job) Phase() Phase {
	j.lock.RLock()
	defer j.lock.RUnlock()
	return j.phase
}

// AttemptsMade is the number of status polls made so far.
func (j *Job) AttemptsMade() int {
	j.lock.RLock()
	defer j.lock.RUnlock()
	return j.attempts
}

// LastError is the error that failed the job, if any.
func (j *Job) LastError() error {
	j.lock.RLock()
	defer j.lock.RUnlock()
	return j.lastErr
}

// Cancel stops the job. No completion callback runs for a cancelled job.
// Cancelling a finished job does nothing.
func (j *Job) Cancel() {
	j.cancel()
}

// Done is closed once the job reaches a terminal phase.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the job finishes or ctx is done.
func (j *Job) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-j.done:
		j.lock.RLock()
		defer j.lock.RUnlock()
		return j.outcome, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

func (j *Job) advance(next Phase) bool {
	j.lock.Lock()
	defer j.lock.Unlock()

	if !j.phase.CanTransition(next) {
		return false
	}
	j.phase = next
	return true
}

func (j *Job) nextAttempt() int {
	j.lock.Lock()
	defer j.lock.Unlock()
	j.attempts++
	return j.attempts
}

func (j *Job) report(percent float64, msg string) {
	if j.onProgress == nil {
		return
	}
	j.onProgress(Progress{
		JobID:    j.ID,
		Repo:     j.RepoFullName,
		Phase:    j.Phase(),
		Percent:  percent,
		Message:  msg,
		Attempts: j.AttemptsMade(),
	})
}
