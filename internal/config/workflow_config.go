package config

import "time"

type WorkflowConfig interface {
	GetPollInterval() time.Duration
	GetMaxPollAttempts() int
	GetMaxPollDuration() time.Duration
	GetBranch() string
	GetCommitLimit() int
}

type Workflow struct {
	PollInterval    time.Duration `envconfig:"POLL_INTERVAL" default:"3s"`
	MaxPollAttempts int           `envconfig:"MAX_POLL_ATTEMPTS" default:"0"` // 0 polls until success or cancellation
	MaxPollDuration time.Duration `envconfig:"MAX_POLL_DURATION" default:"0"`
	Branch          string        `envconfig:"BRANCH" default:"main"`
	CommitLimit     int           `envconfig:"COMMIT_LIMIT" default:"100"`
}

var _ WorkflowConfig = Workflow{}

func (w Workflow) GetPollInterval() time.Duration {
	return w.PollInterval
}

func (w Workflow) GetMaxPollAttempts() int {
	return w.MaxPollAttempts
}

func (w Workflow) GetMaxPollDuration() time.Duration {
	return w.MaxPollDuration
}

func (w Workflow) GetBranch() string {
	return w.Branch
}

func (w Workflow) GetCommitLimit() int {
	return w.CommitLimit
}
