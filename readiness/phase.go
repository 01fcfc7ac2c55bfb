package readiness

import "fmt"

// Phase is a step of a readiness job.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseChecking
	PhaseRequesting
	PhasePolling
	PhaseSucceeded
	PhaseFailed
	PhaseCancelled
)

var phaseNames = map[Phase]string{
	PhaseIdle:       "idle",
	PhaseChecking:   "checking",
	PhaseRequesting: "requesting",
	PhasePolling:    "polling",
	PhaseSucceeded:  "succeeded",
	PhaseFailed:     "failed",
	PhaseCancelled:  "cancelled",
}

// transitions lists the phases reachable from each non-terminal phase.
var transitions = map[Phase][]Phase{
	PhaseIdle:       {PhaseChecking, PhaseCancelled},
	PhaseChecking:   {PhaseRequesting, PhaseSucceeded, PhaseCancelled},
	PhaseRequesting: {PhasePolling, PhaseCancelled},
	PhasePolling:    {PhaseSucceeded, PhaseFailed, PhaseCancelled},
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Terminal reports whether no further transition is possible.
func (p Phase) Terminal() bool {
	return p == PhaseSucceeded || p == PhaseFailed || p == PhaseCancelled
}

// CanTransition reports whether p may move to next.
func (p Phase) CanTransition(next Phase) bool {
	for _, allowed := range transitions[p] {
		if allowed == next {
			return true
		}
	}
	return false
}
