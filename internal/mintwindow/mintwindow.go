package mintwindow

import "time"

// State is the position of an instant relative to a post's mint window
type State string

const (
	// StateNoWindow means the post is not time-boxed
	StateNoWindow   State = "no_window"
	StateNotStarted State = "not_started"
	StateActive     State = "active"
	StateEnded      State = "ended"
)

// Result is the outcome of evaluating a mint window
type Result struct {
	State State
	// StartsAt is set when State is StateNotStarted
	StartsAt *time.Time
	// EndedAt is set when State is StateEnded
	EndedAt *time.Time
}

// Permits reports whether a new reservation may be created
func (r Result) Permits() bool {
	return r.State == StateNoWindow || r.State == StateActive
}

// Evaluate places now relative to [start, end). Either bound may be absent.
// It must only be called when creating a new reservation; purchases reserved inside the
// window are honored after it closes.
func Evaluate(now time.Time, start, end *time.Time) Result {
	if start == nil && end == nil {
		return Result{State: StateNoWindow}
	}

	if start != nil && now.Before(*start) {
		s := *start
		return Result{State: StateNotStarted, StartsAt: &s}
	}

	if end != nil && !now.Before(*end) {
		e := *end
		return Result{State: StateEnded, EndedAt: &e}
	}

	return Result{State: StateActive}
}
