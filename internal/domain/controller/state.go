package controller

// State is the position of a cycle in the submission flow.
type State int

const (
	Submitting State = iota
	Polling
	FetchingResult
	Completed
	RunFailed
	ResultFailed
	GaveUp
	Superseded
	Canceled
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case Submitting:
		return "submitting"
	case Polling:
		return "polling"
	case FetchingResult:
		return "fetching_result"
	case Completed:
		return "completed"
	case RunFailed:
		return "run_failed"
	case ResultFailed:
		return "result_failed"
	case GaveUp:
		return "gave_up"
	case Superseded:
		return "superseded"
	case Canceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Terminal reports whether the cycle can no longer change.
func (s State) Terminal() bool {
	return s >= Completed
}
