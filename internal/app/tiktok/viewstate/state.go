package viewstate

import "tikdl.local/internal/app/tiktok"

// Status is one of the four page states.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// State is an immutable snapshot of one visitor's lookup.
//
// Result is set only in StatusSuccess; Err and ErrKind only in StatusError.
// Submission identifies the lookup that produced the state and is empty in
// StatusIdle.
type State struct {
	Status     Status
	URL        string
	Submission string
	Result     *tiktok.LookupResult
	Err        string
	ErrKind    tiktok.ErrorKind
}

// Idle is the initial state.
func Idle() State {
	return State{Status: StatusIdle}
}

// Begin enters loading for url, dropping any previous result or error.
// It is valid from every state.
func (s State) Begin(url, submission string) State {
	return State{Status: StatusLoading, URL: url, Submission: submission}
}

// Succeed settles a loading state. Other states are returned unchanged.
func (s State) Succeed(res tiktok.LookupResult) State {
	if s.Status != StatusLoading {
		return s
	}
	return State{Status: StatusSuccess, URL: s.URL, Submission: s.Submission, Result: &res}
}

// Fail settles a loading state with a user-facing message. Other states are
// returned unchanged.
func (s State) Fail(kind tiktok.ErrorKind, msg string) State {
	if s.Status != StatusLoading {
		return s
	}
	return State{Status: StatusError, URL: s.URL, Submission: s.Submission, Err: msg, ErrKind: kind}
}

// Reset goes back to idle with an empty url, result and error.
func (s State) Reset() State {
	return Idle()
}

// Busy reports whether input should be disabled.
func (s State) Busy() bool {
	return s.Status == StatusLoading
}
