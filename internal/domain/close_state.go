package domain

import "strings"

// CloseReason specifies why an issue was closed.
type CloseReason string

const (
	CloseReasonCompleted  CloseReason = "completed"   // Done
	CloseReasonNotPlanned CloseReason = "not_planned" // Won't do
	CloseReasonDuplicate  CloseReason = "duplicate"   // Duplicate of another issue
)

// Remote state values.
const (
	RemoteStateOpen   = "open"
	RemoteStateClosed = "closed"
)

// CloseState is Open (zero value) or Closed with a reason.
type CloseState struct {
	Reason CloseReason // Empty means open
}

// OpenState returns the Open state.
func OpenState() CloseState {
	return CloseState{}
}

// ClosedState returns the Closed state with the given reason.
// An empty reason is treated as completed.
func ClosedState(reason CloseReason) CloseState {
	if reason == "" {
		reason = CloseReasonCompleted
	}
	return CloseState{Reason: reason}
}

// IsOpen reports whether the issue is open.
func (s CloseState) IsOpen() bool {
	return s.Reason == ""
}

// CloseStateFromRemote maps the tracker's (state, state_reason) pair to a CloseState.
// The mapping is total: "closed" with an absent or unknown reason becomes Closed(completed).
// The second result is false when state itself is not recognized; the state is then Open.
func CloseStateFromRemote(state, reason string) (CloseState, bool) {
	switch strings.ToLower(strings.TrimSpace(state)) {
	case RemoteStateOpen:
		return OpenState(), true
	case RemoteStateClosed:
		r, ok := ParseCloseReason(reason)
		if !ok {
			r = CloseReasonCompleted
		}
		return ClosedState(r), true
	default:
		return OpenState(), false
	}
}

// ParseCloseReason parses a remote state_reason value.
func ParseCloseReason(s string) (CloseReason, bool) {
	switch CloseReason(strings.ToLower(strings.TrimSpace(s))) {
	case CloseReasonCompleted:
		return CloseReasonCompleted, true
	case CloseReasonNotPlanned:
		return CloseReasonNotPlanned, true
	case CloseReasonDuplicate:
		return CloseReasonDuplicate, true
	default:
		return "", false
	}
}

// RemoteState returns the tracker's state value.
func (s CloseState) RemoteState() string {
	if s.IsOpen() {
		return RemoteStateOpen
	}
	return RemoteStateClosed
}

// RemoteStateReason returns the tracker's state_reason value, empty when open.
func (s CloseState) RemoteStateReason() string {
	return string(s.Reason)
}

func (s CloseState) String() string {
	if s.IsOpen() {
		return RemoteStateOpen
	}
	return RemoteStateClosed + " (" + string(s.Reason) + ")"
}
