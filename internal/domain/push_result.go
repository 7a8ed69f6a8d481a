package domain

// FailedAction records an action the tracker rejected.
type FailedAction struct {
	Err    error
	Action Action
}

// PushResult reports what a push did. Partial failure is normal data:
// callers can fix the failed subtrees and push again.
type PushResult struct {
	Applied     []Action
	Failed      []FailedAction
	Skipped     []Action // Not attempted because an ancestor action failed
	Succeeded   []Path   // Subtrees whose actions all applied
	FailedPaths []Path   // Subtrees with a failed action
}

// OK reports whether every action applied.
func (r *PushResult) OK() bool {
	return len(r.Failed) == 0 && len(r.Skipped) == 0
}

// Blocked reports whether path lies under a failed subtree.
func (r *PushResult) Blocked(path Path) bool {
	if path == nil {
		return false
	}
	for _, failed := range r.FailedPaths {
		if path.HasPrefix(failed) {
			return true
		}
	}
	return false
}
