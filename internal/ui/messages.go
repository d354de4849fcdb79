package ui

// CaptureChangedMsg signals that the capture controller mutated observable
// state and the view must re-render from live snapshots.
type CaptureChangedMsg struct{}

// ImportDoneMsg carries the outcome of a background import.
type ImportDoneMsg struct {
	Added   int
	Skipped int
	Err     error
}

// ClearToastMsg clears the transient toast after a timeout.
type ClearToastMsg struct{}
