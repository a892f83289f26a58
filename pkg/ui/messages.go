package ui

// StateChangedMsg is sent after the worker commits a result.
type StateChangedMsg struct{}

// TickMsg is sent periodically to expire status messages and redraw.
type TickMsg struct{}

// clipboardMsg reports the outcome of a copy.
type clipboardMsg struct {
	text string
	err  error
}
