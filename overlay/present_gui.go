//go:build gui

package overlay

// New returns the desktop panel presenter.
func New() App { return NewFyneApp() }
