//go:build !gui

package overlay

// New returns the terminal presenter. Build with -tags gui for the
// floating desktop panel instead.
func New() App { return NewTUI() }
