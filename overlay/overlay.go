// Package overlay presents the floating panel that follows the active
// workflow. The arbitrator drives it through the narrow Presenter contract;
// rendering differs per build (bubbletea in the terminal, fyne with the gui
// build tag) but the content model is shared.
package overlay

import "sync"

// Content is the view model for the panel, rebuilt from the active
// workflow's phase on every update.
type Content struct {
	Workflow string
	Phase    string
	Detail   string
	Err      string
	Level    float64
	Spectrum []float64
	// WarmupWaiting is set while a Bluetooth device has not yet produced
	// signal; mutually exclusive with a confirmed signal by construction.
	WarmupWaiting bool
	QuietWarning  bool
}

type Presenter interface {
	Show()
	Hide()
	Update(Content)
}

// App is a Presenter that owns the process's UI event loop. Run blocks
// until the user quits; it must be called from the main goroutine because
// some toolkits require it.
type App interface {
	Presenter
	Run() error
	Quit()
}

// Fake records presenter calls for tests.
type Fake struct {
	mu      sync.Mutex
	visible bool
	last    Content
	updates int
	shows   int
	hides   int
}

func NewFake() *Fake { return &Fake{} }

func (f *Fake) Show() {
	f.mu.Lock()
	f.visible = true
	f.shows++
	f.mu.Unlock()
}

func (f *Fake) Hide() {
	f.mu.Lock()
	f.visible = false
	f.hides++
	f.mu.Unlock()
}

func (f *Fake) Update(c Content) {
	f.mu.Lock()
	f.last = c
	f.updates++
	f.mu.Unlock()
}

func (f *Fake) Visible() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.visible
}

func (f *Fake) Last() Content {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

func (f *Fake) Updates() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updates
}
