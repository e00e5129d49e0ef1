package workflow

import (
	"voco/hotkey"
	"voco/log"
	"voco/overlay"
	"voco/runloop"
)

const escapeID = "workflow-escape"

// Manager arbitrates the workflows: at most one is ever active, a chord
// for a different workflow preempts the current one synchronously, and
// the shared escape chord is registered exactly while something is
// active.
type Manager struct {
	loop   *runloop.Loop
	panel  overlay.Presenter
	keys   *hotkey.Registry
	escape hotkey.Binding

	active Workflow
}

func NewManager(loop *runloop.Loop, panel overlay.Presenter, keys *hotkey.Registry) *Manager {
	return &Manager{
		loop:   loop,
		panel:  panel,
		keys:   keys,
		escape: hotkey.Binding{Key: hotkey.KeyEscape},
	}
}

// Bind registers w's chord. The handler runs on the loop.
func (m *Manager) Bind(w Workflow, b hotkey.Binding) bool {
	ok := m.keys.Register(w.Name(), b, func() { m.press(w) })
	if !ok {
		log.Errorf("could not bind %s hotkey %s", w.Name(), b)
	}
	return ok
}

// Rebind replaces w's chord at runtime.
func (m *Manager) Rebind(w Workflow, b hotkey.Binding) bool {
	return m.Bind(w, b)
}

// press routes a workflow chord: a press for the active workflow is
// forwarded, a press for a different one preempts first. The preempted
// workflow is fully idle before the new one sees its key.
func (m *Manager) press(w Workflow) {
	if m.active != nil && m.active != w {
		m.active.Cancel()
	}
	w.HandleHotkey()
}

// activate is called by a machine leaving idle.
func (m *Manager) activate(w Workflow) {
	if m.active == w {
		return
	}
	if m.active != nil {
		// A workflow went active while another still was; the press
		// path prevents this, so treat it as a bug worth logging.
		log.Warnf("%s activated while %s was active", w.Name(), m.active.Name())
		m.active.Cancel()
	}
	m.active = w
	if !m.keys.Register(escapeID, m.escape, m.onEscape) {
		log.Warn("could not bind escape key")
	}
	m.panel.Show()
}

// deactivate is called by a machine reaching idle.
func (m *Manager) deactivate(w Workflow) {
	if m.active != w {
		return
	}
	m.active = nil
	m.keys.Unregister(escapeID)
	m.panel.Hide()
}

func (m *Manager) onEscape() {
	if m.active != nil {
		m.active.HandleEscape()
	}
}

// Refresh pushes the active workflow's content to the panel.
func (m *Manager) Refresh() {
	if m.active != nil {
		m.panel.Update(m.active.Content())
	}
}

func (m *Manager) Active() Workflow { return m.active }

// CancelActive cancels whatever is running, for shutdown.
func (m *Manager) CancelActive() {
	if m.active != nil {
		m.active.Cancel()
	}
}
