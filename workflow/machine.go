package workflow

import (
	"time"

	"voco/log"
	"voco/overlay"
	"voco/runloop"
	"voco/session"
)

// machine is the phase state shared by every workflow: the current phase,
// a generation counter that invalidates in-flight async work, and the
// dwell timer that dismisses done/error automatically.
//
// The generation counter is the discard mechanism for stale completions:
// async work captures gen when it starts, and its loop-posted completion
// runs only while gen is still current. Cancel and finish bump gen, so a
// completion that lost the race is silently dropped.
type machine struct {
	loop  *runloop.Loop
	mgr   *Manager
	owner Workflow
	name  string

	phase      Phase
	gen        uint64
	dwell      *runloop.Timer
	dwellDelay time.Duration

	// Presentation state folded into Content.
	frame         session.VizFrame
	warmupWaiting bool
	quietWarn     bool
}

func (m *machine) init(loop *runloop.Loop, mgr *Manager, owner Workflow, name string, dwell time.Duration) {
	if dwell <= 0 {
		dwell = DefaultDwell
	}
	m.loop = loop
	m.mgr = mgr
	m.owner = owner
	m.name = name
	m.dwellDelay = dwell
}

func (m *machine) Name() string { return m.name }

func (m *machine) Active() bool { return m.phase.Kind != Idle }

func (m *machine) Phase() Phase { return m.phase }

// bump invalidates all in-flight async work and returns the new
// generation.
func (m *machine) bump() uint64 {
	m.gen++
	return m.gen
}

func (m *machine) current(gen uint64) bool { return gen == m.gen }

// transition moves to the next phase, keeps the manager and panel in
// sync, and arms the dwell timer on terminal phases.
func (m *machine) transition(p Phase) {
	wasIdle := m.phase.Kind == Idle
	if m.dwell != nil {
		m.dwell.Stop()
		m.dwell = nil
	}
	m.phase = p
	log.Phase(m.name, p.Kind.String(), p.Detail)

	if p.Kind == Idle {
		m.frame = session.VizFrame{}
		m.warmupWaiting = false
		m.quietWarn = false
		if !wasIdle {
			m.mgr.deactivate(m.owner)
		}
		return
	}

	if wasIdle {
		m.mgr.activate(m.owner)
	}
	m.mgr.Refresh()

	if p.Kind == Done || p.Kind == Error {
		gen := m.gen
		m.dwell = m.loop.After(m.dwellDelay, func() {
			if m.current(gen) {
				m.owner.Cancel()
			}
		})
	}
}

func (m *machine) fail(err error) {
	m.transition(Phase{Kind: Error, Err: err})
}

// Content builds the panel view model for the current phase.
func (m *machine) Content() overlay.Content {
	c := overlay.Content{
		Workflow:      m.name,
		Phase:         m.phase.Kind.String(),
		Detail:        m.phase.Detail,
		Level:         m.frame.Level,
		Spectrum:      m.frame.Spectrum,
		WarmupWaiting: m.warmupWaiting,
		QuietWarning:  m.quietWarn,
	}
	if m.phase.Err != nil {
		c.Err = m.phase.Err.Error()
	}
	return c
}

// setFrame updates the visualization while listening; frames arriving in
// any other phase are stale and dropped.
func (m *machine) setFrame(f session.VizFrame) {
	if m.phase.Kind != Listening {
		return
	}
	m.frame = f
	m.mgr.Refresh()
}

func (m *machine) setWarmupWaiting(w bool) {
	if m.phase.Kind != Listening {
		return
	}
	m.warmupWaiting = w
	m.mgr.Refresh()
}

func (m *machine) setQuietWarn(w bool) {
	m.quietWarn = w
	m.mgr.Refresh()
}
