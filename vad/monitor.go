package vad

import "time"

const (
	// TickInterval is how often workflows sample HasSpeechTick into the
	// monitor.
	TickInterval = 100 * time.Millisecond

	quietWarnEvery   = 8 * time.Second
	quietAutoStopDur = 30 * time.Second
	speechMinRatio   = 0.10
	speechClearRatio = 0.25 // higher threshold to clear warning (hysteresis)
)

type QuietEvent int

const (
	QuietNone      QuietEvent = iota
	QuietWarn                 // no voice detected
	QuietWarnClear            // speech resumed after warning
	QuietRepeat               // repeat warning (every 8s)
	QuietAutoStop             // 30s of near-silence, stop the session
)

// Monitor watches the recent speech ratio and raises quiet warnings with
// hysteresis; with autoStop enabled it also asks for the session to end
// after a long stretch of silence. One Tick per TickInterval.
type Monitor struct {
	warnAt   int
	windowSz int
	autoStop bool

	ticks       int
	window      []bool
	speechCount int
	warned      bool
	lastAlert   int
}

func NewMonitor(autoStop bool) *Monitor {
	warnAt := int(quietWarnEvery / TickInterval)
	windowSz := int(quietAutoStopDur / TickInterval)
	return &Monitor{
		warnAt:   warnAt,
		windowSz: windowSz,
		autoStop: autoStop,
		window:   make([]bool, windowSz),
	}
}

func (m *Monitor) ratio(n int) float64 {
	if m.ticks < n {
		n = m.ticks
	}
	if n == 0 {
		return 1.0
	}
	count := 0
	for i := 0; i < n; i++ {
		if m.window[(m.ticks-1-i+m.windowSz)%m.windowSz] {
			count++
		}
	}
	return float64(count) / float64(n)
}

func (m *Monitor) Tick(hasSpeech bool) QuietEvent {
	idx := m.ticks % m.windowSz
	if m.ticks >= m.windowSz && m.window[idx] {
		m.speechCount--
	}
	m.window[idx] = hasSpeech
	if hasSpeech {
		m.speechCount++
	}
	m.ticks++

	r := m.ratio(m.warnAt)

	// Warn: 8s window below threshold
	if m.ticks >= m.warnAt && r < speechMinRatio && !m.warned {
		m.warned = true
		m.lastAlert = m.ticks
		return QuietWarn
	}
	// Clear: speech ratio above clear threshold
	if m.warned && r >= speechClearRatio {
		m.warned = false
		return QuietWarnClear
	}

	if !m.autoStop {
		return QuietNone
	}

	// Auto-stop: 30s window below threshold (checked before repeat)
	if m.ticks >= m.windowSz && float64(m.speechCount)/float64(m.windowSz) < speechMinRatio {
		return QuietAutoStop
	}

	// Repeat warning every 8s
	if m.warned && m.ticks-m.lastAlert >= m.warnAt {
		m.lastAlert = m.ticks
		return QuietRepeat
	}

	return QuietNone
}

// Reset clears all window state for a new session.
func (m *Monitor) Reset() {
	m.ticks = 0
	m.speechCount = 0
	m.warned = false
	m.lastAlert = 0
	for i := range m.window {
		m.window[i] = false
	}
}
