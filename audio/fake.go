package audio

import "sync"

// FakeContext hands out scripted sessions for tests. Each Open returns a new
// FakeSession; tests drive it with EmitChunk and EmitEvent.
type FakeContext struct {
	mu       sync.Mutex
	devices  []DeviceInfo
	sessions []*FakeSession
	OpenErr  error
}

func NewFakeContext(devices ...DeviceInfo) *FakeContext {
	return &FakeContext{devices: devices}
}

func (c *FakeContext) Devices() ([]DeviceInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]DeviceInfo(nil), c.devices...), nil
}

func (c *FakeContext) SetDevices(devices []DeviceInfo) {
	c.mu.Lock()
	c.devices = append([]DeviceInfo(nil), devices...)
	c.mu.Unlock()
}

func (c *FakeContext) Open(src Source) (Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.OpenErr != nil {
		return nil, c.OpenErr
	}

	dev := DeviceInfo{Name: "fake default"}
	if src.DeviceID != "" {
		for _, d := range c.devices {
			if d.ID == src.DeviceID {
				dev = d
				break
			}
		}
	} else if len(c.devices) > 0 {
		dev = c.devices[0]
	}

	s := NewFakeSession(dev)
	c.sessions = append(c.sessions, s)
	return s, nil
}

func (c *FakeContext) Close() {}

// LastSession returns the most recently opened session, or nil.
func (c *FakeContext) LastSession() *FakeSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sessions) == 0 {
		return nil
	}
	return c.sessions[len(c.sessions)-1]
}

// OpenCount reports how many sessions have been opened.
func (c *FakeContext) OpenCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}

type FakeSession struct {
	dev    DeviceInfo
	chunks chan Chunk
	events chan Event

	mu     sync.Mutex
	closed bool
}

func NewFakeSession(dev DeviceInfo) *FakeSession {
	return &FakeSession{
		dev:    dev,
		chunks: make(chan Chunk, 1024),
		events: make(chan Event, 1024),
	}
}

func (s *FakeSession) Chunks() <-chan Chunk { return s.chunks }
func (s *FakeSession) Events() <-chan Event { return s.events }
func (s *FakeSession) Device() DeviceInfo   { return s.dev }

// EmitChunk delivers samples at 16kHz, reporting whether the session was
// still open.
func (s *FakeSession) EmitChunk(samples []float32) bool {
	return s.EmitChunkRate(samples, 16000)
}

func (s *FakeSession) EmitChunkRate(samples []float32, rate float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.chunks <- Chunk{Samples: samples, SampleRate: rate, DeviceID: s.dev.ID}
	return true
}

func (s *FakeSession) EmitEvent(ev Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.events <- ev
	return true
}

func (s *FakeSession) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *FakeSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.chunks)
	close(s.events)
}
