package audio

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"sync"

	"github.com/gen2brain/malgo"
)

const (
	captureSampleRate = 16000
	captureChannels   = 1

	// Peak amplitude below this counts as "no signal" for the warmup
	// protocol. Well under speech level but above dither noise.
	signalFloor = 1e-4

	chunkQueueSize = 256
	eventQueueSize = 64
)

type malgoContext struct {
	ctx *malgo.AllocatedContext
}

// NewContext initializes the platform audio backend.
func NewContext() (Context, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("audio context: %w", err)
	}
	return &malgoContext{ctx: ctx}, nil
}

func (m *malgoContext) Devices() ([]DeviceInfo, error) {
	devices, err := m.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("malgo devices: %w", err)
	}
	var result []DeviceInfo
	for _, d := range devices {
		name := d.Name()
		result = append(result, DeviceInfo{
			ID:        hex.EncodeToString(d.ID[:]),
			Name:      name,
			Bluetooth: IsBluetooth(name),
		})
	}
	return result, nil
}

func (m *malgoContext) Open(src Source) (Session, error) {
	if src.Kind != SourceMicrophone {
		return nil, fmt.Errorf("malgo backend captures microphones only")
	}

	info := DeviceInfo{Name: "system default"}
	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = captureChannels
	deviceConfig.SampleRate = captureSampleRate

	if src.DeviceID == "" {
		// Resolve which device the backend will actually open, so a
		// Bluetooth system-default microphone still gets the warmup
		// protocol.
		if d, ok := m.defaultDevice(); ok {
			info = d
		}
	}
	if src.DeviceID != "" {
		devices, err := m.Devices()
		if err != nil {
			return nil, err
		}
		found := false
		for _, d := range devices {
			if d.ID == src.DeviceID {
				info = d
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("capture device %s not found", src.DeviceID)
		}
		idBytes, err := hex.DecodeString(src.DeviceID)
		if err != nil {
			return nil, fmt.Errorf("invalid device ID: %w", err)
		}
		var devID malgo.DeviceID
		copy(devID[:], idBytes)
		deviceConfig.Capture.DeviceID = devID.Pointer()
	}

	s := &malgoSession{
		info:   info,
		chunks: make(chan Chunk, chunkQueueSize),
		events: make(chan Event, eventQueueSize),
	}

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, data []byte, frameCount uint32) {
			s.onFrames(data, frameCount)
		},
		Stop: func() {
			s.emitEvent(Event{Kind: EventInterrupted})
		},
	}

	dev, err := malgo.InitDevice(m.ctx.Context, deviceConfig, callbacks)
	if err != nil {
		return nil, fmt.Errorf("capture device init: %w", err)
	}
	s.device = dev

	if err := dev.Start(); err != nil {
		dev.Uninit()
		return nil, fmt.Errorf("capture start: %w", err)
	}
	return s, nil
}

// defaultDevice finds the capture device malgo marks as the system
// default.
func (m *malgoContext) defaultDevice() (DeviceInfo, bool) {
	devices, err := m.ctx.Devices(malgo.Capture)
	if err != nil {
		return DeviceInfo{}, false
	}
	for _, d := range devices {
		if d.IsDefault == 0 {
			continue
		}
		name := d.Name()
		return DeviceInfo{
			ID:        hex.EncodeToString(d.ID[:]),
			Name:      name,
			Bluetooth: IsBluetooth(name),
		}, true
	}
	return DeviceInfo{}, false
}

func (m *malgoContext) Close() {
	m.ctx.Uninit()
	m.ctx.Free()
}

type malgoSession struct {
	info   DeviceInfo
	device *malgo.Device
	chunks chan Chunk
	events chan Event

	mu       sync.Mutex
	closed   bool
	overflow bool
}

func (s *malgoSession) Chunks() <-chan Chunk { return s.chunks }
func (s *malgoSession) Events() <-chan Event { return s.events }
func (s *malgoSession) Device() DeviceInfo   { return s.info }

func (s *malgoSession) onFrames(data []byte, frameCount uint32) {
	samples := make([]float32, frameCount)
	peak := 0.0
	for i := 0; i < int(frameCount) && i*4+3 < len(data); i++ {
		bits := binary.LittleEndian.Uint32(data[i*4:])
		v := math.Float32frombits(bits)
		samples[i] = v
		if a := math.Abs(float64(v)); a > peak {
			peak = a
		}
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	select {
	case s.chunks <- Chunk{Samples: samples, SampleRate: captureSampleRate, DeviceID: s.info.ID}:
	default:
		// The consumer stalled long enough to fill the queue. Dropping
		// would break sample accounting, so surface it as a failure.
		if !s.overflow {
			s.overflow = true
			s.emitEventLocked(Event{Kind: EventFailure, Err: fmt.Errorf("capture queue overflow")})
		}
	}
	kind := EventNoSignal
	if peak > signalFloor {
		kind = EventSignal
	}
	s.emitEventLocked(Event{Kind: kind})
	s.mu.Unlock()
}

func (s *malgoSession) emitEvent(ev Event) {
	s.mu.Lock()
	if !s.closed {
		s.emitEventLocked(ev)
	}
	s.mu.Unlock()
}

// emitEventLocked drops events when the queue is full; the event stream
// carries state observations, not ordered data.
func (s *malgoSession) emitEventLocked(ev Event) {
	select {
	case s.events <- ev:
	default:
	}
}

func (s *malgoSession) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	// Stop the device first so no callback races the channel close.
	s.device.Stop()
	s.device.Uninit()

	s.mu.Lock()
	close(s.chunks)
	close(s.events)
	s.mu.Unlock()
}
