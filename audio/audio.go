// Package audio defines the capture primitive consumed by the session
// helper: a Context that enumerates devices and opens Sessions, each of
// which delivers an ordered chunk stream plus an event stream. The real
// backend sits on malgo; tests use the fake in this package.
package audio

import "strings"

var btKeywords = []string{
	"airpods", "beats", "bose", "wh-1000", "wf-1000",
	"sony wh-", "sony wf-",
	"jabra", "galaxy buds", "pixel buds", "powerbeats",
	"jbl ", "sennheiser momentum", "plantronics",
	"tozo", "anker soundcore", "skullcandy",
	"bluetooth", " bt ", " bt)", " bt]",
}

// IsBluetooth guesses from the device name whether a capture device is a
// Bluetooth headset. Capture backends rarely expose the transport directly,
// so a keyword list over known vendors is the best signal available.
func IsBluetooth(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range btKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

type DeviceInfo struct {
	ID        string // opaque platform-specific identifier
	Name      string
	Bluetooth bool
}

// Chunk is one block of captured samples. Ownership passes to the consumer;
// the backend never reuses the slice.
type Chunk struct {
	Samples    []float32
	SampleRate float64
	DeviceID   string
}

type EventKind int

const (
	EventSignal EventKind = iota // real signal observed on the device
	EventNoSignal                // device delivered only silence
	EventDeviceChanged
	EventDeviceGone
	EventInterrupted
	EventFailure
)

type Event struct {
	Kind   EventKind
	Device *DeviceInfo // set for EventDeviceChanged
	Err    error       // set for EventFailure
}

type SourceKind int

const (
	SourceMicrophone SourceKind = iota
	SourceSystemMix
)

// Source names what to capture. An empty DeviceID means the system default
// microphone.
type Source struct {
	Kind     SourceKind
	DeviceID string
}

// Session is one open capture stream. Both channels are closed by Close,
// after any chunks already captured have been flushed; chunks arrive in
// strict capture order.
type Session interface {
	Chunks() <-chan Chunk
	Events() <-chan Event
	Device() DeviceInfo
	Close()
}

type Context interface {
	Devices() ([]DeviceInfo, error)
	Open(src Source) (Session, error)
	Close()
}
