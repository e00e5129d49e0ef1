//go:build linux

package speech

import (
	"sync"

	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"

	"voco/log"
)

// PulsePlayer streams clips through PulseAudio. One clip plays at a
// time; starting a new one cuts off the previous.
type PulsePlayer struct {
	mu      sync.Mutex
	stopped *bool // shared with the active playback goroutine
}

func NewPlayer() *PulsePlayer { return &PulsePlayer{} }

func (p *PulsePlayer) Play(clip Clip, done func()) {
	p.Stop()

	stopped := new(bool)
	p.mu.Lock()
	p.stopped = stopped
	p.mu.Unlock()

	if clip.Empty() {
		if done != nil {
			go done()
		}
		return
	}
	go p.play(clip, stopped, done)
}

func (p *PulsePlayer) play(clip Clip, stopped *bool, done func()) {
	defer func() {
		if done != nil {
			done()
		}
	}()

	c, err := pulse.NewClient()
	if err != nil {
		log.Errorf("pulse playback error: %v", err)
		return
	}
	defer c.Close()

	pos := 0
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		p.mu.Lock()
		cut := *stopped
		p.mu.Unlock()
		if cut || pos >= len(clip.Samples) {
			return 0, pulse.EndOfData
		}
		n := 0
		for n < len(buf) && pos < len(clip.Samples) {
			buf[n] = quantize(clip.Samples[pos])
			n++
			pos++
		}
		return n, nil
	})

	stream, err := c.NewPlayback(reader,
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(clip.SampleRate),
		pulse.PlaybackLatency(0.1),
		pulse.PlaybackRawOption(func(cp *proto.CreatePlaybackStream) {
			cp.ChannelVolumes = proto.ChannelVolumes{uint32(proto.VolumeNorm)}
		}),
	)
	if err != nil {
		log.Errorf("pulse playback error: %v", err)
		return
	}
	stream.Start()
	stream.Drain()
	stream.Stop()
	stream.Close()
}

func (p *PulsePlayer) Stop() {
	p.mu.Lock()
	if p.stopped != nil {
		*p.stopped = true
		p.stopped = nil
	}
	p.mu.Unlock()
}

func quantize(s float32) int16 {
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	}
	return int16(s * 32767)
}
