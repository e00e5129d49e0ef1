//go:build !linux

package speech

import (
	"bytes"
	"encoding/binary"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"voco/log"
)

// OtoPlayer plays clips through the platform mixer on macOS and Windows.
type OtoPlayer struct {
	mu      sync.Mutex
	ctx     *oto.Context
	ctxRate int
	current *oto.Player
}

func NewPlayer() *OtoPlayer { return &OtoPlayer{} }

func (p *OtoPlayer) context(rate int) *oto.Context {
	// The oto context is bound to one sample rate; recreate on change.
	if p.ctx != nil && p.ctxRate == rate {
		return p.ctx
	}
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   rate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   50 * time.Millisecond,
	})
	if err != nil {
		log.Errorf("oto init error: %v", err)
		return nil
	}
	<-ready
	p.ctx = ctx
	p.ctxRate = rate
	return ctx
}

func (p *OtoPlayer) Play(clip Clip, done func()) {
	p.Stop()

	if clip.Empty() {
		if done != nil {
			go done()
		}
		return
	}

	p.mu.Lock()
	ctx := p.context(clip.SampleRate)
	if ctx == nil {
		p.mu.Unlock()
		if done != nil {
			go done()
		}
		return
	}

	buf := new(bytes.Buffer)
	for _, s := range clip.Samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		binary.Write(buf, binary.LittleEndian, int16(s*32767))
	}
	player := ctx.NewPlayer(bytes.NewReader(buf.Bytes()))
	p.current = player
	p.mu.Unlock()

	player.Play()
	go func() {
		for player.IsPlaying() {
			time.Sleep(10 * time.Millisecond)
		}
		player.Close()
		p.mu.Lock()
		if p.current == player {
			p.current = nil
		}
		p.mu.Unlock()
		if done != nil {
			done()
		}
	}()
}

func (p *OtoPlayer) Stop() {
	p.mu.Lock()
	if p.current != nil {
		p.current.Pause()
		p.current = nil
	}
	p.mu.Unlock()
}
