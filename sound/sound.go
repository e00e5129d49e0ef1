// Package sound plays short audible cues for workflow transitions so the
// user gets feedback without looking at the panel.
package sound

import (
	"math"

	"voco/speech"
)

type Kind int

const (
	Start Kind = iota
	End
	Error
)

const cueRate = 44100

// Cue parameters. The error cue is a low double-beep; start and end are
// single ticks at different pitches.
const (
	startFreq   = 1200
	startVolume = 0.5
	startDecay  = 60

	endFreq   = 900
	endVolume = 0.5
	endDecay  = 40

	errorFreq   = 350
	errorVolume = 0.6
	errorDecay  = 30
)

// Cues owns its own player so a cue never cuts off spoken replies.
type Cues struct {
	player   speech.Player
	disabled bool
	clips    map[Kind]speech.Clip
}

func New(player speech.Player) *Cues {
	return &Cues{
		player: player,
		clips: map[Kind]speech.Clip{
			Start: tick(startFreq, 0.2, startVolume, startDecay),
			End:   tick(endFreq, 0.2, endVolume, endDecay),
			Error: doubleBeep(errorFreq, 0.08, 0.05, errorVolume, errorDecay),
		},
	}
}

func (c *Cues) Disable() { c.disabled = true }

func (c *Cues) Play(kind Kind) {
	if c.disabled {
		return
	}
	clip, ok := c.clips[kind]
	if !ok {
		return
	}
	c.player.Play(clip, nil)
}

func tick(freq, duration, volume, decay float64) speech.Clip {
	n := int(cueRate * duration)
	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		t := float64(i) / cueRate
		envelope := math.Exp(-t * decay)
		samples[i] = float32(math.Sin(2*math.Pi*freq*t) * volume * envelope)
	}
	return speech.Clip{Samples: samples, SampleRate: cueRate}
}

func doubleBeep(freq, beepDur, gapDur, volume, decay float64) speech.Clip {
	beep := tick(freq, beepDur, volume, decay)
	gap := make([]float32, int(cueRate*gapDur))

	samples := make([]float32, 0, 2*len(beep.Samples)+len(gap))
	samples = append(samples, beep.Samples...)
	samples = append(samples, gap...)
	samples = append(samples, beep.Samples...)
	return speech.Clip{Samples: samples, SampleRate: cueRate}
}
