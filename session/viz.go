package session

import "math"

// SpectrumBands is the number of magnitude bins in a VizFrame, spaced
// logarithmically across the voice band.
const SpectrumBands = 16

const (
	vizLowHz  = 200.0
	vizHighHz = 4000.0

	// Cap the per-chunk analysis window; chunks are usually far smaller.
	vizMaxWindow = 1024
)

// VizFrame is the lightweight visualization computed per chunk: an overall
// level plus a coarse spectrum. Frames are ephemeral and never persisted.
type VizFrame struct {
	Level    float64
	Spectrum []float64
}

// Analyze computes one VizFrame. Level is the RMS of the chunk; the
// spectrum uses a Goertzel filter per band, which is cheap enough to run on
// every chunk without an FFT dependency.
func Analyze(samples []float32, sampleRate float64) VizFrame {
	frame := VizFrame{Spectrum: make([]float64, SpectrumBands)}
	if len(samples) == 0 || sampleRate <= 0 {
		return frame
	}

	var sumSquares float64
	for _, s := range samples {
		sumSquares += float64(s) * float64(s)
	}
	frame.Level = clamp01(math.Sqrt(sumSquares / float64(len(samples))))

	n := len(samples)
	if n > vizMaxWindow {
		samples = samples[n-vizMaxWindow:]
		n = vizMaxWindow
	}

	ratio := vizHighHz / vizLowHz
	for band := 0; band < SpectrumBands; band++ {
		freq := vizLowHz * math.Pow(ratio, float64(band)/float64(SpectrumBands-1))
		if freq >= sampleRate/2 {
			break
		}
		frame.Spectrum[band] = clamp01(goertzel(samples, sampleRate, freq))
	}
	return frame
}

// goertzel returns the normalized magnitude of one frequency bin.
func goertzel(samples []float32, sampleRate, freq float64) float64 {
	n := float64(len(samples))
	k := math.Round(freq * n / sampleRate)
	w := 2 * math.Pi * k / n
	coeff := 2 * math.Cos(w)

	var s0, s1, s2 float64
	for _, x := range samples {
		s0 = float64(x) + coeff*s1 - s2
		s2 = s1
		s1 = s0
	}
	power := s1*s1 + s2*s2 - coeff*s1*s2
	if power < 0 {
		power = 0
	}
	return math.Sqrt(power) / (n / 2)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
