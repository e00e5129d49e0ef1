package encoder

import (
	"bytes"
	"io"
	"math"
	"testing"

	"github.com/mewkiz/flac"
)

func TestEncodeFLACRoundTrip(t *testing.T) {
	const rate = 16000
	samples := make([]float32, 5000) // forces a short trailing block
	for i := range samples {
		samples[i] = float32(0.5 * math.Sin(2*math.Pi*440*float64(i)/rate))
	}

	data, err := EncodeFLAC(samples, rate)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("fLaC")) {
		t.Fatal("output is not a flac stream")
	}

	stream, err := flac.New(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if stream.Info.SampleRate != rate {
		t.Fatalf("SampleRate = %d, want %d", stream.Info.SampleRate, rate)
	}

	decoded := 0
	for {
		f, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		decoded += f.Subframes[0].NSamples
	}
	if decoded != len(samples) {
		t.Fatalf("decoded %d samples, want %d", decoded, len(samples))
	}
}

func TestEncodeFLACRejectsBadRate(t *testing.T) {
	if _, err := EncodeFLAC([]float32{0}, 0); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
}

func TestQuantizeClamps(t *testing.T) {
	if got := quantize(2); got != 32767 {
		t.Fatalf("quantize(2) = %d", got)
	}
	if got := quantize(-2); got != -32767 {
		t.Fatalf("quantize(-2) = %d", got)
	}
	if got := quantize(0); got != 0 {
		t.Fatalf("quantize(0) = %d", got)
	}
}
