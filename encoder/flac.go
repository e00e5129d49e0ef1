// Package encoder compresses captured samples before upload. FLAC is
// lossless and cuts 16-bit speech roughly in half, which matters on the
// transcription request's critical path.
package encoder

import (
	"bytes"
	"fmt"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
)

const (
	channels      = 1
	bitsPerSample = 16
	blockSize     = 4096
)

// EncodeFLAC converts float32 samples in [-1, 1] to a complete
// mono 16-bit FLAC stream.
func EncodeFLAC(samples []float32, sampleRate int) ([]byte, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}

	var buf bytes.Buffer
	info := &meta.StreamInfo{
		BlockSizeMin:  blockSize,
		BlockSizeMax:  blockSize,
		SampleRate:    uint32(sampleRate),
		NChannels:     channels,
		BitsPerSample: bitsPerSample,
		NSamples:      uint64(len(samples)),
	}
	enc, err := flac.NewEncoder(&buf, info)
	if err != nil {
		return nil, fmt.Errorf("creating flac encoder: %w", err)
	}
	enc.EnablePredictionAnalysis(true)

	for off := 0; off < len(samples); off += blockSize {
		end := off + blockSize
		if end > len(samples) {
			end = len(samples)
		}
		if err := writeBlock(enc, samples[off:end], sampleRate); err != nil {
			return nil, err
		}
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("finalizing flac stream: %w", err)
	}
	return buf.Bytes(), nil
}

func writeBlock(enc *flac.Encoder, block []float32, sampleRate int) error {
	samples32 := make([]int32, len(block))
	for i, s := range block {
		samples32[i] = int32(quantize(s))
	}

	subframe := &frame.Subframe{
		SubHeader: frame.SubHeader{
			Pred: frame.PredVerbatim,
		},
		Samples:  samples32,
		NSamples: len(block),
	}

	f := &frame.Frame{
		Header: frame.Header{
			BlockSize:     uint16(len(block)),
			SampleRate:    uint32(sampleRate),
			Channels:      frame.ChannelsMono,
			BitsPerSample: bitsPerSample,
		},
		Subframes: []*frame.Subframe{subframe},
	}

	if err := enc.WriteFrame(f); err != nil {
		return fmt.Errorf("writing flac frame: %w", err)
	}
	return nil
}

// quantize clamps and scales a float sample to int16 range.
func quantize(s float32) int16 {
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	}
	v := int32(s * 32767)
	if v > 32767 {
		v = 32767
	} else if v < -32768 {
		v = -32768
	}
	return int16(v)
}
