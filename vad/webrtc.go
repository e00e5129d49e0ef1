package vad

import (
	"encoding/binary"

	webrtcvad "github.com/maxhawkins/go-webrtcvad"
)

const webrtcMode = 3

type webrtcClassifier struct {
	vad *webrtcvad.VAD
	buf []byte
}

func newWebRTCClassifier() (*webrtcClassifier, error) {
	v, err := webrtcvad.New()
	if err != nil {
		return nil, err
	}
	if err := v.SetMode(webrtcMode); err != nil {
		return nil, err
	}
	return &webrtcClassifier{vad: v}, nil
}

func (c *webrtcClassifier) IsSpeech(sampleRate int, frame []int16) (bool, error) {
	if cap(c.buf) < len(frame)*2 {
		c.buf = make([]byte, len(frame)*2)
	}
	buf := c.buf[:len(frame)*2]
	for i, s := range frame {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return c.vad.Process(sampleRate, buf)
}
