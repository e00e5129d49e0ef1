package diarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"voco/encoder"
)

// HTTPDiarizer posts FLAC audio to a diarization endpoint that answers
// with JSON speaker segments.
type HTTPDiarizer struct {
	apiURL string
	apiKey string
	client *http.Client
}

func NewHTTP(apiURL, apiKey string) *HTTPDiarizer {
	return &HTTPDiarizer{
		apiURL: apiURL,
		apiKey: apiKey,
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        4,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
				ForceAttemptHTTP2:   true,
			},
		},
	}
}

func (d *HTTPDiarizer) Name() string { return "http" }

type diarizeResponse struct {
	Segments []struct {
		Speaker string  `json:"speaker"`
		Start   float64 `json:"start"`
		End     float64 `json:"end"`
	} `json:"segments"`
}

func (d *HTTPDiarizer) Diarize(ctx context.Context, samples []float32, sampleRate float64) ([]Segment, error) {
	audioData, err := encoder.EncodeFLAC(samples, int(sampleRate))
	if err != nil {
		return nil, fmt.Errorf("encode audio: %w", err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "audio.flac")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(audioData); err != nil {
		return nil, err
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, "POST", d.apiURL, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+d.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("diarization request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("diarization API error %d: %s", resp.StatusCode, string(raw))
	}

	var dResp diarizeResponse
	if err := json.Unmarshal(raw, &dResp); err != nil {
		return nil, fmt.Errorf("diarization response parse error: %w", err)
	}
	if len(dResp.Segments) == 0 {
		return nil, ErrNoSegments
	}

	segments := make([]Segment, len(dResp.Segments))
	for i, s := range dResp.Segments {
		segments[i] = Segment{Speaker: s.Speaker, Start: s.Start, End: s.End}
	}
	return segments, nil
}
