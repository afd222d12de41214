// Package stt provides the HTTP client for the speech-to-text sidecar.
// Transcription is best effort: callers treat a failure as an absent
// voice modality, never as a fatal error.
package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/civicpulse/classifier/internal/config"
)

// ErrDisabled is returned when no transcription service is configured.
var ErrDisabled = errors.New("stt service not configured")

// transcribeRequest is the request body for POST /transcribe.
type transcribeRequest struct {
	AudioURL string `json:"audio_url"`
	Language string `json:"language"`
}

// transcribeResponse is the JSON shape returned by the sidecar.
type transcribeResponse struct {
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
}

// Client calls the transcription sidecar.
type Client struct {
	baseURL    string
	language   string
	httpClient *http.Client
}

// NewClient builds a client from config. A blank URL yields a disabled
// client whose calls return ErrDisabled.
func NewClient(cfg config.STTConfig) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		language:   cfg.Language,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Enabled reports whether a transcription service is configured.
func (c *Client) Enabled() bool { return c.baseURL != "" }

// TranscribeFromURL asks the sidecar to transcribe the audio file at url.
func (c *Client) TranscribeFromURL(ctx context.Context, url string) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}

	body, err := json.Marshal(transcribeRequest{AudioURL: url, Language: c.language})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transcribe", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("stt service returned %d", resp.StatusCode)
	}

	var tr transcribeResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&tr); decodeErr != nil {
		return "", fmt.Errorf("decode response: %w", decodeErr)
	}

	return strings.TrimSpace(tr.Transcript), nil
}
