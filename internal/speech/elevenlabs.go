package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/pitchperfect/pitchperfect/internal/models"
)

// DefaultSTTEndpoint is the speech provider's transcription endpoint.
const DefaultSTTEndpoint = "https://api.elevenlabs.io/v1/speech-to-text"

// DefaultSTTModel is the provider transcription model used when none is
// configured.
const DefaultSTTModel = "scribe_v2"

// ElevenLabsConfig holds connection settings for the speech provider.
type ElevenLabsConfig struct {
	APIKey   string
	Model    string        // defaults to DefaultSTTModel
	Endpoint string        // defaults to DefaultSTTEndpoint
	Timeout  time.Duration // per-call timeout, defaults to 120s
}

// ElevenLabsClient transcribes audio through the secondary speech provider.
type ElevenLabsClient struct {
	cfg ElevenLabsConfig
	hc  *http.Client
}

// NewElevenLabs creates a provider client from cfg.
func NewElevenLabs(cfg ElevenLabsConfig) (*ElevenLabsClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("speech provider API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultSTTModel
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultSTTEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &ElevenLabsClient{cfg: cfg, hc: &http.Client{Timeout: cfg.Timeout}}, nil
}

// sttResponse mirrors the provider's wire shape: transcript text plus
// word-level timings in seconds.
type sttResponse struct {
	Text  string `json:"text"`
	Words []struct {
		Text  string  `json:"text"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
	} `json:"words"`
}

// Transcribe uploads the audio file and returns the transcription with
// word-level segments.
func (c *ElevenLabsClient) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	data, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, fmt.Errorf("reading audio file: %w", err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, fmt.Errorf("building upload form: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return nil, fmt.Errorf("writing upload form: %w", err)
	}
	if err := mw.WriteField("model_id", c.cfg.Model); err != nil {
		return nil, fmt.Errorf("writing upload form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("xi-api-key", c.cfg.APIKey)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling speech provider: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading speech response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("speech provider returned %d", resp.StatusCode)
	}

	var parsed sttResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parsing speech response: %w", err)
	}
	if parsed.Text == "" {
		return nil, fmt.Errorf("speech provider returned no text")
	}

	result := &Result{Text: parsed.Text}
	for _, w := range parsed.Words {
		if w.Text == "" || w.End <= w.Start {
			continue
		}
		result.Segments = append(result.Segments, models.TranscriptSegment{
			StartMs: int64(w.Start * 1000),
			EndMs:   int64(w.End * 1000),
			Text:    w.Text,
		})
	}
	return result, nil
}

// Ensure ElevenLabsClient satisfies Transcriber.
var _ Transcriber = (*ElevenLabsClient)(nil)
