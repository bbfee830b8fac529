package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// DefaultFallbackEndpoint is the primary model's native transcription
// endpoint, used when the speech provider is unavailable.
const DefaultFallbackEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/gemini-1.5:transcribe"

// FallbackConfig holds settings for the model transcription fallback.
type FallbackConfig struct {
	APIKey       string
	Endpoint     string        // defaults to DefaultFallbackEndpoint
	LanguageCode string        // defaults to en-US
	Timeout      time.Duration // per-call timeout, defaults to 120s
}

// FallbackTranscriber transcribes audio through the primary model when the
// secondary speech provider fails. It returns plain text without segments.
type FallbackTranscriber struct {
	cfg FallbackConfig
	hc  *http.Client
}

// NewFallback creates a fallback transcriber from cfg.
func NewFallback(cfg FallbackConfig) (*FallbackTranscriber, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("model API key is required")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultFallbackEndpoint
	}
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = "en-US"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &FallbackTranscriber{cfg: cfg, hc: &http.Client{Timeout: cfg.Timeout}}, nil
}

type fallbackRequest struct {
	Config struct {
		LanguageCode string `json:"languageCode"`
	} `json:"config"`
	Audio struct {
		Content string `json:"content"`
	} `json:"audio"`
}

// fallbackResponse covers the two shapes the endpoint is known to return:
// a flat transcript or a results/alternatives structure.
type fallbackResponse struct {
	Transcript string `json:"transcript"`
	Results    []struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"results"`
}

// Transcribe sends base64-encoded audio and returns the transcript text.
func (f *FallbackTranscriber) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	data, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, fmt.Errorf("reading audio file: %w", err)
	}

	var reqBody fallbackRequest
	reqBody.Config.LanguageCode = f.cfg.LanguageCode
	reqBody.Audio.Content = base64.StdEncoding.EncodeToString(data)

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := strings.TrimRight(f.cfg.Endpoint, "/") + "?key=" + f.cfg.APIKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling fallback transcription: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading fallback response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fallback transcription returned %d", resp.StatusCode)
	}

	var parsed fallbackResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parsing fallback response: %w", err)
	}

	transcript := parsed.Transcript
	if transcript == "" {
		var chunks []string
		for _, r := range parsed.Results {
			for _, alt := range r.Alternatives {
				if alt.Transcript != "" {
					chunks = append(chunks, alt.Transcript)
				}
			}
		}
		transcript = strings.Join(chunks, " ")
	}
	if transcript == "" {
		return nil, fmt.Errorf("fallback transcription returned no text")
	}

	return &Result{Text: transcript}, nil
}

// Ensure FallbackTranscriber satisfies Transcriber.
var _ Transcriber = (*FallbackTranscriber)(nil)
