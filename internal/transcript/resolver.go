// Package transcript resolves the authoritative transcript for a job from
// competing sources: user-supplied text, the speech provider, and the
// primary model's transcription fallback, in that priority order.
package transcript

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pitchperfect/pitchperfect/internal/models"
	"github.com/pitchperfect/pitchperfect/internal/speech"
)

// ErrNoTranscript is returned when no source could produce a transcript.
// It is not fatal: callers skip transcript-dependent work with a warning.
var ErrNoTranscript = errors.New("no transcript available")

// DefaultCallTimeout bounds each external transcription call. Each source
// gets a single attempt.
const DefaultCallTimeout = 2 * time.Minute

// Resolver picks the transcript for a job.
type Resolver struct {
	provider    speech.Transcriber // secondary speech provider, may be nil
	fallback    speech.Transcriber // primary model fallback, may be nil
	callTimeout time.Duration
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithCallTimeout overrides the per-call timeout.
func WithCallTimeout(d time.Duration) Option {
	return func(r *Resolver) { r.callTimeout = d }
}

// NewResolver creates a Resolver. Either transcriber may be nil, in which
// case that rung of the fallback chain is skipped.
func NewResolver(provider, fallback speech.Transcriber, opts ...Option) *Resolver {
	r := &Resolver{
		provider:    provider,
		fallback:    fallback,
		callTimeout: DefaultCallTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve picks the transcript in strict priority order: user text, then the
// speech provider, then the model fallback. It returns the resolved
// transcript plus warnings describing any sources that were tried and
// failed. ErrNoTranscript means every rung was exhausted; warnings are still
// returned alongside it.
func (r *Resolver) Resolve(ctx context.Context, userText, audioPath string) (*models.TranscriptInfo, []string, error) {
	if strings.TrimSpace(userText) != "" {
		return &models.TranscriptInfo{
			Text:   userText,
			Source: models.SourceUser,
		}, nil, nil
	}

	if audioPath == "" {
		return nil, nil, ErrNoTranscript
	}

	var warnings []string

	if r.provider != nil {
		result, err := r.transcribe(ctx, r.provider, audioPath)
		if err == nil {
			return &models.TranscriptInfo{
				Text:     result.Text,
				Source:   models.SourceSpeechProvider,
				Segments: result.Segments,
			}, warnings, nil
		}
		slog.Warn("speech provider transcription failed", "error", err)
		warnings = append(warnings, fmt.Sprintf("speech provider transcription failed: %v", err))
	}

	if r.fallback != nil {
		result, err := r.transcribe(ctx, r.fallback, audioPath)
		if err == nil {
			return &models.TranscriptInfo{
				Text:     result.Text,
				Source:   models.SourceModelFallback,
				Segments: result.Segments,
			}, warnings, nil
		}
		slog.Warn("model fallback transcription failed", "error", err)
		warnings = append(warnings, fmt.Sprintf("model fallback transcription failed: %v", err))
	}

	return nil, warnings, ErrNoTranscript
}

func (r *Resolver) transcribe(ctx context.Context, t speech.Transcriber, audioPath string) (*speech.Result, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()
	return t.Transcribe(callCtx, audioPath)
}
