// Package speech wraps the speech-to-text collaborators: the secondary
// speech provider and the primary model's native transcription fallback.
package speech

import (
	"context"

	"github.com/pitchperfect/pitchperfect/internal/models"
)

// Result is a provider transcription: the text plus word-level segments when
// the provider supplies timings.
type Result struct {
	Text     string
	Segments []models.TranscriptSegment
}

// Transcriber converts an audio asset into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*Result, error)
}
