package transcript

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchperfect/pitchperfect/internal/models"
	"github.com/pitchperfect/pitchperfect/internal/speech"
)

// fakeTranscriber returns a canned result or error and counts calls.
type fakeTranscriber struct {
	result *speech.Result
	err    error
	calls  int
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioPath string) (*speech.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func TestResolveUserTextWinsOverAudio(t *testing.T) {
	provider := &fakeTranscriber{result: &speech.Result{Text: "from provider"}}
	r := NewResolver(provider, nil)

	ti, warnings, err := r.Resolve(context.Background(), "my own transcript", "audio.mp3")
	require.NoError(t, err)
	assert.Equal(t, models.SourceUser, ti.Source)
	assert.Equal(t, "my own transcript", ti.Text)
	assert.Empty(t, warnings)
	assert.Zero(t, provider.calls, "provider must not be called when user text exists")
}

func TestResolveSpeechProvider(t *testing.T) {
	provider := &fakeTranscriber{result: &speech.Result{
		Text: "provider transcript",
		Segments: []models.TranscriptSegment{
			{StartMs: 0, EndMs: 450, Text: "provider"},
		},
	}}
	fallback := &fakeTranscriber{result: &speech.Result{Text: "fallback transcript"}}
	r := NewResolver(provider, fallback)

	ti, warnings, err := r.Resolve(context.Background(), "", "audio.mp3")
	require.NoError(t, err)
	assert.Equal(t, models.SourceSpeechProvider, ti.Source)
	assert.Equal(t, "provider transcript", ti.Text)
	assert.Len(t, ti.Segments, 1)
	assert.Empty(t, warnings)
	assert.Zero(t, fallback.calls)
}

func TestResolveFallbackAfterProviderFailure(t *testing.T) {
	provider := &fakeTranscriber{err: errors.New("quota exceeded")}
	fallback := &fakeTranscriber{result: &speech.Result{Text: "fallback transcript"}}
	r := NewResolver(provider, fallback)

	ti, warnings, err := r.Resolve(context.Background(), "", "audio.mp3")
	require.NoError(t, err)
	assert.Equal(t, models.SourceModelFallback, ti.Source)
	assert.Equal(t, "fallback transcript", ti.Text)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "speech provider transcription failed")
}

func TestResolveAllSourcesFail(t *testing.T) {
	provider := &fakeTranscriber{err: errors.New("down")}
	fallback := &fakeTranscriber{err: errors.New("also down")}
	r := NewResolver(provider, fallback)

	ti, warnings, err := r.Resolve(context.Background(), "", "audio.mp3")
	assert.ErrorIs(t, err, ErrNoTranscript)
	assert.Nil(t, ti)
	assert.Len(t, warnings, 2)
}

func TestResolveNothingToResolve(t *testing.T) {
	r := NewResolver(nil, nil)

	ti, warnings, err := r.Resolve(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrNoTranscript)
	assert.Nil(t, ti)
	assert.Empty(t, warnings)
}

func TestResolveWhitespaceUserTextIgnored(t *testing.T) {
	r := NewResolver(nil, nil)

	_, _, err := r.Resolve(context.Background(), "   \n ", "")
	assert.ErrorIs(t, err, ErrNoTranscript)
}
