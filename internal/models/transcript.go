package models

// TranscriptSource identifies which collaborator produced the transcript.
type TranscriptSource string

// TranscriptSource constants, in resolution priority order.
const (
	SourceUser           TranscriptSource = "user"
	SourceSpeechProvider TranscriptSource = "speech-provider"
	SourceModelFallback  TranscriptSource = "model-fallback"
)

// TranscriptSegment is one timed span of the transcript. Segments are only
// present when the speech provider returns word-level timings.
type TranscriptSegment struct {
	StartMs int64  `json:"startMs"`
	EndMs   int64  `json:"endMs"`
	Text    string `json:"text"`
}

// TranscriptInfo is the authoritative transcript for a job. It is created
// once by the resolver and never mutated afterward.
type TranscriptInfo struct {
	Text     string              `json:"text"`
	Source   TranscriptSource    `json:"source"`
	Segments []TranscriptSegment `json:"segments,omitempty"`
}
