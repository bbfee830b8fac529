package models

// ScoreDetail is a scored sub-dimension with a short rationale.
type ScoreDetail struct {
	Score     int    `json:"score"`
	Rationale string `json:"rationale,omitempty"`
}

// SlideNote is a per-slide observation from the deck critique.
type SlideNote struct {
	SlideNumber int    `json:"slideNumber"`
	Observation string `json:"observation,omitempty"`
	Suggestion  string `json:"suggestion,omitempty"`
}

// DeckPayload is the deck agent's structured critique.
type DeckPayload struct {
	OverallScore        int         `json:"overallScore"`
	NarrativeScore      int         `json:"narrativeScore"`
	StructureScore      int         `json:"structureScore"`
	VisualsScore        int         `json:"visualsScore"`
	ClarityScore        int         `json:"clarityScore"`
	PersuasivenessScore int         `json:"persuasivenessScore"`
	Strengths           []string    `json:"strengths,omitempty"`
	Gaps                []string    `json:"gaps,omitempty"`
	SlideNotes          []SlideNote `json:"slideNotes,omitempty"`
}

// DeliveryPayload is the delivery agent's critique of how the pitch was
// spoken.
type DeliveryPayload struct {
	OverallScore    int         `json:"overallScore"`
	Clarity         ScoreDetail `json:"clarity"`
	Pacing          ScoreDetail `json:"pacing"`
	Confidence      ScoreDetail `json:"confidence"`
	Engagement      ScoreDetail `json:"engagement"`
	VocalDelivery   string      `json:"vocalDelivery,omitempty"`
	BodyLanguage    string      `json:"bodyLanguage,omitempty"`
	Recommendations []string    `json:"recommendations,omitempty"`
}

// SpeechContentPayload is the speech-content agent's critique of what was
// said.
type SpeechContentPayload struct {
	OverallScore    int         `json:"overallScore"`
	StoryArc        ScoreDetail `json:"storyArc"`
	ValueProp       ScoreDetail `json:"valueProp"`
	Differentiation ScoreDetail `json:"differentiation"`
	Ask             ScoreDetail `json:"ask"`
	Evidences       []string    `json:"evidences,omitempty"`
	Recommendations []string    `json:"recommendations,omitempty"`
}

// AudioIssue is a timestamped problem found in the recording.
type AudioIssue struct {
	Timestamp   string `json:"timestamp,omitempty"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
	Severity    string `json:"severity"`
}

// SeverityHigh marks an AudioIssue severe enough to trigger a score penalty.
const SeverityHigh = "high"

// AudioMetrics holds the audio agent's qualitative delivery metrics.
type AudioMetrics struct {
	Pace          string `json:"pace,omitempty"`
	FillerWords   string `json:"fillerWords,omitempty"`
	SilenceRatio  string `json:"silenceRatio,omitempty"`
	AverageVolume string `json:"averageVolume,omitempty"`
}

// AudioPayload is the audio agent's critique of the raw recording.
type AudioPayload struct {
	OverallScore int          `json:"overallScore"`
	Issues       []AudioIssue `json:"issues,omitempty"`
	Metrics      AudioMetrics `json:"metrics"`
}

// VoicePayload is the voice agent's critique. It carries no overall score;
// the voice modality never participates in the score-minimum scan.
type VoicePayload struct {
	OverallSummary string      `json:"overallSummary,omitempty"`
	Tone           ScoreDetail `json:"tone"`
	Cadence        ScoreDetail `json:"cadence"`
	Confidence     ScoreDetail `json:"confidence"`
	Clarity        ScoreDetail `json:"clarity"`
	Articulation   ScoreDetail `json:"articulation"`
	Vocabulary     ScoreDetail `json:"vocabulary"`
	Conviction     ScoreDetail `json:"conviction"`
}

// TranscriptionPayload is the transcription agent's critique of the
// transcript text itself.
type TranscriptionPayload struct {
	OverallScore    int         `json:"overallScore"`
	Clarity         ScoreDetail `json:"clarity"`
	Relevance       ScoreDetail `json:"relevance"`
	Structure       ScoreDetail `json:"structure"`
	Highlights      []string    `json:"highlights,omitempty"`
	Risks           []string    `json:"risks,omitempty"`
	Recommendations []string    `json:"recommendations,omitempty"`
}

// CombineSummary is the headline verdict of the combine stage.
type CombineSummary struct {
	OverallScore int      `json:"overallScore"`
	Headline     string   `json:"headline,omitempty"`
	Highlights   []string `json:"highlights,omitempty"`
	Risks        []string `json:"risks,omitempty"`
}

// TimelineItem is one moment called out in the combined timeline.
type TimelineItem struct {
	Timestamp   string `json:"timestamp,omitempty"`
	Description string `json:"description,omitempty"`
	Impact      string `json:"impact,omitempty"`
}

// Recommendation is one improvement theme with concrete action items.
type Recommendation struct {
	Title   string   `json:"title"`
	Actions []string `json:"actions,omitempty"`
}

// VoiceScript is a coach narration script for one persona. VoiceID is the
// configured playback voice for the persona, filled in at assembly time.
type VoiceScript struct {
	Persona string `json:"persona"`
	Tone    string `json:"tone,omitempty"`
	Script  string `json:"script"`
	VoiceID string `json:"voiceId,omitempty"`
}

// Narration personas the combine stage must produce.
const (
	PersonaEncouraging = "encouraging"
	PersonaHarsh       = "harsh"
)

// CombineOutput is the combine stage's structured output before the
// deterministic correction pass runs over it.
type CombineOutput struct {
	Summary         CombineSummary   `json:"summary"`
	Timeline        []TimelineItem   `json:"timeline,omitempty"`
	Recommendations []Recommendation `json:"recommendations,omitempty"`
	VoiceScripts    []VoiceScript    `json:"voiceScripts,omitempty"`
}
