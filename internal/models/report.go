package models

import "time"

// ReportVersion tags the EvaluationReport schema.
const ReportVersion = "1.0"

// SummaryAdjustment is the audit record of one deterministic correction
// applied to the combine summary.
type SummaryAdjustment struct {
	Original    int      `json:"original"`
	Adjusted    int      `json:"adjusted"`
	Penalty     int      `json:"penalty"`
	TriggeredBy []string `json:"triggeredBy"`
}

// ReportMeta carries provenance for a report.
type ReportMeta struct {
	Model       string    `json:"model"`
	GeneratedAt time.Time `json:"generatedAt"`
	Target      string    `json:"target"`
	GraphOrder  []string  `json:"graphOrder"`
}

// EvaluationReport is the persisted, versioned output of a completed job.
// It is assembled exactly once and stored write-once under the job's id.
type EvaluationReport struct {
	Version string         `json:"version"`
	Summary CombineSummary `json:"summary"`

	Deck          *DeckPayload          `json:"deck,omitempty"`
	Delivery      *DeliveryPayload      `json:"delivery,omitempty"`
	SpeechContent *SpeechContentPayload `json:"speechContent,omitempty"`
	Audio         *AudioPayload         `json:"audio,omitempty"`
	Voice         *VoicePayload         `json:"voice,omitempty"`
	Transcription *TranscriptionPayload `json:"transcription,omitempty"`

	Timeline        []TimelineItem   `json:"timeline,omitempty"`
	Recommendations []Recommendation `json:"recommendations,omitempty"`
	VoiceNarrations []VoiceScript    `json:"voiceNarrations,omitempty"`

	Transcript TranscriptInfo `json:"transcript"`

	AgentWarnings      map[Agent][]string  `json:"agentWarnings,omitempty"`
	CombineWarnings    []string            `json:"combineWarnings,omitempty"`
	Warnings           []string            `json:"warnings,omitempty"`
	SummaryAdjustments []SummaryAdjustment `json:"summaryAdjustments,omitempty"`

	Meta ReportMeta `json:"meta"`
}
