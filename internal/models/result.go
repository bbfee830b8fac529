package models

// Agent identifies one of the six independent assessment agents.
type Agent string

// Agent constants
const (
	AgentDeck          Agent = "deck"
	AgentDelivery      Agent = "delivery"
	AgentSpeechContent Agent = "speechContent"
	AgentAudio         Agent = "audio"
	AgentVoice         Agent = "voice"
	AgentTranscription Agent = "transcription"
)

// StageCombine is the final aggregation stage. It shares the agent
// invocation machinery but is not one of the six modality agents.
const StageCombine Agent = "combine"

// Agents lists the six modality agents in their canonical order.
var Agents = []Agent{
	AgentDeck,
	AgentDelivery,
	AgentSpeechContent,
	AgentAudio,
	AgentVoice,
	AgentTranscription,
}

// InvocationStatus is the terminal state of one agent invocation.
type InvocationStatus string

// InvocationStatus constants
const (
	InvocationOK        InvocationStatus = "ok"
	InvocationMalformed InvocationStatus = "malformed"
	InvocationFailed    InvocationStatus = "failed"
)

// AgentResult is the immutable record of one agent invocation. On retry the
// executor replaces the whole record rather than patching it.
type AgentResult struct {
	Agent    Agent            `json:"agent"`
	Status   InvocationStatus `json:"status"`
	Payload  any              `json:"payload,omitempty"`
	Raw      string           `json:"raw,omitempty"`
	Warnings []string         `json:"warnings,omitempty"`
}

// OverallScore returns the payload's overall score when the payload type
// carries one. The voice payload does not, so it reports false.
func (r AgentResult) OverallScore() (int, bool) {
	switch p := r.Payload.(type) {
	case *DeckPayload:
		return p.OverallScore, true
	case *DeliveryPayload:
		return p.OverallScore, true
	case *SpeechContentPayload:
		return p.OverallScore, true
	case *AudioPayload:
		return p.OverallScore, true
	case *TranscriptionPayload:
		return p.OverallScore, true
	default:
		return 0, false
	}
}

// HighSeverity reports whether the payload flags any high-severity issue.
func (r AgentResult) HighSeverity() bool {
	p, ok := r.Payload.(*AudioPayload)
	if !ok {
		return false
	}
	for _, issue := range p.Issues {
		if issue.Severity == SeverityHigh {
			return true
		}
	}
	return false
}
