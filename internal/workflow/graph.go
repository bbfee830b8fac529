package workflow

import "github.com/pitchperfect/pitchperfect/internal/models"

// Requirement identifies one data input an agent node needs before it can
// be scheduled.
type Requirement int

// Requirement constants
const (
	NeedDeckText Requirement = iota
	NeedTranscript
	NeedMedia
)

func (r Requirement) String() string {
	switch r {
	case NeedDeckText:
		return "deck text"
	case NeedTranscript:
		return "transcript"
	case NeedMedia:
		return "media asset"
	default:
		return "unknown input"
	}
}

// graphNode declares one agent and the inputs it requires. A node whose
// requirements are not all satisfied is skipped, not failed.
type graphNode struct {
	Agent    models.Agent
	Requires []Requirement
}

// evaluationGraph lists the six agent nodes. The combine stage is implicit:
// it has a full fan-in edge from every node that actually ran.
var evaluationGraph = []graphNode{
	{Agent: models.AgentDeck, Requires: []Requirement{NeedDeckText}},
	{Agent: models.AgentDelivery, Requires: []Requirement{NeedTranscript}},
	{Agent: models.AgentSpeechContent, Requires: []Requirement{NeedTranscript}},
	{Agent: models.AgentAudio, Requires: []Requirement{NeedMedia}},
	{Agent: models.AgentVoice, Requires: []Requirement{NeedMedia}},
	{Agent: models.AgentTranscription, Requires: []Requirement{NeedTranscript}},
}
