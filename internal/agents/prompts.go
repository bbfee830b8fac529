package agents

import (
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/pitchperfect/pitchperfect/internal/models"
)

//go:embed prompts/*.txt
var promptFS embed.FS

var promptFiles = map[models.Agent]string{
	models.AgentDeck:          "deck.txt",
	models.AgentDelivery:      "delivery.txt",
	models.AgentSpeechContent: "speech_content.txt",
	models.AgentAudio:         "audio.txt",
	models.AgentVoice:         "voice.txt",
	models.AgentTranscription: "transcription.txt",
	models.StageCombine:       "combine.txt",
}

// audioSummaryPromptFile is the prompt for the pre-agent audio summary pass.
const audioSummaryPromptFile = "audio_summary.txt"

var promptTemplates = map[string]*template.Template{}

func init() {
	names := make([]string, 0, len(promptFiles)+1)
	for _, name := range promptFiles {
		names = append(names, name)
	}
	names = append(names, audioSummaryPromptFile)

	for _, name := range names {
		raw, err := promptFS.ReadFile("prompts/" + name)
		if err != nil {
			panic(fmt.Sprintf("missing embedded prompt %s: %v", name, err))
		}
		promptTemplates[name] = template.Must(template.New(name).Parse(string(raw)))
	}
}

// promptVars feeds the prompt templates. Each template uses the subset of
// fields relevant to its agent; unused fields render empty.
type promptVars struct {
	Target       string
	Context      string
	Metadata     string
	Transcript   string
	DeckText     string
	DeckSummary  string
	AudioSummary string
	MediaRef     string
	MediaName    string
	AgentsJSON   string
}

func renderPrompt(name string, vars promptVars) (string, error) {
	tmpl, ok := promptTemplates[name]
	if !ok {
		return "", fmt.Errorf("no prompt template %q", name)
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, vars); err != nil {
		return "", fmt.Errorf("rendering prompt %s: %w", name, err)
	}
	return sb.String(), nil
}
