package agents

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/pitchperfect/pitchperfect/internal/models"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

// defaultPrinter is used to format schema validation error messages.
var defaultPrinter = message.NewPrinter(language.English)

// agentSchemas holds the compiled output schema for each agent and the
// combine stage.
var agentSchemas = map[models.Agent]*jsonschema.Schema{}

var schemaFiles = map[models.Agent]string{
	models.AgentDeck:          "deck.schema.json",
	models.AgentDelivery:      "delivery.schema.json",
	models.AgentSpeechContent: "speech_content.schema.json",
	models.AgentAudio:         "audio.schema.json",
	models.AgentVoice:         "voice.schema.json",
	models.AgentTranscription: "transcription.schema.json",
	models.StageCombine:       "combine.schema.json",
}

func init() {
	for agent, name := range schemaFiles {
		raw, err := schemaFS.ReadFile("schemas/" + name)
		if err != nil {
			panic(fmt.Sprintf("missing embedded schema %s: %v", name, err))
		}
		agentSchemas[agent] = mustCompileSchema(raw, name)
	}
}

func mustCompileSchema(raw []byte, name string) *jsonschema.Schema {
	var schemaDoc any
	if err := json.Unmarshal(raw, &schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to parse embedded %s: %v", name, err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to add %s resource: %v", name, err))
	}

	sch, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to compile %s: %v", name, err))
	}
	return sch
}

// validateOutput checks a parsed agent response against the agent's schema
// and returns human-readable failures, one per violated constraint.
func validateOutput(agent models.Agent, instance any) []string {
	schema, ok := agentSchemas[agent]
	if !ok {
		return []string{fmt.Sprintf("no output schema registered for agent %q", agent)}
	}
	err := schema.Validate(instance)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []string{fmt.Sprintf("schema: %v", err)}
	}
	var errs []string
	collectSchemaErrors(ve, &errs)
	return errs
}

func collectSchemaErrors(ve *jsonschema.ValidationError, errs *[]string) {
	if len(ve.Causes) == 0 {
		loc := "/"
		if len(ve.InstanceLocation) > 0 {
			loc = "/" + strings.Join(ve.InstanceLocation, "/")
		}
		*errs = append(*errs, fmt.Sprintf("%s: %s", loc, ve.ErrorKind.LocalizedString(defaultPrinter)))
		return
	}
	for _, c := range ve.Causes {
		collectSchemaErrors(c, errs)
	}
}
