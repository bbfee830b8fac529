package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pitchperfect/pitchperfect/internal/agents"
	"github.com/pitchperfect/pitchperfect/internal/genai"
	"github.com/pitchperfect/pitchperfect/internal/jobstore"
	"github.com/pitchperfect/pitchperfect/internal/models"
	"github.com/pitchperfect/pitchperfect/internal/projectconfig"
	"github.com/pitchperfect/pitchperfect/internal/speech"
	"github.com/pitchperfect/pitchperfect/internal/transcript"
	"github.com/pitchperfect/pitchperfect/internal/workflow"
)

// pipeline bundles the evaluation engine's wired collaborators for the
// serve and evaluate commands.
type pipeline struct {
	store     *jobstore.FileStore
	scheduler *workflow.Scheduler
}

// buildPipeline wires the store, transcript resolver, agent executor, and
// scheduler from project config plus environment credentials.
func buildPipeline(cfg *projectconfig.ProjectConfig) (*pipeline, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}

	model := cfg.Model.Name
	if envModel := os.Getenv("GEMINI_MODEL"); envModel != "" {
		model = envModel
	}

	client, err := genai.New(genai.Config{
		APIKey:   apiKey,
		Model:    model,
		Endpoint: cfg.Model.Endpoint,
		Timeout:  time.Duration(cfg.Model.Timeout) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("configuring model client: %w", err)
	}

	sttModel := cfg.Speech.Model
	if envSTT := os.Getenv("ELEVENLABS_STT_MODEL"); envSTT != "" {
		sttModel = envSTT
	}

	var provider speech.Transcriber
	if elevenKey := os.Getenv("ELEVENLABS_API_KEY"); elevenKey != "" {
		eleven, err := speech.NewElevenLabs(speech.ElevenLabsConfig{
			APIKey:   elevenKey,
			Model:    sttModel,
			Endpoint: cfg.Speech.Endpoint,
			Timeout:  time.Duration(cfg.Speech.Timeout) * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("configuring speech provider: %w", err)
		}
		provider = eleven
	}

	fallback, err := speech.NewFallback(speech.FallbackConfig{
		APIKey:   apiKey,
		Endpoint: os.Getenv("GEMINI_STT_ENDPOINT"),
	})
	if err != nil {
		return nil, fmt.Errorf("configuring fallback transcription: %w", err)
	}

	resolver := transcript.NewResolver(provider, fallback)

	retry := agents.DefaultRetryPolicy()
	if cfg.Workflow.RetryAttempts > 0 {
		retry.MaxAttempts = cfg.Workflow.RetryAttempts
	}
	executor := agents.NewExecutor(client,
		agents.WithRetryPolicy(retry),
		agents.WithUploader(client),
	)

	store, err := jobstore.NewFileStore(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening job store: %w", err)
	}

	scheduler := workflow.New(store, resolver, executor,
		workflow.WithMaxInFlight(cfg.Workflow.MaxInFlight),
		workflow.WithVoices(personaVoices(cfg)))

	return &pipeline{store: store, scheduler: scheduler}, nil
}

// personaVoices maps narration personas to playback voice ids, with env
// overrides taking precedence over project config.
func personaVoices(cfg *projectconfig.ProjectConfig) map[string]string {
	voices := map[string]string{}
	if cfg.Voices.Encouraging != "" {
		voices[models.PersonaEncouraging] = cfg.Voices.Encouraging
	}
	if cfg.Voices.Harsh != "" {
		voices[models.PersonaHarsh] = cfg.Voices.Harsh
	}
	if id := os.Getenv("VOICE_ID_ENCOURAGING"); id != "" {
		voices[models.PersonaEncouraging] = id
	}
	if id := os.Getenv("VOICE_ID_HARSH"); id != "" {
		voices[models.PersonaHarsh] = id
	}
	return voices
}
