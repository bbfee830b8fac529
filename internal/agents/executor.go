// Package agents invokes the external assessment agents: prompt assembly,
// strict response parsing, schema validation, typed decoding, and retry with
// backoff. Every invocation terminates in a result record; nothing here
// raises out to the scheduler.
package agents

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/pitchperfect/pitchperfect/internal/genai"
	"github.com/pitchperfect/pitchperfect/internal/models"
)

// PlaceholderAudioSummary stands in for the audio summary when no media
// asset was submitted.
const PlaceholderAudioSummary = "Transcript-only evaluation (raw audio unavailable)."

// maxTranscriptChars caps how much transcript text is inlined into a prompt.
const maxTranscriptChars = 8000

// Input carries everything an agent prompt may draw on. The executor uses
// the subset each agent's template asks for.
type Input struct {
	JobID        string
	Target       string
	Context      string
	Metadata     string // pretty-printed JSON blob, verbatim from the job
	Transcript   string
	DeckText     string
	DeckSummary  string
	AudioSummary string
	MediaRef     string // remote reference from UploadMedia, if any
	MediaName    string
	AgentsJSON   string // combine only: the six agents' payloads as JSON
}

// Executor is the generic retrying invoker of one external assessment call.
type Executor struct {
	client   genai.Client
	uploader genai.Uploader
	retry    RetryPolicy
	uploads  *uploadCache
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(p RetryPolicy) ExecutorOption {
	return func(e *Executor) { e.retry = p }
}

// WithUploader enables media uploads through u. Without an uploader agents
// fall back to transcript-and-summary context only.
func WithUploader(u genai.Uploader) ExecutorOption {
	return func(e *Executor) { e.uploader = u }
}

// NewExecutor creates an Executor backed by client.
func NewExecutor(client genai.Client, opts ...ExecutorOption) *Executor {
	e := &Executor{
		client:  client,
		retry:   DefaultRetryPolicy(),
		uploads: newUploadCache(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ModelID identifies the backing model, for report provenance.
func (e *Executor) ModelID() string { return e.client.ModelID() }

// Invoke runs one agent against the collaborator and always returns a
// terminal result: ok with a typed payload, malformed with the raw text
// captured, or failed after the retry budget is spent.
func (e *Executor) Invoke(ctx context.Context, agent models.Agent, in Input) models.AgentResult {
	result := models.AgentResult{Agent: agent}

	prompt, err := e.buildPrompt(agent, in)
	if err != nil {
		result.Status = models.InvocationFailed
		result.Warnings = append(result.Warnings, err.Error())
		return result
	}

	raw, err := e.generate(ctx, prompt)
	if err != nil {
		slog.Warn("agent call failed", "agent", agent, "error", err)
		result.Status = models.InvocationFailed
		result.Warnings = append(result.Warnings, fmt.Sprintf("agent %s call failed: %v", agent, err))
		return result
	}
	result.Raw = strings.TrimSpace(raw)

	doc, err := parseAgentJSON(raw)
	if err != nil {
		result.Status = models.InvocationMalformed
		result.Warnings = append(result.Warnings, fmt.Sprintf("agent %s returned unparseable output: %v", agent, err))
		return result
	}

	if failures := validateOutput(agent, doc); len(failures) > 0 {
		result.Status = models.InvocationMalformed
		for _, f := range failures {
			result.Warnings = append(result.Warnings, fmt.Sprintf("agent %s output: %s", agent, f))
		}
		return result
	}

	payload, err := decodePayload(agent, doc)
	if err != nil {
		result.Status = models.InvocationMalformed
		result.Warnings = append(result.Warnings, fmt.Sprintf("agent %s output: %v", agent, err))
		return result
	}

	result.Status = models.InvocationOK
	result.Payload = payload
	return result
}

// SummarizeAudio runs the pre-agent audio analysis pass. It degrades to a
// generic summary plus a warning rather than failing: the summary is prompt
// context, not a deliverable.
func (e *Executor) SummarizeAudio(ctx context.Context, in Input) (string, []string) {
	prompt, err := renderPrompt(audioSummaryPromptFile, promptVars{
		Transcript: truncateTranscript(in.Transcript),
		MediaRef:   in.MediaRef,
		MediaName:  in.MediaName,
	})
	if err != nil {
		return "No summary available.", []string{err.Error()}
	}

	raw, err := e.generate(ctx, prompt)
	if err != nil {
		slog.Warn("audio summary call failed", "error", err)
		return "No summary available.", []string{fmt.Sprintf("audio summary failed: %v", err)}
	}
	summary := strings.TrimSpace(raw)
	if summary == "" {
		return "No summary available.", []string{"audio summary came back empty"}
	}
	return summary, nil
}

// UploadMedia pushes the asset at path to the collaborator once per (job,
// content hash) and returns the cached reference on subsequent calls.
// Returns "" without error when no uploader is configured.
func (e *Executor) UploadMedia(ctx context.Context, jobID, path string) (string, error) {
	if e.uploader == nil {
		return "", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading media asset: %w", err)
	}
	sum := sha256.Sum256(data)
	key := jobID + ":" + hex.EncodeToString(sum[:])

	if ref, ok := e.uploads.get(key); ok {
		return ref, nil
	}

	var ref string
	err = e.retry.Do(ctx, genai.IsRetryable, func(ctx context.Context) error {
		var uploadErr error
		ref, uploadErr = e.uploader.UploadFile(ctx, path)
		return uploadErr
	})
	if err != nil {
		return "", err
	}
	e.uploads.put(key, ref)
	return ref, nil
}

func (e *Executor) generate(ctx context.Context, prompt string) (string, error) {
	var raw string
	err := e.retry.Do(ctx, genai.IsRetryable, func(ctx context.Context) error {
		var genErr error
		raw, genErr = e.client.GenerateContent(ctx, prompt)
		return genErr
	})
	return raw, err
}

func (e *Executor) buildPrompt(agent models.Agent, in Input) (string, error) {
	name, ok := promptFiles[agent]
	if !ok {
		return "", fmt.Errorf("no prompt registered for agent %q", agent)
	}
	return renderPrompt(name, promptVars{
		Target:       in.Target,
		Context:      in.Context,
		Metadata:     in.Metadata,
		Transcript:   truncateTranscript(in.Transcript),
		DeckText:     in.DeckText,
		DeckSummary:  in.DeckSummary,
		AudioSummary: in.AudioSummary,
		MediaRef:     in.MediaRef,
		MediaName:    in.MediaName,
		AgentsJSON:   in.AgentsJSON,
	})
}

// parseAgentJSON parses a model reply as strict JSON. Models occasionally
// wrap the object in prose or code fences, so on failure it retries with
// the outermost brace-delimited slice before declaring the output
// unparseable.
func parseAgentJSON(text string) (map[string]any, error) {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return nil, fmt.Errorf("empty response yielded no JSON")
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(cleaned), &doc); err == nil {
		return doc, nil
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start != -1 && end > start {
		if err := json.Unmarshal([]byte(cleaned[start:end+1]), &doc); err == nil {
			return doc, nil
		}
	}
	return nil, fmt.Errorf("unable to parse JSON from agent response")
}

// decodePayload converts a schema-valid document into the agent's typed
// payload struct.
func decodePayload(agent models.Agent, doc map[string]any) (any, error) {
	var target any
	switch agent {
	case models.AgentDeck:
		target = &models.DeckPayload{}
	case models.AgentDelivery:
		target = &models.DeliveryPayload{}
	case models.AgentSpeechContent:
		target = &models.SpeechContentPayload{}
	case models.AgentAudio:
		target = &models.AudioPayload{}
	case models.AgentVoice:
		target = &models.VoicePayload{}
	case models.AgentTranscription:
		target = &models.TranscriptionPayload{}
	case models.StageCombine:
		target = &models.CombineOutput{}
	default:
		return nil, fmt.Errorf("no payload type registered for agent %q", agent)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
		TagName:          "json",
	})
	if err != nil {
		return nil, fmt.Errorf("building payload decoder: %w", err)
	}
	if err := decoder.Decode(doc); err != nil {
		return nil, fmt.Errorf("decoding payload: %w", err)
	}
	return target, nil
}

// truncateTranscript caps transcript text inlined into prompts.
func truncateTranscript(s string) string {
	if len(s) <= maxTranscriptChars {
		return s
	}
	return s[:maxTranscriptChars]
}
