// Package workflow drives one evaluation job from pending to a terminal
// state: transcript resolution, dependency-ordered agent fan-out, the
// combine barrier, score correction, and report assembly.
package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pitchperfect/pitchperfect/internal/agents"
	"github.com/pitchperfect/pitchperfect/internal/jobstore"
	"github.com/pitchperfect/pitchperfect/internal/models"
	"github.com/pitchperfect/pitchperfect/internal/report"
	"github.com/pitchperfect/pitchperfect/internal/scoring"
	"github.com/pitchperfect/pitchperfect/internal/transcript"
)

// Errors that escalate a job to failed.
var (
	// ErrNoRunnableAgents means every agent node was skipped or failed, so
	// the combine stage has nothing to synthesize from.
	ErrNoRunnableAgents = errors.New("no agent produced a usable evaluation")
	// ErrCombineFailed means the combine stage itself failed or came back
	// malformed; no report can be assembled without it.
	ErrCombineFailed = errors.New("combine stage failed")
)

// DefaultMaxInFlight bounds concurrent external calls within one job.
const DefaultMaxInFlight = 4

// Scheduler runs jobs. Each job is processed by exactly one Run call; once
// started it always reaches a terminal state.
type Scheduler struct {
	store       jobstore.Store
	resolver    *transcript.Resolver
	executor    *agents.Executor
	assembler   *report.Assembler
	maxInFlight int
	voices      map[string]string
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithMaxInFlight overrides the concurrent external call bound.
func WithMaxInFlight(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.maxInFlight = n
		}
	}
}

// WithVoices sets the persona-to-voice-id mapping echoed into the report's
// narration scripts for playback.
func WithVoices(voices map[string]string) Option {
	return func(s *Scheduler) { s.voices = voices }
}

// New creates a Scheduler over the given collaborators.
func New(store jobstore.Store, resolver *transcript.Resolver, executor *agents.Executor, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:       store,
		resolver:    resolver,
		executor:    executor,
		assembler:   report.New(store),
		maxInFlight: DefaultMaxInFlight,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run processes one job to completion. Failures below the combine barrier
// degrade to warnings inside a completed report; combine and persistence
// failures flip the job to failed, carrying the warnings accumulated up to
// that point on the job record.
func (s *Scheduler) Run(ctx context.Context, jobID string) {
	job, err := s.store.Update(jobID, func(j *models.Job) {
		j.Status = models.JobRunning
	})
	if err != nil {
		slog.Error("cannot start job", "jobId", jobID, "error", err)
		return
	}
	slog.Info("job started", "jobId", jobID, "target", job.Target)

	if _, warnings, err := s.execute(ctx, job); err != nil {
		slog.Error("job failed", "jobId", jobID, "error", err)
		if _, updateErr := s.store.Update(jobID, func(j *models.Job) {
			j.Status = models.JobFailed
			j.Error = err.Error()
			j.Warnings = warnings
		}); updateErr != nil {
			slog.Error("cannot record job failure", "jobId", jobID, "error", updateErr)
		}
		return
	}

	if _, err := s.store.Update(jobID, func(j *models.Job) {
		j.Status = models.JobCompleted
		j.Error = ""
	}); err != nil {
		slog.Error("cannot record job completion", "jobId", jobID, "error", err)
		return
	}
	slog.Info("job completed", "jobId", jobID)
}

// execute runs the job body. The returned warnings are every degradation
// seen up to the point of return, whether the run succeeded or not.
func (s *Scheduler) execute(ctx context.Context, job *models.Job) (*models.EvaluationReport, []string, error) {
	var warnings []string

	deckText := s.loadDeckText(job, &warnings)

	transcriptInfo, resolveWarnings, err := s.resolver.Resolve(ctx, job.Input.Transcript, job.Input.MediaPath)
	warnings = append(warnings, resolveWarnings...)
	if err != nil {
		if !errors.Is(err, transcript.ErrNoTranscript) {
			return nil, warnings, fmt.Errorf("resolving transcript: %w", err)
		}
		warnings = append(warnings, "no transcript available; transcript-dependent agents skipped")
	}

	baseInput := agents.Input{
		JobID:     job.ID,
		Target:    job.Target,
		Context:   job.Context,
		Metadata:  formatMetadata(job.Metadata),
		DeckText:  deckText,
		MediaName: job.Input.MediaName,
	}
	if transcriptInfo != nil {
		baseInput.Transcript = transcriptInfo.Text
	}

	baseInput.AudioSummary = agents.PlaceholderAudioSummary
	if job.Input.MediaPath != "" {
		baseInput.MediaRef = s.uploadMedia(ctx, job, &warnings)
		summary, summaryWarnings := s.executor.SummarizeAudio(ctx, baseInput)
		baseInput.AudioSummary = summary
		warnings = append(warnings, summaryWarnings...)
	}

	scheduled := s.schedule(job, deckText, transcriptInfo, &warnings)
	if len(scheduled) == 0 {
		return nil, warnings, fmt.Errorf("%w: every agent was skipped for missing inputs", ErrNoRunnableAgents)
	}

	results, graphOrder := s.runAgents(ctx, scheduled, baseInput)

	okCount := 0
	for _, r := range results {
		if r.Status == models.InvocationOK {
			okCount++
		}
	}
	if okCount == 0 {
		for _, agent := range scheduled {
			warnings = append(warnings, results[agent].Warnings...)
		}
		return nil, warnings, fmt.Errorf("%w: %w", ErrCombineFailed, ErrNoRunnableAgents)
	}

	combineResult, combineOutput, err := s.runCombine(ctx, baseInput, results)
	graphOrder = append(graphOrder, string(models.StageCombine))
	if err != nil {
		return nil, warnings, err
	}

	scoringResult := scoring.Apply(combineOutput, results)
	scoringResult.Warnings = append(combineResult.Warnings, scoringResult.Warnings...)

	var ti models.TranscriptInfo
	if transcriptInfo != nil {
		ti = *transcriptInfo
	}

	rep, err := s.assembler.Assemble(report.Inputs{
		Job:        job,
		Transcript: ti,
		Results:    results,
		Combine:    combineOutput,
		Scoring:    scoringResult,
		Warnings:   warnings,
		Model:      s.executor.ModelID(),
		GraphOrder: graphOrder,
		Voices:     s.voices,
	})
	if err != nil {
		return nil, warnings, err
	}
	return rep, warnings, nil
}

// loadDeckText reads the deck's extracted text. A missing or unreadable
// deck degrades to skipping the deck agent.
func (s *Scheduler) loadDeckText(job *models.Job, warnings *[]string) string {
	if job.Input.DeckPath == "" {
		return ""
	}
	data, err := os.ReadFile(job.Input.DeckPath)
	if err != nil {
		slog.Warn("cannot read deck asset", "jobId", job.ID, "error", err)
		*warnings = append(*warnings, fmt.Sprintf("deck asset unreadable: %v", err))
		return ""
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		*warnings = append(*warnings, "deck asset contained no text")
	}
	return text
}

func (s *Scheduler) uploadMedia(ctx context.Context, job *models.Job, warnings *[]string) string {
	ref, err := s.executor.UploadMedia(ctx, job.ID, job.Input.MediaPath)
	if err != nil {
		slog.Warn("media upload failed", "jobId", job.ID, "error", err)
		*warnings = append(*warnings, fmt.Sprintf("media upload failed: %v", err))
		return ""
	}
	return ref
}

// schedule walks the graph and returns the agents whose inputs are all
// available, recording a skip warning for the rest.
func (s *Scheduler) schedule(job *models.Job, deckText string, ti *models.TranscriptInfo, warnings *[]string) []models.Agent {
	available := map[Requirement]bool{
		NeedDeckText:   deckText != "",
		NeedTranscript: ti != nil,
		NeedMedia:      job.Input.MediaPath != "",
	}

	var scheduled []models.Agent
	for _, node := range evaluationGraph {
		missing := ""
		for _, req := range node.Requires {
			if !available[req] {
				missing = req.String()
				break
			}
		}
		if missing != "" {
			*warnings = append(*warnings, fmt.Sprintf("agent %s skipped: no %s available", node.Agent, missing))
			continue
		}
		scheduled = append(scheduled, node.Agent)
	}
	return scheduled
}

// runAgents fans the scheduled agents out under the in-flight bound and
// returns their results plus the completion order.
func (s *Scheduler) runAgents(ctx context.Context, scheduled []models.Agent, in agents.Input) (map[models.Agent]models.AgentResult, []string) {
	results := make(map[models.Agent]models.AgentResult, len(scheduled))
	var graphOrder []string
	var mu sync.Mutex

	var eg errgroup.Group
	eg.SetLimit(s.maxInFlight)
	for _, agent := range scheduled {
		eg.Go(func() error {
			result := s.executor.Invoke(ctx, agent, in)
			mu.Lock()
			results[agent] = result
			graphOrder = append(graphOrder, string(agent))
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait() // invocations never error; they terminate in a result

	return results, graphOrder
}

// runCombine runs the full-fan-in combine stage over the successful agent
// payloads. Any non-ok outcome escalates to ErrCombineFailed.
func (s *Scheduler) runCombine(ctx context.Context, in agents.Input, results map[models.Agent]models.AgentResult) (models.AgentResult, *models.CombineOutput, error) {
	payloads := make(map[string]any)
	for agent, r := range results {
		if r.Status == models.InvocationOK {
			payloads[string(agent)] = r.Payload
		}
	}
	agentsJSON, err := json.MarshalIndent(payloads, "", "  ")
	if err != nil {
		return models.AgentResult{}, nil, fmt.Errorf("%w: encoding agent payloads: %w", ErrCombineFailed, err)
	}

	in.AgentsJSON = string(agentsJSON)
	in.DeckSummary = deckSummary(in.DeckText)

	combineResult := s.executor.Invoke(ctx, models.StageCombine, in)
	if combineResult.Status != models.InvocationOK {
		detail := strings.Join(combineResult.Warnings, "; ")
		if detail == "" {
			detail = string(combineResult.Status)
		}
		return combineResult, nil, fmt.Errorf("%w: %s", ErrCombineFailed, detail)
	}

	combineOutput, ok := combineResult.Payload.(*models.CombineOutput)
	if !ok {
		return combineResult, nil, fmt.Errorf("%w: unexpected combine payload type", ErrCombineFailed)
	}
	return combineResult, combineOutput, nil
}

// deckSummary gives the combine prompt a bounded view of the deck.
func deckSummary(deckText string) string {
	if deckText == "" {
		return "No deck uploaded."
	}
	const maxChars = 2000
	if len(deckText) <= maxChars {
		return deckText
	}
	return deckText[:maxChars]
}

func formatMetadata(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "{}"
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
