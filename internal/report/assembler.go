// Package report assembles the final evaluation report from everything the
// pipeline produced and persists it write-once.
package report

import (
	"fmt"
	"time"

	"github.com/pitchperfect/pitchperfect/internal/jobstore"
	"github.com/pitchperfect/pitchperfect/internal/models"
	"github.com/pitchperfect/pitchperfect/internal/scoring"
)

// Inputs carries everything the scheduler accumulated for one job.
type Inputs struct {
	Job        *models.Job
	Transcript models.TranscriptInfo
	Results    map[models.Agent]models.AgentResult
	Combine    *models.CombineOutput
	Scoring    scoring.Result
	Warnings   []string // pipeline-level warnings (transcript resolution etc.)
	Model      string
	GraphOrder []string
	Voices     map[string]string // persona -> playback voice id
}

// Assembler merges pipeline outputs into an EvaluationReport and stores it.
type Assembler struct {
	store jobstore.Store
}

// New creates an Assembler writing through store.
func New(store jobstore.Store) *Assembler {
	return &Assembler{store: store}
}

// Assemble builds the report and persists it under the job's id. A returned
// error means no report exists; the caller must fail the job.
func (a *Assembler) Assemble(in Inputs) (*models.EvaluationReport, error) {
	rep := &models.EvaluationReport{
		Version:    models.ReportVersion,
		Transcript: in.Transcript,
		Warnings:   in.Warnings,
		Meta: models.ReportMeta{
			Model:       in.Model,
			GeneratedAt: time.Now().UTC(),
			Target:      in.Job.Target,
			GraphOrder:  in.GraphOrder,
		},
	}

	if in.Combine != nil {
		rep.Summary = in.Combine.Summary
		rep.Timeline = in.Combine.Timeline
		rep.Recommendations = in.Combine.Recommendations
		rep.VoiceNarrations = in.Combine.VoiceScripts
		for i := range rep.VoiceNarrations {
			rep.VoiceNarrations[i].VoiceID = in.Voices[rep.VoiceNarrations[i].Persona]
		}
	}
	rep.SummaryAdjustments = in.Scoring.Adjustments
	rep.CombineWarnings = in.Scoring.Warnings

	for agent, result := range in.Results {
		if len(result.Warnings) > 0 {
			if rep.AgentWarnings == nil {
				rep.AgentWarnings = make(map[models.Agent][]string)
			}
			rep.AgentWarnings[agent] = result.Warnings
		}
		if result.Status != models.InvocationOK {
			continue
		}
		switch p := result.Payload.(type) {
		case *models.DeckPayload:
			rep.Deck = p
		case *models.DeliveryPayload:
			rep.Delivery = p
		case *models.SpeechContentPayload:
			rep.SpeechContent = p
		case *models.AudioPayload:
			rep.Audio = p
		case *models.VoicePayload:
			rep.Voice = p
		case *models.TranscriptionPayload:
			rep.Transcription = p
		}
	}

	if err := a.store.SaveResult(in.Job.ID, rep); err != nil {
		return nil, fmt.Errorf("persisting report for job %q: %w", in.Job.ID, err)
	}
	return rep, nil
}
