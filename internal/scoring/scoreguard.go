// Package scoring applies the deterministic correction pass over the
// combine stage's output: the low-score penalty, structural minimums, and
// the narration persona contract. The pass is pure and never calls out.
package scoring

import (
	"fmt"
	"sort"

	"github.com/pitchperfect/pitchperfect/internal/models"
)

// Score penalty bounds and the threshold that arms them.
const (
	ScoreThreshold = 60
	MinPenalty     = 5
	MaxPenalty     = 15
)

// Expected structural ranges for the combined output.
const (
	minTimeline        = 6
	maxTimeline        = 10
	minRecommendations = 6
	maxRecommendations = 8
	minActions         = 3
	maxActions         = 5
)

// Result is the audit trail of one correction pass.
type Result struct {
	Adjustments []models.SummaryAdjustment
	Warnings    []string
}

// Apply corrects combine in place using the per-agent results and returns
// the audit trail. Shortfalls are recorded as warnings, never padded;
// overruns are trimmed.
func Apply(combine *models.CombineOutput, results map[models.Agent]models.AgentResult) Result {
	var res Result

	res.applyPenalty(combine, results)
	res.checkTimeline(combine)
	res.checkRecommendations(combine)
	res.checkPersonas(combine)

	return res
}

// applyPenalty deducts 5-15 points when any modality scores below the
// threshold or flags a high-severity issue. The deduction grows linearly
// with the distance below the threshold and the adjusted score never drops
// below 1. The floor takes precedence over the deduction range: when the
// proposed score is at or below the penalty, the effective deduction
// shrinks to land on 1.
func (res *Result) applyPenalty(combine *models.CombineOutput, results map[models.Agent]models.AgentResult) {
	minScore := -1
	var triggeredBy []string

	for _, agent := range models.Agents {
		r, ok := results[agent]
		if !ok || r.Status != models.InvocationOK {
			continue
		}
		if score, has := r.OverallScore(); has {
			if minScore < 0 || score < minScore {
				minScore = score
			}
			if score < ScoreThreshold {
				triggeredBy = append(triggeredBy, string(agent))
			}
		}
		if r.HighSeverity() {
			triggeredBy = append(triggeredBy, string(agent))
		}
	}

	if len(triggeredBy) == 0 {
		return
	}
	sort.Strings(triggeredBy)
	triggeredBy = dedupe(triggeredBy)

	penalty := MinPenalty
	if minScore >= 0 && minScore < ScoreThreshold {
		penalty = MinPenalty + (ScoreThreshold-minScore)/2
		if penalty > MaxPenalty {
			penalty = MaxPenalty
		}
	}

	original := combine.Summary.OverallScore
	adjusted := original - penalty
	if adjusted < 1 {
		adjusted = 1
	}
	combine.Summary.OverallScore = adjusted

	res.Adjustments = append(res.Adjustments, models.SummaryAdjustment{
		Original:    original,
		Adjusted:    adjusted,
		Penalty:     penalty,
		TriggeredBy: triggeredBy,
	})
	res.Warnings = append(res.Warnings,
		fmt.Sprintf("overall score penalized %d pts (triggered by %v)", penalty, triggeredBy))
}

func (res *Result) checkTimeline(combine *models.CombineOutput) {
	n := len(combine.Timeline)
	switch {
	case n < minTimeline:
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("timeline has %d entries (expected %d-%d)", n, minTimeline, maxTimeline))
	case n > maxTimeline:
		combine.Timeline = combine.Timeline[:maxTimeline]
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("timeline trimmed to %d entries", maxTimeline))
	}
}

func (res *Result) checkRecommendations(combine *models.CombineOutput) {
	n := len(combine.Recommendations)
	switch {
	case n < minRecommendations:
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("recommendations list has %d entries (expected %d-%d)", n, minRecommendations, maxRecommendations))
	case n > maxRecommendations:
		combine.Recommendations = combine.Recommendations[:maxRecommendations]
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("recommendations trimmed to %d entries", maxRecommendations))
	}

	for _, rec := range combine.Recommendations {
		if len(rec.Actions) < minActions || len(rec.Actions) > maxActions {
			title := rec.Title
			if title == "" {
				title = "<untitled>"
			}
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("recommendation %q has %d actions (expect %d-%d)", title, len(rec.Actions), minActions, maxActions))
		}
	}
}

// checkPersonas verifies the narration set is exactly one encouraging and
// one harsh script. Missing or unexpected personas are warned about; the
// set is never altered to satisfy the count.
func (res *Result) checkPersonas(combine *models.CombineOutput) {
	seen := map[string]int{}
	for _, vs := range combine.VoiceScripts {
		seen[vs.Persona]++
	}

	for _, want := range []string{models.PersonaEncouraging, models.PersonaHarsh} {
		switch seen[want] {
		case 0:
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("missing %q voice narration", want))
		case 1:
		default:
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("duplicate %q voice narration", want))
		}
		delete(seen, want)
	}
	for persona := range seen {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("unexpected voice narration persona %q", persona))
	}
}

func dedupe(sorted []string) []string {
	out := sorted[:0]
	for i, s := range sorted {
		if i == 0 || s != sorted[i-1] {
			out = append(out, s)
		}
	}
	return out
}
