package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pitchperfect/pitchperfect/internal/models"
	"github.com/pitchperfect/pitchperfect/internal/projectconfig"
	"github.com/pitchperfect/pitchperfect/internal/spinner"
)

func newEvaluateCommand() *cobra.Command {
	var (
		deckPath       string
		mediaPath      string
		transcriptPath string
		target         string
		contextNote    string
		metadata       string
		outputPath     string
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate a pitch from local files",
		Long: `Run one evaluation job directly, without the HTTP server.

At least one of --deck, --media, or --transcript is required. The finished
evaluation report is printed as JSON (or written to --output).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if deckPath == "" && mediaPath == "" && transcriptPath == "" {
				return fmt.Errorf("at least one of --deck, --media, or --transcript is required")
			}
			if metadata != "" && !json.Valid([]byte(metadata)) {
				return fmt.Errorf("--metadata must be valid JSON")
			}

			cfg, err := projectconfig.Load(".")
			if err != nil {
				return err
			}
			p, err := buildPipeline(cfg)
			if err != nil {
				return err
			}

			job := &models.Job{
				ID:        uuid.NewString(),
				Status:    models.JobPending,
				Target:    target,
				Context:   contextNote,
				CreatedAt: time.Now().UTC(),
				UpdatedAt: time.Now().UTC(),
			}
			if metadata != "" {
				job.Metadata = json.RawMessage(metadata)
			}

			if transcriptPath != "" {
				text, err := os.ReadFile(transcriptPath)
				if err != nil {
					return fmt.Errorf("reading transcript: %w", err)
				}
				job.Input.Transcript = string(text)
			}
			if deckPath != "" {
				stored, err := copyIntoStore(p, job.ID, deckPath)
				if err != nil {
					return fmt.Errorf("storing deck: %w", err)
				}
				job.Input.DeckPath = stored
				job.Input.DeckName = filepath.Base(deckPath)
			}
			if mediaPath != "" {
				stored, err := copyIntoStore(p, job.ID, mediaPath)
				if err != nil {
					return fmt.Errorf("storing media: %w", err)
				}
				job.Input.MediaPath = stored
				job.Input.MediaName = filepath.Base(mediaPath)
			}

			if err := p.store.Create(job); err != nil {
				return fmt.Errorf("creating job: %w", err)
			}

			stop := spinner.Start(os.Stderr, "evaluating pitch...")
			p.scheduler.Run(cmd.Context(), job.ID)
			stop()

			finished, err := p.store.Get(job.ID)
			if err != nil {
				return err
			}
			if finished.Status == models.JobFailed {
				return fmt.Errorf("evaluation failed: %s", finished.Error)
			}

			result, err := p.store.GetResult(job.ID)
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}

			if outputPath != "" {
				if err := os.WriteFile(outputPath, append(out, '\n'), 0o644); err != nil {
					return fmt.Errorf("writing report: %w", err)
				}
				fmt.Printf("report written to %s\n", outputPath)
				return nil
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&deckPath, "deck", "", "Path to the deck's extracted text")
	cmd.Flags().StringVar(&mediaPath, "media", "", "Path to the audio/video recording")
	cmd.Flags().StringVar(&transcriptPath, "transcript", "", "Path to a transcript text file")
	cmd.Flags().StringVar(&target, "target", "general", "Target category for the pitch")
	cmd.Flags().StringVar(&contextNote, "context", "", "Extra context for the evaluators")
	cmd.Flags().StringVar(&metadata, "metadata", "", "Metadata JSON blob, echoed into the report")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the report to a file instead of stdout")

	return cmd
}

func copyIntoStore(p *pipeline, jobID, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return p.store.SaveUpload(jobID, filepath.Base(path), data)
}
