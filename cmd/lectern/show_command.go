package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"lectern/internal/alignment"
	"lectern/internal/config"
	"lectern/internal/queue"
	"lectern/internal/transcripts"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var showJSON bool

	cmd := &cobra.Command{
		Use:   "show <book-id>",
		Short: "Show the latest job and alignment for a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			subjectID := args[0]
			out := cmd.OutOrStdout()

			var job *queue.Job
			err := ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				var err error
				job, err = store.LatestBySubject(cmd.Context(), subjectID)
				return err
			})
			if err != nil {
				return err
			}

			var payload json.RawMessage
			err = ctx.withTranscripts(func(_ *config.Config, store *transcripts.Store) error {
				var err error
				payload, err = store.GetAlignment(cmd.Context(), subjectID)
				return err
			})
			if err != nil {
				return err
			}

			if showJSON {
				if payload == nil {
					return fmt.Errorf("no alignment stored for %q", subjectID)
				}
				fmt.Fprintln(out, string(payload))
				return nil
			}

			if job == nil {
				fmt.Fprintf(out, "No jobs for %q\n", subjectID)
			} else {
				fmt.Fprintf(out, "Job %d: %s (%.0f%%)\n", job.ID, job.Status, job.Progress)
				if job.StatusMessage != "" {
					fmt.Fprintf(out, "  %s\n", job.StatusMessage)
				}
				if job.ErrorMessage != "" {
					fmt.Fprintf(out, "  Error: %s\n", job.ErrorMessage)
				}
				fmt.Fprintf(out, "  Updated %s\n", job.UpdatedAt.Local().Format(time.DateTime))
			}

			if payload == nil {
				fmt.Fprintln(out, "No alignment stored")
				return nil
			}

			var result alignment.Result
			if err := json.Unmarshal(payload, &result); err != nil {
				return fmt.Errorf("decode stored alignment: %w", err)
			}

			counts := map[string]int{}
			for _, sentence := range result.Sentences {
				counts[sentence.AlignmentType]++
			}

			fmt.Fprintf(out, "Alignment: %d sentences, quality %d%%\n", len(result.Sentences), result.Quality)
			if result.IsSynthetic {
				fmt.Fprintln(out, "  Transcript is synthetic; timings are estimates")
			}
			fmt.Fprintf(out, "  Matched %d, interpolated %d, time-based %d, unmatched %d\n",
				counts[alignment.TypeMatched],
				counts[alignment.TypeInterpolated],
				counts[alignment.TypeTimeBased],
				counts[alignment.TypeUnmatched],
			)
			fmt.Fprintf(out, "  Duration %.1fs, aligned %s\n", result.TotalDuration, result.CreatedAt.Local().Format(time.DateTime))
			return nil
		},
	}

	cmd.Flags().BoolVar(&showJSON, "json", false, "Print the raw alignment JSON")
	return cmd
}
