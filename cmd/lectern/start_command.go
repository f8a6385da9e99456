package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"lectern/internal/books"
	"lectern/internal/config"
	"lectern/internal/queue"
)

func newStartCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "start <book-id>",
		Short: "Queue a book for transcription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			subjectID := args[0]
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				resolver := books.NewManifestResolver(cfg.Paths.LibraryDir)
				book, err := resolver.Resolve(cmd.Context(), subjectID)
				if err != nil {
					return fmt.Errorf("resolve book %q: %w", subjectID, err)
				}

				job, err := store.Enqueue(cmd.Context(), subjectID)
				if errors.Is(err, queue.ErrSubjectBusy) {
					active, lookupErr := store.ActiveBySubject(cmd.Context(), subjectID)
					if lookupErr == nil && active != nil {
						return fmt.Errorf("book %q already has job %d in status %s", subjectID, active.ID, active.Status)
					}
					return err
				}
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Queued job %d for %q (%d chapters)\n", job.ID, book.Title, len(book.Chapters))
				if !book.HasDocument() {
					fmt.Fprintln(out, "No document found; the job will transcribe without alignment")
				}
				return nil
			})
		},
	}
}
