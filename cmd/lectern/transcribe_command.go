package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"lectern/internal/asr"
	"lectern/internal/books"
	"lectern/internal/config"
	"lectern/internal/transcripts"
)

// newTranscribeCommand transcribes one book synchronously, bypassing the
// daemon queue. Chapter transcripts still land in the shared cache, so a
// later queued job reuses them.
func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var outputJSON bool
	var fresh bool

	cmd := &cobra.Command{
		Use:   "transcribe <book-id>",
		Short: "Transcribe a book immediately",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			subjectID := args[0]
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.quietLogger()

			transcriptStore, err := transcripts.Open(cfg)
			if err != nil {
				return fmt.Errorf("open transcript store: %w", err)
			}
			defer transcriptStore.Close()

			resolver := books.NewManifestResolver(cfg.Paths.LibraryDir)
			book, err := resolver.Resolve(cmd.Context(), subjectID)
			if err != nil {
				return fmt.Errorf("resolve book %q: %w", subjectID, err)
			}

			out := cmd.OutOrStdout()
			if fresh {
				dropped, err := transcriptStore.InvalidateBook(cmd.Context(), subjectID)
				if err != nil {
					return fmt.Errorf("invalidate cached transcripts: %w", err)
				}
				if dropped > 0 && !outputJSON {
					fmt.Fprintf(out, "Dropped %d cached chapter transcripts\n", dropped)
				}
				// A stored alignment was built from the old transcript.
				if err := transcriptStore.DeleteAlignment(cmd.Context(), subjectID); err != nil {
					return fmt.Errorf("drop stored alignment: %w", err)
				}
			}

			recognizer, cleanup := buildRecognizer(cfg, transcriptStore, logger)
			defer cleanup()

			progress := func(percent float64, message string) {
				if !outputJSON {
					fmt.Fprintf(out, "[%3.0f%%] %s\n", percent, message)
				}
			}

			transcript, err := recognizer.TranscribeBook(cmd.Context(), *book, progress)
			if err != nil {
				return err
			}

			if outputJSON {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(transcript)
			}

			fmt.Fprintf(out, "Transcribed %d sentences across %d chapters\n", len(transcript.Sentences), len(book.Chapters))
			if transcript.IsSynthetic {
				fmt.Fprintln(out, "No recognition engine was available; timings are synthetic estimates")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&outputJSON, "json", false, "Print the transcript as JSON")
	cmd.Flags().BoolVar(&fresh, "fresh", false, "Drop cached chapter transcripts and transcribe from scratch")
	return cmd
}

func buildRecognizer(cfg *config.Config, store *transcripts.Store, logger *slog.Logger) (*asr.Recognizer, func()) {
	selector := asr.NewSelector(cfg.Engine.Backend, cfg.Engine.Variant)
	models := asr.NewModels(cfg.Engine.RegistryURL, cfg.ModelsDir(),
		time.Duration(cfg.Engine.DownloadTimeout)*time.Second, logger)
	provider := asr.NewProvider(models, selector, cfg.Engine.Language, logger)
	recognizer := asr.NewRecognizer(provider, store, cfg.Engine.Model, cfg.Engine.SyntheticSentenceSeconds, logger)
	return recognizer, func() { provider.Close() }
}
