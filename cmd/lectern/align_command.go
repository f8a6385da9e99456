package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"lectern/internal/alignment"
	"lectern/internal/books"
	"lectern/internal/textextract"
	"lectern/internal/transcripts"
)

// newAlignCommand runs the full extract-transcribe-align pipeline for one
// book synchronously and stores the result, mirroring what the daemon's
// aligning stage does for a queued job.
func newAlignCommand(ctx *commandContext) *cobra.Command {
	var outputJSON bool
	var skipSave bool

	cmd := &cobra.Command{
		Use:   "align <book-id>",
		Short: "Align a book's document against its transcript immediately",
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
			if !book.HasDocument() {
				return fmt.Errorf("book %q has no document to align against", subjectID)
			}

			extractor := textextract.NewExtractor(cfg.Extraction.MinTextChars, logger)
			doc, err := extractor.Extract(cmd.Context(), book.DocumentPath)
			if err != nil {
				return err
			}

			recognizer, cleanup := buildRecognizer(cfg, transcriptStore, logger)
			defer cleanup()

			transcript, err := recognizer.TranscribeBook(cmd.Context(), *book, nil)
			if err != nil {
				return err
			}

			aligner := alignment.NewAligner(alignment.Thresholds{
				Match:        cfg.Alignment.MatchThreshold,
				Interpolated: cfg.Alignment.InterpolatedConfidence,
				Synthetic:    cfg.Alignment.SyntheticConfidence,
			}, logger)

			result, err := aligner.Align(cmd.Context(), subjectID, doc, transcript.Sentences, transcript.IsSynthetic, book.TotalDuration())
			if err != nil {
				return err
			}

			payload, err := json.Marshal(result)
			if err != nil {
				return fmt.Errorf("encode alignment: %w", err)
			}
			if !skipSave {
				if err := transcriptStore.SaveAlignment(cmd.Context(), subjectID, payload); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if outputJSON {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(result)
			}
			fmt.Fprintf(out, "Aligned %d sentences, quality %d%%\n", len(result.Sentences), result.Quality)
			return nil
		},
	}

	cmd.Flags().BoolVar(&outputJSON, "json", false, "Print the alignment as JSON")
	cmd.Flags().BoolVar(&skipSave, "no-save", false, "Do not persist the alignment result")
	return cmd
}
