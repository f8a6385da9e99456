package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lectern/internal/asr"
)

func newBackendCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "backend",
		Short: "Show the recognition backend this machine would use",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			selector := asr.NewSelector(cfg.Engine.Backend, cfg.Engine.Variant)
			backend := selector.Detect()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Backend: %s\n", backend.Kind)
			fmt.Fprintf(out, "GPU: %t\n", backend.GPU)
			if backend.Variant != "" {
				fmt.Fprintf(out, "Variant: %s\n", backend.Variant)
			}
			fmt.Fprintf(out, "Reason: %s\n", backend.Reason)
			return nil
		},
	}
}
