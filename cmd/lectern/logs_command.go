package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"lectern/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show daemon log output",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := filepath.Join(cfg.Paths.LogDir, "lectern.log")
			out := cmd.OutOrStdout()

			if follow {
				return logs.Follow(cmd.Context(), out, path, lines, 0)
			}

			tail, _, err := logs.LastLines(path, lines)
			if err != nil {
				return err
			}
			if len(tail) == 0 {
				fmt.Fprintln(out, "No log output yet")
				return nil
			}
			for _, line := range tail {
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Stream new log lines until interrupted")
	return cmd
}
