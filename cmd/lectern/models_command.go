package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"lectern/internal/asr"
)

func newModelsCommand(ctx *commandContext) *cobra.Command {
	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "Manage downloaded recognition models",
	}

	modelsCmd.AddCommand(newModelsEnsureCommand(ctx))
	modelsCmd.AddCommand(newModelsListCommand(ctx))

	return modelsCmd
}

func newModelsEnsureCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ensure [model...]",
		Short: "Download models that are not present locally",
		Long:  "With no arguments, ensures the configured model. Existing files are left untouched.",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			names := args
			if len(names) == 0 {
				names = []string{cfg.Engine.Model}
			}

			models := asr.NewModels(cfg.Engine.RegistryURL, cfg.ModelsDir(),
				time.Duration(cfg.Engine.DownloadTimeout)*time.Second, ctx.quietLogger())

			out := cmd.OutOrStdout()
			for _, name := range names {
				path, err := models.Ensure(cmd.Context(), name)
				if err != nil {
					return fmt.Errorf("ensure model %q: %w", name, err)
				}
				fmt.Fprintf(out, "%s: %s\n", name, path)
			}
			return nil
		},
	}
}

func newModelsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List locally downloaded models",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			entries, err := os.ReadDir(cfg.ModelsDir())
			if err != nil {
				if os.IsNotExist(err) {
					fmt.Fprintln(out, "No models downloaded")
					return nil
				}
				return err
			}

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				if entry.IsDir() || strings.HasSuffix(entry.Name(), ".tmp") {
					continue
				}
				info, err := entry.Info()
				if err != nil {
					continue
				}
				rows = append(rows, []string{
					entry.Name(),
					fmt.Sprintf("%.1f MiB", float64(info.Size())/(1<<20)),
					info.ModTime().Local().Format(time.DateTime),
				})
			}
			if len(rows) == 0 {
				fmt.Fprintln(out, "No models downloaded")
				return nil
			}

			table := renderTable([]string{"Model", "Size", "Downloaded"}, rows, []columnAlignment{alignLeft, alignRight, alignLeft})
			fmt.Fprintln(out, table)
			return nil
		},
	}
}
