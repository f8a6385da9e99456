package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"lectern/internal/api"
	"lectern/internal/config"
	"lectern/internal/queue"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and queue status",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			status, err := fetchDaemonStatus(cmd.Context(), ctx)
			if err == nil {
				fmt.Fprintf(out, "Daemon: running (pid %d)\n", status.PID)
				if !status.Running {
					fmt.Fprintln(out, "Workflow: stopped")
				}
				if status.LastError != "" {
					fmt.Fprintf(out, "Last error: %s\n", status.LastError)
				}
				for _, stage := range status.StageHealth {
					state := "ready"
					if !stage.Ready {
						state = "not ready"
						if stage.Detail != "" {
							state = fmt.Sprintf("not ready (%s)", stage.Detail)
						}
					}
					fmt.Fprintf(out, "Stage %s: %s\n", stage.Name, state)
				}
				printQueueStats(out, status.QueueStats)
				return nil
			}

			// Daemon unreachable; fall back to the shared database.
			fmt.Fprintln(out, "Daemon: not reachable")
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				converted := make(map[string]int, len(stats))
				for status, count := range stats {
					converted[string(status)] = count
				}
				printQueueStats(out, converted)
				return nil
			})
		},
	}
}

func fetchDaemonStatus(ctx context.Context, cmdCtx *commandContext) (*api.DaemonStatus, error) {
	base, err := cmdCtx.apiBase()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/api/status", nil)
	if err != nil {
		return nil, err
	}
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("daemon returned %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	var status api.DaemonStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("decode status response: %w", err)
	}
	return &status, nil
}

func printQueueStats(out io.Writer, stats map[string]int) {
	rows := make([][]string, 0, len(stats))
	for _, status := range queue.AllStatuses() {
		count, ok := stats[string(status)]
		if !ok || count == 0 {
			continue
		}
		rows = append(rows, []string{string(status), strconv.Itoa(count)})
	}
	if len(rows) == 0 {
		fmt.Fprintln(out, "Queue is empty")
		return
	}
	table := renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
	fmt.Fprintln(out, table)
}
