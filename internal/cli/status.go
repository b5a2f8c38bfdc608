package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"

	"github.com/vietddude/ara/internal/control"
	"github.com/vietddude/ara/internal/core/domain"
	"github.com/vietddude/ara/internal/queue"
)

var statusState string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List research tasks in the configured queue backend",
	Run:   runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusState, "state", "", "filter by state (queued, running, completed, failed)")
	rootCmd.AddCommand(statusCmd)
}

func stylelogFallback() {
	stylelog.InitDefault()
}

func runStatus(cmd *cobra.Command, args []string) {
	_ = godotenv.Load()

	cfg, err := loadConfig()
	if err != nil {
		stylelogFallback()
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	initLogging(cfg)

	app, err := control.NewApp(cfg)
	if err != nil {
		slog.Error("Failed to initialize app", "error", err)
		os.Exit(1)
	}

	var filter queue.Filter
	if statusState != "" {
		state := domain.TaskState(statusState)
		filter.State = &state
	}

	tasks, err := app.Queue().List(context.Background(), filter)
	if err != nil {
		slog.Error("Failed to list tasks", "error", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "ID\tSTATE\tTITLE\tATTEMPT\tUPDATED")

	for _, t := range tasks {
		updated := time.UnixMilli(t.UpdatedAtMs).Format(time.RFC3339)
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%s\n",
			t.ID, t.State, t.Title, t.Attempt, t.MaxAttempts, updated)
	}
	_ = w.Flush()
}
