package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vietddude/ara/internal/control"
	"github.com/vietddude/ara/internal/core/domain"
	"github.com/vietddude/ara/internal/research/synth"
	"github.com/vietddude/ara/internal/research/worker"
)

var (
	runTitle  string
	runDomain string
	runKey    string
)

var runCmd = &cobra.Command{
	Use:   "run [prompt]",
	Short: "Run a single research task and print the brief",
	Args:  cobra.ExactArgs(1),
	Run:   runOnce,
}

func init() {
	runCmd.Flags().StringVar(&runTitle, "title", "Ad-hoc research run", "task title")
	runCmd.Flags().StringVar(&runDomain, "domain", "", "restrict to one domain (equities, metals, crypto, real-estate)")
	runCmd.Flags().StringVar(&runKey, "idempotency-key", "", "dedupe key; reuse returns the earlier run")
	rootCmd.AddCommand(runCmd)
}

func runOnce(cmd *cobra.Command, args []string) {
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

	task, err := app.Worker().Submit(context.Background(), worker.SubmitInput{
		Title:          runTitle,
		Prompt:         args[0],
		Domain:         domain.Domain(runDomain),
		RequestedBy:    "cli",
		IdempotencyKey: runKey,
	})
	if err != nil {
		slog.Error("Run failed", "error", err)
		os.Exit(1)
	}

	if code := reportTask(os.Stdout, task); code != 0 {
		os.Exit(code)
	}
}

// reportTask prints the outcome of a one-shot run and returns the process
// exit code. An idempotent submit can hand back a task that is still
// queued or running (a prior run on a persisted backend), so only a
// completed task carries a brief.
func reportTask(w io.Writer, task *domain.Task) int {
	switch task.State {
	case domain.TaskCompleted:
		fmt.Fprintln(w, synth.Summary(*task.Result.Brief))
		printBrief(w, task.Result.Brief)
		return 0
	case domain.TaskFailed:
		slog.Error("Task failed",
			"task", task.ID,
			"kind", task.Failure.ErrorKind,
			"adapter", task.Failure.AdapterID,
			"message", task.Failure.Message,
		)
		return 1
	default:
		fmt.Fprintf(w, "Task %s is %s; check progress with: ara status\n", task.ID, task.State)
		return 0
	}
}

func printBrief(w io.Writer, b *domain.Brief) {
	section := func(name string, findings []domain.Finding) {
		if len(findings) == 0 {
			return
		}
		fmt.Fprintf(w, "\n%s:\n", name)
		for _, f := range findings {
			fmt.Fprintf(w, "  - [%.2f] %s (%s, %s)\n", f.Confidence, f.Title, f.Domain, f.SourceModel)
		}
	}

	section("What changed", b.WhatChanged)
	section("Top opportunities", b.TopOpportunities)
	section("Top risks", b.TopRisks)
	section("Outside core focus", b.OutsideCoreFocus)

	if len(b.SectorSentiment) > 0 {
		fmt.Fprintln(w, "\nSector sentiment:")
		for _, row := range b.SectorSentiment {
			fmt.Fprintf(w, "  - %s: %s (%.2f)\n", row.Domain, row.Label, row.Score)
		}
	}

	if len(b.ActionChecklist) > 0 {
		fmt.Fprintln(w, "\nAction checklist:")
		for _, item := range b.ActionChecklist {
			fmt.Fprintf(w, "  - %s\n", item)
		}
	}
}
