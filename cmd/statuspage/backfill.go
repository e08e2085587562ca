package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/akn101/statuspage/internal/config"
	"github.com/akn101/statuspage/internal/incident"
	"github.com/akn101/statuspage/internal/reconcile"
	"github.com/akn101/statuspage/internal/tracker"
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Create one tracker issue per ledger incident",
	Long: `One-time migration for a repository that has an incident ledger but no
issue history: create an issue for every ledger entry, closing the issues
for resolved incidents immediately after creation.

Unlike sync, backfill does not look at existing issues; running it twice
creates duplicates. Use sync for ongoing convergence.

Examples:
  statuspage backfill

  # Gentler pacing
  statuspage backfill --backfill-pace 2s`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBackfill(cmd.Context())
	},
}

func init() {
	backfillCmd.Flags().Duration("backfill-pace", config.DefaultBackfillPace, "Delay between issue creations")
	rootCmd.AddCommand(backfillCmd)
}

func runBackfill(ctx context.Context) error {
	if err := cfg.RequireTracker(); err != nil {
		return err
	}

	fmt.Printf("Reading incidents from %s...\n", cfg.LedgerFile)
	ledger, err := incident.LoadLedger(cfg.LedgerFile)
	if err != nil {
		return err
	}
	fmt.Printf("Found %d active and %d resolved incidents\n\n", len(ledger.Active), len(ledger.Resolved))

	client := tracker.NewGitHubClient(cfg.Owner, cfg.Repo, cfg.Token, tracker.WithLogger(logger))
	engine := reconcile.New(client, reconcile.Options{
		Pace:   cfg.BackfillPace,
		Logger: logger,
	})

	report := engine.Backfill(ctx, ledger)
	printReport(report)

	green := color.New(color.FgGreen).SprintFunc()
	fmt.Printf("\nNext steps:\n")
	fmt.Printf("1. Review the created issues at https://github.com/%s/%s/issues?q=label%%3Aincident\n", cfg.Owner, cfg.Repo)
	fmt.Printf("2. Run %s to keep the ledger and issues converged\n", green("statuspage sync"))
	return nil
}
