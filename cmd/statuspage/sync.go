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

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Converge GitHub issues toward the incident ledger",
	Long: `Run one reconciliation pass: load the incident ledger, fetch the
tracker issues labeled "incident", match the two via incident identity
keys, and issue the minimal set of create/update/reopen/close operations.

The pass is convergent and at-least-once: running it twice against
unchanged state performs zero mutating calls the second time. Per-incident
failures are reported and skipped; only setup failures (bad ledger,
missing token) abort the run.

Requires INCIDENT_TOKEN or GITHUB_TOKEN, and GITHUB_REPOSITORY or
--repository.

Examples:
  statuspage sync

  # Slower pacing against a busy repository
  statuspage sync --sync-pace 1s`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSync(cmd.Context())
	},
}

func init() {
	syncCmd.Flags().Duration("sync-pace", config.DefaultSyncPace, "Delay between mutating tracker calls")
	rootCmd.AddCommand(syncCmd)
}

func runSync(ctx context.Context) error {
	if err := cfg.RequireTracker(); err != nil {
		return err
	}

	fmt.Printf("Reading incidents from %s...\n", cfg.LedgerFile)
	ledger, err := incident.LoadLedger(cfg.LedgerFile)
	if err != nil {
		return err
	}

	client := tracker.NewGitHubClient(cfg.Owner, cfg.Repo, cfg.Token, tracker.WithLogger(logger))
	engine := reconcile.New(client, reconcile.Options{
		Pace:   cfg.SyncPace,
		Logger: logger,
	})

	fmt.Println("Fetching existing GitHub issues...")
	report, err := engine.Run(ctx, ledger)
	if err != nil {
		return err
	}

	printReport(report)
	fmt.Printf("\nView all incidents: https://github.com/%s/%s/issues?q=label%%3Aincident\n", cfg.Owner, cfg.Repo)
	return nil
}

// printReport renders a batch report in the per-line style of the rest
// of the CLI: one line per operation, warnings for failures, and a
// digest at the end.
func printReport(report *reconcile.Report) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	for _, result := range report.Results {
		switch {
		case result.Err != nil:
			fmt.Printf("  %s %s %s: %v\n", red("✗"), result.Action, result.Key, result.Err)
		case result.Action == reconcile.ActionSkip:
			// Quiet: nothing changed.
		case result.IssueURL != "":
			fmt.Printf("  %s %s #%d: %s\n", green("✓"), result.Action, result.IssueNumber, result.IssueURL)
		default:
			fmt.Printf("  %s %s #%d\n", green("✓"), result.Action, result.IssueNumber)
		}
	}

	if failures := report.Failures(); len(failures) > 0 {
		fmt.Printf("\n%s Completed with %d failure(s): %s\n", red("✗"), len(failures), report.Summary())
		return
	}
	fmt.Printf("\n%s Sync complete: %s\n", green("✓"), report.Summary())
}
