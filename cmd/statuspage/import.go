package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/akn101/statuspage/internal/healthlog"
	"github.com/akn101/statuspage/internal/reconcile"
	"github.com/akn101/statuspage/internal/tracker"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Rebuild the incident ledger from tracker issues",
	Long: `Reverse sync: fetch every tracker issue labeled "incident" and rewrite
the incident ledger from them. Open issues become active incidents,
closed issues become resolved ones.

Issues sharing an identity key are deduplicated: an open issue wins over
a closed one, and among same-state duplicates the most recently updated
wins. Use this after humans have edited incidents on the tracker side.

Examples:
  statuspage import`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(ctx context.Context) error {
	if err := cfg.RequireTracker(); err != nil {
		return err
	}

	registry, err := healthlog.LoadRegistry(cfg.RegistryFile)
	if err != nil {
		return err
	}

	client := tracker.NewGitHubClient(cfg.Owner, cfg.Repo, cfg.Token, tracker.WithLogger(logger))

	fmt.Println("Fetching incidents from GitHub Issues...")
	ledger, err := reconcile.ImportLedger(ctx, client, registry, logger)
	if err != nil {
		return err
	}

	for _, inc := range ledger.Active {
		fmt.Printf("  Active: #%d - %s\n", inc.IssueNumber, inc.Title)
	}
	for _, inc := range ledger.Resolved {
		fmt.Printf("  Resolved: #%d - %s\n", inc.IssueNumber, inc.Title)
	}

	if err := ledger.Save(cfg.LedgerFile); err != nil {
		return err
	}

	green := color.New(color.FgGreen).SprintFunc()
	fmt.Printf("\n%s Synced %d active and %d resolved incidents to %s\n",
		green("✓"), len(ledger.Active), len(ledger.Resolved), cfg.LedgerFile)
	return nil
}
