package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/akn101/statuspage/internal/config"
	"github.com/akn101/statuspage/internal/healthlog"
	"github.com/akn101/statuspage/internal/incident"
	"github.com/akn101/statuspage/internal/outage"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Derive incidents from health-check logs",
	Long: `Analyze every <service>_report.log under the logs directory, group
consecutive failed checks into outage intervals, and rewrite the incident
ledger with the result.

An outage needs at least the minimum number of consecutive failures to
count. Outages whose last failure falls within the active lookback window
become active incidents (status "investigating"); everything older is
recorded as resolved. Services on the exclusion list are skipped.

Examples:
  # Default paths (./logs, ./incidents.json, ./urls.cfg)
  statuspage generate

  # Custom minimum outage length
  statuspage generate --min-outage-duration 3

  # Keep a service off the status page
  statuspage generate --exclude worldclock --exclude google`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate()
	},
}

func init() {
	generateCmd.Flags().Int("min-outage-duration", config.DefaultMinOutageDuration, "Minimum consecutive failures to count as an outage")
	generateCmd.Flags().Duration("active-lookback", config.DefaultActiveLookback, "Window within which an outage counts as active")
	generateCmd.Flags().StringSlice("exclude", config.DefaultExcludedServices, "Services to skip (repeatable)")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate() error {
	registry, err := healthlog.LoadRegistry(cfg.RegistryFile)
	if err != nil {
		return err
	}

	services, err := healthlog.Services(cfg.LogsDir)
	if err != nil {
		return err
	}

	included := services[:0:0]
	for _, service := range services {
		if cfg.Excluded(service) {
			logger.Debug().Str("service", service).Msg("service excluded from incident generation")
			continue
		}
		included = append(included, service)
	}

	fmt.Printf("Analyzing %d log file(s)...\n", len(included))

	// Log reads are side-effect-free and order-independent, so they fan
	// out concurrently; everything after this point is sequential.
	resultsByService := make(map[string][]healthlog.CheckResult, len(included))
	var mu sync.Mutex
	var group errgroup.Group
	for _, service := range included {
		group.Go(func() error {
			results, err := healthlog.ParseFile(healthlog.LogPath(cfg.LogsDir, service), logger)
			if err != nil {
				return fmt.Errorf("%s: %w", service, err)
			}
			mu.Lock()
			resultsByService[service] = results
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	now := time.Now()
	ledger := incident.NewLedger()
	for _, service := range included {
		fmt.Printf("Processing %s...\n", service)

		intervals := outage.Detect(service, resultsByService[service], cfg.MinOutageDuration)
		if len(intervals) == 0 {
			fmt.Printf("  %s No significant outages detected\n", green("✓"))
			continue
		}
		fmt.Printf("  Found %d outage(s)\n", len(intervals))

		url := registry[service]
		if url == "" {
			url = "Unknown URL"
		}

		for _, interval := range intervals {
			inc := interval.Incident(url, now, cfg.ActiveLookback)
			ledger.Add(inc)
			if inc.IsResolved() {
				fmt.Printf("  %s Resolved: %s (%s)\n", green("✓"), inc.Title, inc.Date)
			} else {
				fmt.Printf("  %s Active: %s\n", yellow("⚠"), inc.Title)
			}
		}
	}

	ledger.Sort()
	if err := ledger.Save(cfg.LedgerFile); err != nil {
		return err
	}

	fmt.Printf("\n%s Generated %s:\n", green("✓"), cfg.LedgerFile)
	fmt.Printf("   Active incidents: %d\n", len(ledger.Active))
	fmt.Printf("   Resolved incidents: %d\n", len(ledger.Resolved))
	return nil
}
