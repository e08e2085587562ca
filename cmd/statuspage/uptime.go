package main

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/akn101/statuspage/internal/config"
	"github.com/akn101/statuspage/internal/healthlog"
)

var uptimeCmd = &cobra.Command{
	Use:   "uptime",
	Short: "Report per-service uptime from the health-check logs",
	Long: `Compute availability per service from the raw health-check logs: the
overall uptime percentage plus a daily breakdown over the report window.

Examples:
  statuspage uptime

  # Wider window
  statuspage uptime --days 90`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUptime(cfg.UptimeDays)
	},
}

func init() {
	uptimeCmd.Flags().Int("days", config.DefaultUptimeDays, "Number of days to include in the daily breakdown")
	rootCmd.AddCommand(uptimeCmd)
}

func runUptime(maxDays int) error {
	snapshot, err := collectUptime(time.Now(), maxDays)
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	for _, summary := range snapshot.Payload {
		marker := green("✓")
		switch summary.Overall {
		case healthlog.NoData:
			marker = yellow("?")
		case "100.00%":
			// Fully operational.
		default:
			marker = yellow("⚠")
		}
		if down, ok := summary.ByDay[0]; ok && down < 0.3 {
			marker = red("✗")
		}
		fmt.Printf("%s %-20s %s\n", marker, summary.Service, summary.Overall)

		days := make([]int, 0, len(summary.ByDay))
		for day := range summary.ByDay {
			days = append(days, day)
		}
		sort.Ints(days)
		for _, day := range days {
			if avg := summary.ByDay[day]; avg < 1 {
				fmt.Printf("    %2dd ago: %.0f%% of checks passed\n", day, avg*100)
			}
		}
	}
	return nil
}

// collectUptime reads every service log concurrently and returns a
// timestamped snapshot. Callers that hold on to the snapshot decide
// staleness through its Fresh predicate.
func collectUptime(now time.Time, maxDays int) (healthlog.Snapshot, error) {
	services, err := healthlog.Services(cfg.LogsDir)
	if err != nil {
		return healthlog.Snapshot{}, err
	}

	summaries := make([]healthlog.UptimeSummary, len(services))
	var mu sync.Mutex
	var group errgroup.Group
	for i, service := range services {
		group.Go(func() error {
			results, err := healthlog.ParseFile(healthlog.LogPath(cfg.LogsDir, service), logger)
			if err != nil {
				return fmt.Errorf("%s: %w", service, err)
			}
			summary := healthlog.Summarize(service, results, now, maxDays)
			mu.Lock()
			summaries[i] = summary
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return healthlog.Snapshot{}, err
	}

	return healthlog.Snapshot{Payload: summaries, FetchedAt: now}, nil
}
