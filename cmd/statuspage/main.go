// Command statuspage maintains a public incident record: it derives
// incidents from health-check logs and keeps them synchronized with the
// GitHub issues that serve as the human-facing incident board.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/akn101/statuspage/internal/config"
)

var (
	cfg    *config.Config
	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "statuspage",
	Short: "Incident pipeline for health-check driven status pages",
	Long: `statuspage maintains a public incident record for monitored services.

It derives discrete outage events from raw health-check logs, keeps them
in a local incident ledger (incidents.json), and synchronizes that ledger
bidirectionally with GitHub issues labeled "incident".

Typical flow:
  statuspage generate   # logs -> incidents.json
  statuspage sync       # incidents.json -> GitHub issues (convergent)
  statuspage import     # GitHub issues -> incidents.json (reverse)`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		v := viper.GetViper()
		if err := v.BindPFlags(cmd.Flags()); err != nil {
			return fmt.Errorf("failed to bind flags: %w", err)
		}
		if err := config.BindEnv(v); err != nil {
			return err
		}
		config.SetDefaults(v)

		var err error
		cfg, err = config.Load(v)
		if err != nil {
			return err
		}

		level := zerolog.InfoLevel
		if cfg.Verbose {
			level = zerolog.DebugLevel
		}
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
			Level(level).
			With().Timestamp().Logger()
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("logs-dir", config.DefaultLogsDir, "Directory holding <service>_report.log files")
	flags.String("ledger", config.DefaultLedgerFile, "Path to the incident ledger JSON file")
	flags.String("registry", config.DefaultRegistryFile, "Path to the service registry (key=url lines)")
	flags.String("repository", "", "Tracker repository as owner/name (default: $GITHUB_REPOSITORY)")
	flags.Bool("verbose", false, "Enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
