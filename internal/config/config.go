// Package config resolves the runtime configuration from flags and the
// environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Defaults mirror the conventions of the health-check workflow that
// feeds this tool.
const (
	DefaultLogsDir      = "./logs"
	DefaultLedgerFile   = "./incidents.json"
	DefaultRegistryFile = "./urls.cfg"

	DefaultMinOutageDuration = 2
	DefaultActiveLookback    = 2 * time.Hour
	DefaultSyncPace          = 500 * time.Millisecond
	DefaultBackfillPace      = time.Second
	DefaultUptimeDays        = 30
)

// DefaultExcludedServices are skipped during incident generation. These
// are reference endpoints monitored for comparison, not services whose
// outages belong on the status page.
var DefaultExcludedServices = []string{"worldclock", "google", "hn", "reddit", "statsig"}

// Config is the resolved runtime configuration.
type Config struct {
	// Repository identity, "owner/name".
	Owner string
	Repo  string
	Token string

	LogsDir      string
	LedgerFile   string
	RegistryFile string

	MinOutageDuration int
	ActiveLookback    time.Duration
	SyncPace          time.Duration
	BackfillPace      time.Duration
	UptimeDays        int

	ExcludedServices []string

	Verbose bool
}

// BindEnv registers the environment bindings on v. The token honors
// INCIDENT_TOKEN first, then GITHUB_TOKEN; the repository comes from
// GITHUB_REPOSITORY as set by CI.
func BindEnv(v *viper.Viper) error {
	if err := v.BindEnv("token", "INCIDENT_TOKEN", "GITHUB_TOKEN"); err != nil {
		return fmt.Errorf("failed to bind token env: %w", err)
	}
	if err := v.BindEnv("repository", "GITHUB_REPOSITORY"); err != nil {
		return fmt.Errorf("failed to bind repository env: %w", err)
	}
	return nil
}

// SetDefaults registers the default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logs-dir", DefaultLogsDir)
	v.SetDefault("ledger", DefaultLedgerFile)
	v.SetDefault("registry", DefaultRegistryFile)
	v.SetDefault("min-outage-duration", DefaultMinOutageDuration)
	v.SetDefault("active-lookback", DefaultActiveLookback)
	v.SetDefault("sync-pace", DefaultSyncPace)
	v.SetDefault("backfill-pace", DefaultBackfillPace)
	v.SetDefault("days", DefaultUptimeDays)
	v.SetDefault("exclude", DefaultExcludedServices)
}

// Load resolves the configuration from v.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Token:             v.GetString("token"),
		LogsDir:           v.GetString("logs-dir"),
		LedgerFile:        v.GetString("ledger"),
		RegistryFile:      v.GetString("registry"),
		MinOutageDuration: v.GetInt("min-outage-duration"),
		ActiveLookback:    v.GetDuration("active-lookback"),
		SyncPace:          v.GetDuration("sync-pace"),
		BackfillPace:      v.GetDuration("backfill-pace"),
		UptimeDays:        v.GetInt("days"),
		ExcludedServices:  v.GetStringSlice("exclude"),
		Verbose:           v.GetBool("verbose"),
	}

	if repository := v.GetString("repository"); repository != "" {
		owner, repo, err := SplitRepository(repository)
		if err != nil {
			return nil, err
		}
		cfg.Owner = owner
		cfg.Repo = repo
	}

	if cfg.MinOutageDuration < 1 {
		return nil, fmt.Errorf("min-outage-duration must be at least 1 (got %d)", cfg.MinOutageDuration)
	}
	return cfg, nil
}

// RequireTracker validates the fields every tracker-touching command
// needs. Checked before any network activity so a missing token fails
// the run up front.
func (c *Config) RequireTracker() error {
	if c.Token == "" {
		return fmt.Errorf("INCIDENT_TOKEN or GITHUB_TOKEN environment variable is required")
	}
	if c.Owner == "" || c.Repo == "" {
		return fmt.Errorf("repository is required (set GITHUB_REPOSITORY or --repository, format owner/name)")
	}
	return nil
}

// Excluded reports whether a service is on the exclusion list.
// Comparison is case-insensitive.
func (c *Config) Excluded(service string) bool {
	for _, excluded := range c.ExcludedServices {
		if strings.EqualFold(service, excluded) {
			return true
		}
	}
	return false
}

// SplitRepository parses an "owner/name" repository identity.
func SplitRepository(repository string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(repository, "/")
	if !ok || owner == "" || repo == "" {
		return "", "", fmt.Errorf("invalid repository %q: want owner/name", repository)
	}
	return owner, repo, nil
}
