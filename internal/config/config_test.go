package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "./logs", cfg.LogsDir)
	assert.Equal(t, "./incidents.json", cfg.LedgerFile)
	assert.Equal(t, "./urls.cfg", cfg.RegistryFile)
	assert.Equal(t, 2, cfg.MinOutageDuration)
	assert.Equal(t, 2*time.Hour, cfg.ActiveLookback)
	assert.Equal(t, 500*time.Millisecond, cfg.SyncPace)
	assert.Equal(t, time.Second, cfg.BackfillPace)
	assert.Equal(t, 30, cfg.UptimeDays)
	assert.Equal(t, DefaultExcludedServices, cfg.ExcludedServices)
	assert.Empty(t, cfg.Owner)
	assert.Empty(t, cfg.Repo)
}

func TestLoad_Repository(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("repository", "acme/status")

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "acme", cfg.Owner)
	assert.Equal(t, "status", cfg.Repo)
}

func TestLoad_BadRepository(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("repository", "just-a-name")

	_, err := Load(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want owner/name")
}

func TestLoad_RejectsZeroOutageDuration(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("min-outage-duration", 0)

	_, err := Load(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 1")
}

func TestLoad_TokenFromEnv(t *testing.T) {
	t.Setenv("INCIDENT_TOKEN", "incident-token")
	t.Setenv("GITHUB_TOKEN", "github-token")

	v := viper.New()
	require.NoError(t, BindEnv(v))
	SetDefaults(v)

	cfg, err := Load(v)
	require.NoError(t, err)
	// INCIDENT_TOKEN takes precedence over GITHUB_TOKEN.
	assert.Equal(t, "incident-token", cfg.Token)
}

func TestLoad_TokenFallsBackToGitHubToken(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "github-token")

	v := viper.New()
	require.NoError(t, BindEnv(v))
	SetDefaults(v)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "github-token", cfg.Token)
}

func TestRequireTracker(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"complete", Config{Token: "t", Owner: "acme", Repo: "status"}, ""},
		{"missing token", Config{Owner: "acme", Repo: "status"}, "INCIDENT_TOKEN"},
		{"missing repository", Config{Token: "t"}, "repository is required"},
		{"missing repo half", Config{Token: "t", Owner: "acme"}, "repository is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.RequireTracker()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestExcluded(t *testing.T) {
	cfg := Config{ExcludedServices: []string{"google", "hn"}}

	assert.True(t, cfg.Excluded("google"))
	assert.True(t, cfg.Excluded("Google"))
	assert.False(t, cfg.Excluded("api"))
}

func TestSplitRepository(t *testing.T) {
	owner, repo, err := SplitRepository("acme/status")
	require.NoError(t, err)
	assert.Equal(t, "acme", owner)
	assert.Equal(t, "status", repo)

	for _, bad := range []string{"", "acme", "acme/", "/status"} {
		_, _, err := SplitRepository(bad)
		assert.Error(t, err, bad)
	}
}
