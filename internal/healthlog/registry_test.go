package healthlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRegistry(t *testing.T) {
	input := strings.Join([]string{
		"api=https://api.example.com/health",
		"  web = https://example.com  ",
		"",
		"malformed line without equals",
		"=https://no-key.example.com",
		"nokey=",
	}, "\n")

	urls, err := ParseRegistry(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"api": "https://api.example.com/health",
		"web": "https://example.com",
	}, urls)
}

func TestServices(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"api_report.log", "web_report.log", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive_report.log"), 0755))

	services, err := Services(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"api", "web"}, services)
}

func TestLogPath(t *testing.T) {
	assert.Equal(t, filepath.Join("logs", "api_report.log"), LogPath("logs", "api"))
}
