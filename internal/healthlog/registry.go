package healthlog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// reportSuffix is the naming convention for per-service log files.
const reportSuffix = "_report.log"

// ParseRegistry reads a service registry: newline-delimited "key=url"
// pairs, trimmed on both sides. Blank and malformed lines are ignored.
func ParseRegistry(r io.Reader) (map[string]string, error) {
	urls := make(map[string]string)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		key, url, ok := strings.Cut(scanner.Text(), "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		url = strings.TrimSpace(url)
		if key == "" || url == "" {
			continue
		}
		urls[key] = url
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read registry: %w", err)
	}
	return urls, nil
}

// LoadRegistry reads the service registry file at path.
func LoadRegistry(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open registry: %w", err)
	}
	defer f.Close()

	return ParseRegistry(f)
}

// LogPath returns the log file path for a service under dir.
func LogPath(dir, service string) string {
	return filepath.Join(dir, service+reportSuffix)
}

// Services lists the service names that have a log file under dir,
// sorted for deterministic processing order.
func Services(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read logs dir: %w", err)
	}

	var services []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, reportSuffix) {
			continue
		}
		services = append(services, strings.TrimSuffix(name, reportSuffix))
	}

	sort.Strings(services)
	return services, nil
}
