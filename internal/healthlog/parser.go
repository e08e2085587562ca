// Package healthlog parses raw health-check logs into check results and
// computes per-service uptime summaries from them.
//
// Log format: one "timestamp,outcome" record per line. Timestamps are
// naive wall-clock strings recorded in GMT; a legacy variant uses "-"
// instead of "/" between date components, so separators are normalized
// before parsing. An outcome of exactly "success" counts as a success;
// any other value counts as a failure.
package healthlog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	// successOutcome is the only outcome string treated as a success.
	successOutcome = "success"

	// timestampLayout matches log timestamps after separator normalization.
	timestampLayout = "2006/01/02 15:04:05"
)

// CheckResult is one parsed health-check log record. Immutable once created.
type CheckResult struct {
	Timestamp time.Time
	Success   bool
}

// ParseTimestamp parses a log timestamp. Legacy logs substitute "-" for
// "/" between date components; both forms are accepted. The result is
// anchored to GMT, matching how the checks were recorded.
func ParseTimestamp(s string) (time.Time, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(s), "-", "/")
	ts, err := time.ParseInLocation(timestampLayout, normalized, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("unparsable timestamp %q: %w", s, err)
	}
	return ts, nil
}

// ParseLine parses a single "timestamp,outcome" record.
func ParseLine(line string) (CheckResult, error) {
	timestamp, outcome, ok := strings.Cut(line, ",")
	if !ok {
		return CheckResult{}, fmt.Errorf("missing comma in record %q", line)
	}

	ts, err := ParseTimestamp(timestamp)
	if err != nil {
		return CheckResult{}, err
	}

	return CheckResult{
		Timestamp: ts,
		Success:   strings.TrimSpace(outcome) == successOutcome,
	}, nil
}

// Parse reads a health-check log and returns its records in input order.
// The input must already be chronological; no re-sorting is performed.
//
// Blank lines are skipped. Malformed lines (missing comma, unparsable
// timestamp) are skipped with a warning rather than aborting the whole
// file, so one corrupt record cannot take down a run.
func Parse(r io.Reader, logger zerolog.Logger) ([]CheckResult, error) {
	var results []CheckResult

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		result, err := ParseLine(line)
		if err != nil {
			logger.Warn().Int("line", lineNum).Err(err).Msg("skipping malformed log line")
			continue
		}
		results = append(results, result)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log: %w", err)
	}
	return results, nil
}

// ParseFile parses the health-check log at path.
func ParseFile(path string, logger zerolog.Logger) ([]CheckResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log: %w", err)
	}
	defer f.Close()

	return Parse(f, logger.With().Str("log", path).Logger())
}
