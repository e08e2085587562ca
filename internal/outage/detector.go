// Package outage derives discrete outage intervals from health-check
// results and turns them into incident records.
package outage

import (
	"fmt"
	"math"
	"time"

	"github.com/akn101/statuspage/internal/healthlog"
	"github.com/akn101/statuspage/internal/incident"
)

const (
	// MinOutageDuration is the minimum number of consecutive failures
	// required for a run to count as an outage.
	MinOutageDuration = 2

	// ActiveLookback classifies an interval as active when its end falls
	// within this window of now.
	ActiveLookback = 2 * time.Hour

	// provisionalETA is the synthetic resolution estimate attached to
	// active incidents. A placeholder, not a guarantee.
	provisionalETA = 24 * time.Hour
)

// Interval is one contiguous run of failed checks for a service.
// Invariant: Start <= End and FailureCount >= 1.
type Interval struct {
	Service      string
	Start        time.Time
	End          time.Time
	FailureCount int
}

// Duration returns the span covered by the interval.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Active reports whether the interval is still ongoing: its last failure
// is within the lookback window of now. An interval ending exactly at
// now-lookback is resolved.
func (iv Interval) Active(now time.Time, lookback time.Duration) bool {
	return iv.End.After(now.Add(-lookback))
}

// Detect folds a chronological sequence of check results into outage
// intervals. Consecutive failures extend the current interval; a success
// closes it, emitting it only when the failure run reached minDuration.
// An interval still open at end-of-log is flushed with the same check.
func Detect(service string, results []healthlog.CheckResult, minDuration int) []Interval {
	var intervals []Interval
	var current *Interval

	for _, result := range results {
		if !result.Success {
			if current == nil {
				current = &Interval{
					Service:      service,
					Start:        result.Timestamp,
					End:          result.Timestamp,
					FailureCount: 1,
				}
			} else {
				current.End = result.Timestamp
				current.FailureCount++
			}
			continue
		}

		if current != nil && current.FailureCount >= minDuration {
			intervals = append(intervals, *current)
		}
		current = nil
	}

	if current != nil && current.FailureCount >= minDuration {
		intervals = append(intervals, *current)
	}

	return intervals
}

// durationMinutes returns the interval length rounded to whole minutes.
func (iv Interval) durationMinutes() int {
	return int(math.Round(iv.Duration().Minutes()))
}

// Title renders the incident title for the interval, banded by duration.
func (iv Interval) Title() string {
	minutes := iv.durationMinutes()
	switch {
	case minutes < 60:
		return fmt.Sprintf("%s Service Disruption", iv.Service)
	case minutes < 24*60:
		return fmt.Sprintf("%s Extended Outage", iv.Service)
	default:
		return fmt.Sprintf("%s Multi-Day Outage", iv.Service)
	}
}

// Description renders the human-readable incident description, mirroring
// the title's duration bands.
func (iv Interval) Description(url string) string {
	start := FormatTimestamp(iv.Start)
	minutes := iv.durationMinutes()
	switch {
	case minutes < 60:
		return fmt.Sprintf("%s (%s) experienced downtime starting at %s.", iv.Service, url, start)
	case minutes < 24*60:
		hours := int(math.Round(float64(minutes) / 60))
		return fmt.Sprintf("%s (%s) has been inaccessible for approximately %d hours since %s.", iv.Service, url, hours, start)
	default:
		days := int(math.Round(float64(minutes) / (24 * 60)))
		return fmt.Sprintf("%s (%s) has been offline for %d days since %s.", iv.Service, url, days, start)
	}
}

// FormatTimestamp renders a timestamp for display: "2006-01-02 15:04:05 GMT".
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05") + " GMT"
}

// Incident builds the canonical incident record for the interval.
// Active intervals get status "investigating" and a provisional ETA;
// resolved intervals get a service-restored resolution note.
func (iv Interval) Incident(url string, now time.Time, lookback time.Duration) incident.Incident {
	inc := incident.Incident{
		Date:        iv.Start.UTC().Format("2006-01-02"),
		Title:       iv.Title(),
		Description: iv.Description(url),
		Service:     iv.Service,
		URL:         url,
	}

	if iv.Active(now, lookback) {
		inc.Status = incident.StatusInvestigating
		inc.ETA = now.Add(provisionalETA).UTC().Format(time.RFC3339)
	} else {
		inc.Resolved = fmt.Sprintf("%s - Service restored", FormatTimestamp(iv.End))
	}
	return inc
}
