package healthlog

import (
	"fmt"
	"time"
)

// UptimeSummary is the per-service availability report derived from one
// health-check log: a per-day average keyed by days-before-now, plus an
// overall uptime percentage across every sample in the log.
type UptimeSummary struct {
	Service string

	// ByDay maps relative day (0 = today) to the average availability
	// for that day in [0, 1]. Days with no samples are absent.
	ByDay map[int]float64

	// Overall is the formatted uptime percentage across all samples,
	// e.g. "99.87%", or "--%" when the log holds no samples.
	Overall string
}

// NoData is the overall uptime rendered when a log holds no samples.
const NoData = "--%"

// Summarize folds a service's check results into daily availability
// averages relative to now. Days older than maxDays are dropped.
func Summarize(service string, results []CheckResult, now time.Time, maxDays int) UptimeSummary {
	type bucket struct {
		sum   float64
		count int
	}
	byDay := make(map[int]*bucket)

	var sum float64
	for _, result := range results {
		value := 0.0
		if result.Success {
			value = 1.0
		}
		sum += value

		relDay := relativeDays(now, result.Timestamp)
		if relDay >= maxDays {
			continue
		}
		b := byDay[relDay]
		if b == nil {
			b = &bucket{}
			byDay[relDay] = b
		}
		b.sum += value
		b.count++
	}

	summary := UptimeSummary{
		Service: service,
		ByDay:   make(map[int]float64, len(byDay)),
		Overall: NoData,
	}
	for day, b := range byDay {
		summary.ByDay[day] = b.sum / float64(b.count)
	}
	if len(results) > 0 {
		summary.Overall = fmt.Sprintf("%.2f%%", sum/float64(len(results))*100)
	}
	return summary
}

func relativeDays(now, then time.Time) int {
	diff := now.Sub(then)
	if diff < 0 {
		diff = -diff
	}
	return int(diff.Hours() / 24)
}

// Snapshot is a cached uptime report with its fetch time, owned by the
// caller. Freshness is an explicit predicate rather than an implicit
// module-level cache.
type Snapshot struct {
	Payload   []UptimeSummary
	FetchedAt time.Time
}

// Fresh reports whether the snapshot is still within its ttl at now.
func (s Snapshot) Fresh(now time.Time, ttl time.Duration) bool {
	if s.FetchedAt.IsZero() {
		return false
	}
	return now.Sub(s.FetchedAt) < ttl
}
