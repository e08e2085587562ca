package reconcile

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/akn101/statuspage/internal/identity"
	"github.com/akn101/statuspage/internal/incident"
	"github.com/akn101/statuspage/internal/outage"
	"github.com/akn101/statuspage/internal/tracker"
)

// serviceFromTitle recovers a service name from a bare incident title
// when the body carries no Service section: everything after the prefix
// up to the first dash or colon.
var serviceFromTitle = regexp.MustCompile(`(?i)\[INCIDENT\]\s*(.+?)(?:\s*-|\s*:|$)`)

// ImportLedger rebuilds the incident ledger from the tracker, the
// reverse of a reconciliation pass: issues become the source of truth.
// Open issues map to active incidents, closed issues to resolved ones.
//
// Issues sharing an identity key are deduplicated: an open issue beats
// a closed one, and among same-state duplicates the most recently
// updated wins.
func ImportLedger(ctx context.Context, client tracker.Client, registry map[string]string, logger zerolog.Logger) (*incident.Ledger, error) {
	issues, err := client.ListIssues(ctx, tracker.LabelIncident, tracker.StateAll)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch incident issues: %w", err)
	}
	logger.Info().Int("issues", len(issues)).Msg("importing incidents from tracker")

	type candidate struct {
		issue    tracker.Issue
		incident incident.Incident
	}
	bestByKey := make(map[string]candidate)
	var keys []string

	for _, issue := range issues {
		inc := issueToIncident(issue, registry)
		key := identity.IncidentKey(inc)

		existing, seen := bestByKey[key]
		if !seen {
			bestByKey[key] = candidate{issue, inc}
			keys = append(keys, key)
			continue
		}

		existingOpen := existing.issue.State == tracker.StateOpen
		currentOpen := issue.State == tracker.StateOpen
		if existingOpen != currentOpen {
			if currentOpen {
				bestByKey[key] = candidate{issue, inc}
			}
			continue
		}
		if issue.UpdatedAt.After(existing.issue.UpdatedAt) {
			bestByKey[key] = candidate{issue, inc}
		}
	}

	ledger := incident.NewLedger()
	for _, key := range keys {
		best := bestByKey[key]
		ledger.Add(best.incident)
		logger.Debug().
			Int("issue", best.issue.Number).
			Str("key", key).
			Bool("active", !best.incident.IsResolved()).
			Msg("imported incident")
	}
	ledger.Sort()
	return ledger, nil
}

// issueToIncident converts one tracked issue back into an incident
// record, preserving the tracker linkage.
func issueToIncident(issue tracker.Issue, registry map[string]string) incident.Incident {
	parsed := tracker.ParseBody(issue.Body)

	service := parsed.Service
	if service == "" {
		if match := serviceFromTitle.FindStringSubmatch(issue.Title); match != nil {
			service = strings.TrimSpace(match[1])
		}
	}

	startTime := parsed.Started
	if startTime == "" {
		startTime = issue.CreatedAt.UTC().Format(time.RFC3339)
	}

	incidentID := parsed.IncidentID
	if incidentID == "" {
		incidentID = service + "-" + startTime
	}

	title := tracker.StripTitlePrefix(issue.Title)
	description := parsed.Description
	if description == "" {
		description = issue.Title
	}

	inc := incident.Incident{
		IncidentID:  incidentID,
		Date:        startDate(startTime, issue.CreatedAt),
		StartTime:   startTime,
		Title:       title,
		Description: description,
		Service:     service,
		URL:         registry[service],
		IssueNumber: issue.Number,
		IssueURL:    issue.HTMLURL,
	}

	if issue.State == tracker.StateOpen {
		inc.Status = incident.StatusInvestigating
		if parsed.Status != "" {
			inc.Status = incident.Status(parsed.Status)
		}
		inc.ETA = parsed.ETA
		return inc
	}

	resolution := parsed.Resolution
	if resolution == "" {
		resolution = "Issue resolved"
	}
	closedAt := issue.UpdatedAt
	if issue.ClosedAt != nil {
		closedAt = *issue.ClosedAt
	}
	inc.Resolved = fmt.Sprintf("%s - %s", outage.FormatTimestamp(closedAt), resolution)
	return inc
}

// startDate extracts the day portion of a started value, tolerating the
// bare-date, log-timestamp, and RFC 3339 forms; createdAt is the
// fallback when none parse.
func startDate(started string, createdAt time.Time) string {
	layouts := []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}
	for _, layout := range layouts {
		if ts, err := time.Parse(layout, started); err == nil {
			return ts.UTC().Format("2006-01-02")
		}
	}
	return createdAt.UTC().Format("2006-01-02")
}
