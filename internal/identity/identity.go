// Package identity derives matching keys for incidents and tracked
// issues.
//
// Two tiers: the primary key is exact and stable whenever the incident
// carries an ID or the issue body was authored by this system; the
// fallback key is a heuristic of service and title that tolerates
// hand-authored issues and issues predating the structured-body
// convention, preventing duplicate-issue creation in mixed-provenance
// repositories. Keys are used only for matching within a run, never
// persisted as the sole identity.
package identity

import (
	"github.com/akn101/statuspage/internal/incident"
	"github.com/akn101/statuspage/internal/tracker"
)

// IncidentKey returns the primary key for an incident: its ID when
// present, else "<service>-<startTime or date>".
func IncidentKey(inc incident.Incident) string {
	if inc.IncidentID != "" {
		return inc.IncidentID
	}
	started := inc.StartTime
	if started == "" {
		started = inc.Date
	}
	return inc.Service + "-" + started
}

// IncidentFallbackKey returns the heuristic key for an incident:
// "<service>::<title>", or just the title when no service is recorded.
func IncidentFallbackKey(inc incident.Incident) string {
	if inc.Service == "" {
		return inc.Title
	}
	return inc.Service + "::" + inc.Title
}

// IssueKey returns the primary key for a tracked issue by parsing the
// structured sections out of its body: the Incident ID field when
// present, else "<service>-<started>". Returns "" when neither is
// derivable, meaning no exact match is possible for this issue.
func IssueKey(issue tracker.Issue) string {
	parsed := tracker.ParseBody(issue.Body)
	if parsed.IncidentID != "" {
		return parsed.IncidentID
	}
	if parsed.Service != "" && parsed.Started != "" {
		return parsed.Service + "-" + parsed.Started
	}
	return ""
}

// IssueFallbackKey returns the heuristic key for a tracked issue:
// "<service>::<title>" with the incident title prefix stripped. The
// service defaults to empty when the body has none. An issue with no
// title has no heuristic identity and yields "".
func IssueFallbackKey(issue tracker.Issue) string {
	title := tracker.StripTitlePrefix(issue.Title)
	if title == "" {
		return ""
	}
	parsed := tracker.ParseBody(issue.Body)
	return parsed.Service + "::" + title
}
