// Package tracker talks to the external issue tracker that serves as
// the human-facing incident board.
//
// Conventions: every incident issue carries the "incident" category
// label plus one status label, and its title is prefixed with
// "[INCIDENT] ". The issue body follows the structured grammar defined
// in body.go.
package tracker

import (
	"context"
	"strings"
	"time"

	"github.com/akn101/statuspage/internal/incident"
)

// Label conventions for incident issues.
const (
	// LabelIncident is the category label carried by every incident issue.
	LabelIncident = "incident"
	// LabelInvestigating is the status label for open incident issues.
	LabelInvestigating = "investigating"
	// LabelResolved is the status label for resolved incident issues.
	LabelResolved = "resolved"
)

// TitlePrefix marks tracker issues as incidents.
const TitlePrefix = "[INCIDENT] "

// State filters issue listings and drives open/close transitions.
type State string

const (
	StateOpen   State = "open"
	StateClosed State = "closed"
	StateAll    State = "all"
)

// Issue is the tracker's view of an incident.
type Issue struct {
	Number    int
	State     State
	Title     string
	Body      string
	Labels    []string
	HTMLURL   string
	CreatedAt time.Time
	UpdatedAt time.Time
	ClosedAt  *time.Time
}

// IssuePatch is a partial update to an issue. Nil fields are left
// untouched by the tracker.
type IssuePatch struct {
	Body   *string
	Labels *[]string
	State  *State
}

// Client is the issue-tracker contract the reconciliation engine needs.
type Client interface {
	ListIssues(ctx context.Context, label string, state State) ([]Issue, error)
	CreateIssue(ctx context.Context, title, body string, labels []string) (*Issue, error)
	UpdateIssue(ctx context.Context, number int, patch IssuePatch) error
	AddComment(ctx context.Context, number int, body string) error
}

// IssueTitle renders the tracker title for an incident title.
func IssueTitle(incidentTitle string) string {
	return TitlePrefix + incidentTitle
}

// StripTitlePrefix recovers the incident title from a tracker title.
// The prefix is matched case-insensitively because humans retype it.
func StripTitlePrefix(title string) string {
	trimmed := strings.TrimSpace(title)
	marker := strings.TrimSpace(TitlePrefix)
	if len(trimmed) >= len(marker) && strings.EqualFold(trimmed[:len(marker)], marker) {
		return strings.TrimSpace(trimmed[len(marker):])
	}
	return trimmed
}

// IncidentLabels returns the label set for an incident: the category
// label plus one status label.
func IncidentLabels(inc incident.Incident) []string {
	status := LabelInvestigating
	if inc.IsResolved() {
		status = LabelResolved
	} else if inc.Status != "" {
		status = string(inc.Status)
	}
	return []string{LabelIncident, status}
}

// ReopenLabels is the normalized label set applied when a closed issue
// is reopened for a recurring incident.
func ReopenLabels() []string {
	return []string{LabelIncident, LabelInvestigating}
}
