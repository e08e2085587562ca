// Package incident defines the canonical incident record and the ledger
// file that persists it between runs.
package incident

import (
	"fmt"
	"strings"
)

// Status represents the current state of an active incident.
type Status string

const (
	StatusInvestigating Status = "investigating"
	StatusIdentified    Status = "identified"
	StatusMonitoring    Status = "monitoring"
	StatusResolved      Status = "resolved"
)

// IsValid checks if the status value is valid.
func (s Status) IsValid() bool {
	switch s {
	case StatusInvestigating, StatusIdentified, StatusMonitoring, StatusResolved:
		return true
	}
	return false
}

// Incident is the canonical unit of record for one service outage.
//
// An incident has exactly one of two lifecycle shapes: active incidents
// carry Status (and optionally ETA), resolved incidents carry a non-empty
// Resolved note. IssueNumber and IssueURL are populated only after a sync
// round-trip against the tracker, never by outage detection.
type Incident struct {
	IncidentID  string `json:"incidentId,omitempty"`
	Date        string `json:"date"`
	StartTime   string `json:"startTime,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Service     string `json:"service,omitempty"`
	URL         string `json:"url,omitempty"`

	// Active shape.
	Status Status `json:"status,omitempty"`
	ETA    string `json:"eta,omitempty"`

	// Resolved shape: "<timestamp> GMT - <reason>".
	Resolved string `json:"resolved,omitempty"`

	// Tracker linkage, set by sync only.
	IssueNumber int    `json:"issueNumber,omitempty"`
	IssueURL    string `json:"issueUrl,omitempty"`
}

// IsResolved reports whether the incident carries the resolved shape.
func (i *Incident) IsResolved() bool {
	return strings.TrimSpace(i.Resolved) != ""
}

// Validate checks that the incident has valid field values and exactly
// one lifecycle shape.
func (i *Incident) Validate() error {
	if strings.TrimSpace(i.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if strings.TrimSpace(i.Date) == "" {
		return fmt.Errorf("date is required")
	}
	if i.IsResolved() && i.Status != "" {
		return fmt.Errorf("incident cannot be both active (status %q) and resolved", i.Status)
	}
	if i.Status != "" && !i.Status.IsValid() {
		return fmt.Errorf("invalid status: %s", i.Status)
	}
	return nil
}
