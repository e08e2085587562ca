package tracker

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/akn101/statuspage/internal/incident"
)

// The issue-body grammar: structured sections, each introduced by a
// heading, followed by a free-text footer carrying "Started:" and an
// optional "Service URL:". RenderBody and ParseBody are the single
// serialize/parse pair for this grammar; nothing else in the codebase
// pattern-matches issue bodies.
//
// Section order: Incident ID (when present), Service, Status,
// Description, Estimated Resolution Time (optional), Resolution Details
// (optional), footer.

// noResponse is the placeholder the tracker's issue forms insert for a
// skipped field. It means "absent", not a real value.
const noResponse = "_No response_"

var (
	incidentIDPattern  = regexp.MustCompile(`### Incident ID\s*\n\s*(.+)`)
	servicePattern     = regexp.MustCompile(`### Service\s*\n\s*(.+)`)
	statusPattern      = regexp.MustCompile(`### Status\s*\n\s*(.+)`)
	descriptionPattern = regexp.MustCompile(`(?s)### Description\s*\n\s*(.+?)\s*(?:\n###|\n---|\z)`)
	etaPattern         = regexp.MustCompile(`### Estimated Resolution Time\s*\n\s*(.+)`)
	resolutionPattern  = regexp.MustCompile(`(?s)### Resolution Details\s*\n\s*(.+?)\s*(?:\n###|\n---|\z)`)
	startedPattern     = regexp.MustCompile(`Started:\s*(.+)`)
	serviceURLPattern  = regexp.MustCompile(`Service URL:\s*(.+)`)
)

// ParsedBody holds the fields recovered from an issue body. Absent or
// placeholder fields are empty strings.
type ParsedBody struct {
	IncidentID  string
	Service     string
	Status      string
	Description string
	ETA         string
	Resolution  string
	Started     string
	ServiceURL  string
}

// RenderBody serializes an incident into the issue-body grammar.
func RenderBody(inc incident.Incident) string {
	var b strings.Builder

	if inc.IncidentID != "" {
		fmt.Fprintf(&b, "### Incident ID\n\n%s\n\n", inc.IncidentID)
	}

	service := inc.Service
	if service == "" {
		service = "Unknown"
	}
	fmt.Fprintf(&b, "### Service\n\n%s\n\n", service)

	status := string(inc.Status)
	if status == "" {
		if inc.IsResolved() {
			status = string(incident.StatusResolved)
		} else {
			status = string(incident.StatusInvestigating)
		}
	}
	fmt.Fprintf(&b, "### Status\n\n%s\n\n", status)
	fmt.Fprintf(&b, "### Description\n\n%s\n\n", inc.Description)

	if inc.ETA != "" {
		fmt.Fprintf(&b, "### Estimated Resolution Time\n\n%s\n\n", inc.ETA)
	}
	if inc.Resolved != "" {
		fmt.Fprintf(&b, "### Resolution Details\n\n%s\n\n", inc.Resolved)
	}

	b.WriteString("---\n\n")
	b.WriteString("*Auto-generated from health check logs*\n\n")

	started := inc.StartTime
	if started == "" {
		started = inc.Date
	}
	fmt.Fprintf(&b, "Started: %s\n", started)

	if inc.URL != "" {
		fmt.Fprintf(&b, "Service URL: %s\n", inc.URL)
	}

	return b.String()
}

// ParseBody recovers the structured fields from an issue body. Bodies
// not authored by this system yield whatever fields happen to parse;
// missing sections come back empty.
func ParseBody(body string) ParsedBody {
	parsed := ParsedBody{
		IncidentID:  extract(incidentIDPattern, body),
		Service:     extract(servicePattern, body),
		Status:      strings.ToLower(extract(statusPattern, body)),
		Description: extractBlock(descriptionPattern, body),
		ETA:         extract(etaPattern, body),
		Resolution:  extractBlock(resolutionPattern, body),
		Started:     extract(startedPattern, body),
		ServiceURL:  extract(serviceURLPattern, body),
	}
	return parsed
}

// extractBlock extracts a multi-line section. When the section is
// empty, the lazy capture spills into whatever follows; a capture
// starting with the next heading or the footer rule means the section
// held no text at all.
func extractBlock(pattern *regexp.Regexp, body string) string {
	value := extract(pattern, body)
	if strings.HasPrefix(value, "###") || strings.HasPrefix(value, "---") {
		return ""
	}
	return value
}

func extract(pattern *regexp.Regexp, body string) string {
	match := pattern.FindStringSubmatch(body)
	if match == nil {
		return ""
	}
	value := strings.TrimSpace(match[1])
	if value == noResponse {
		return ""
	}
	return value
}
