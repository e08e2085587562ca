package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akn101/statuspage/internal/incident"
)

func TestRenderParseRoundTrip_Active(t *testing.T) {
	inc := incident.Incident{
		IncidentID:  "svc-123",
		Date:        "2024-01-01",
		StartTime:   "2024-01-01T00:00:00Z",
		Title:       "api Service Disruption",
		Description: "api (https://api.example.com) experienced downtime starting at 2024-01-01 00:00:00 GMT.",
		Service:     "api",
		URL:         "https://api.example.com",
		Status:      incident.StatusInvestigating,
		ETA:         "2024-01-02T00:00:00Z",
	}

	parsed := ParseBody(RenderBody(inc))

	assert.Equal(t, "svc-123", parsed.IncidentID)
	assert.Equal(t, "api", parsed.Service)
	assert.Equal(t, "investigating", parsed.Status)
	assert.Equal(t, inc.Description, parsed.Description)
	assert.Equal(t, "2024-01-02T00:00:00Z", parsed.ETA)
	assert.Equal(t, "2024-01-01T00:00:00Z", parsed.Started)
	assert.Equal(t, "https://api.example.com", parsed.ServiceURL)
	assert.Empty(t, parsed.Resolution)
}

func TestRenderParseRoundTrip_Resolved(t *testing.T) {
	inc := incident.Incident{
		Date:        "2024-01-01",
		Title:       "api Service Disruption",
		Description: "api went down.",
		Service:     "api",
		Resolved:    "2024-01-01 00:10:00 GMT - Service restored",
	}

	parsed := ParseBody(RenderBody(inc))

	assert.Equal(t, "api", parsed.Service)
	assert.Equal(t, "resolved", parsed.Status)
	assert.Equal(t, "api went down.", parsed.Description)
	assert.Equal(t, "2024-01-01 00:10:00 GMT - Service restored", parsed.Resolution)
	// No start time recorded: the footer carries the date.
	assert.Equal(t, "2024-01-01", parsed.Started)
}

func TestRenderBody_OmitsOptionalSections(t *testing.T) {
	inc := incident.Incident{
		Date:        "2024-01-01",
		Title:       "api Service Disruption",
		Description: "down",
		Service:     "api",
		Status:      incident.StatusInvestigating,
	}

	body := RenderBody(inc)

	assert.NotContains(t, body, "### Incident ID")
	assert.NotContains(t, body, "### Estimated Resolution Time")
	assert.NotContains(t, body, "### Resolution Details")
	assert.NotContains(t, body, "Service URL:")
}

func TestRenderBody_UnknownService(t *testing.T) {
	body := RenderBody(incident.Incident{Date: "2024-01-01", Title: "t", Description: "d"})
	assert.Contains(t, body, "### Service\n\nUnknown\n")
}

func TestParseBody_DescriptionStopsAtNextSection(t *testing.T) {
	inc := incident.Incident{
		Date:        "2024-01-01",
		Title:       "api Service Disruption",
		Description: "line one\nline two",
		Service:     "api",
		Status:      incident.StatusInvestigating,
		ETA:         "soon",
	}

	parsed := ParseBody(RenderBody(inc))
	assert.Equal(t, "line one\nline two", parsed.Description)
}

func TestParseBody_DescriptionStopsAtFooter(t *testing.T) {
	// No optional sections between the description and the footer.
	inc := incident.Incident{
		Date:        "2024-01-01",
		Title:       "api Service Disruption",
		Description: "just the description",
		Service:     "api",
		Status:      incident.StatusInvestigating,
	}

	parsed := ParseBody(RenderBody(inc))
	assert.Equal(t, "just the description", parsed.Description)
	assert.NotContains(t, parsed.Description, "Auto-generated")
}

func TestParseBody_EmptySectionStaysEmpty(t *testing.T) {
	// A blank Description must not swallow the footer into the capture.
	body := "### Service\n\napi\n\n### Description\n\n\n---\n\n" +
		"*Auto-generated from health check logs*\n\nStarted: 2024-01-01\n"

	parsed := ParseBody(body)
	assert.Empty(t, parsed.Description)
	assert.Equal(t, "2024-01-01", parsed.Started)

	// Same for a blank section followed by another heading.
	body = "### Description\n\n\n### Status\n\ninvestigating\n"
	parsed = ParseBody(body)
	assert.Empty(t, parsed.Description)
	assert.Equal(t, "investigating", parsed.Status)
}

func TestParseBody_NoResponsePlaceholderIsAbsent(t *testing.T) {
	body := "### Service\n\napi\n\n### Status\n\ninvestigating\n\n" +
		"### Description\n\ndown\n\n### Estimated Resolution Time\n\n_No response_\n\n" +
		"### Resolution Details\n\n_No response_\n\n---\n\nStarted: 2024-01-01\n"

	parsed := ParseBody(body)
	assert.Empty(t, parsed.ETA)
	assert.Empty(t, parsed.Resolution)
	assert.Equal(t, "api", parsed.Service)
}

func TestParseBody_HandAuthored(t *testing.T) {
	parsed := ParseBody("the api is down, please fix")
	assert.Empty(t, parsed.IncidentID)
	assert.Empty(t, parsed.Service)
	assert.Empty(t, parsed.Started)
}

func TestStripTitlePrefix(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"[INCIDENT] api Service Disruption", "api Service Disruption"},
		{"[incident] api Service Disruption", "api Service Disruption"},
		{"api Service Disruption", "api Service Disruption"},
		{"  [INCIDENT]   padded  ", "padded"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StripTitlePrefix(tt.input), "input %q", tt.input)
	}
}

func TestIncidentLabels(t *testing.T) {
	active := incident.Incident{Date: "2024-01-01", Title: "t", Status: incident.StatusMonitoring}
	assert.Equal(t, []string{"incident", "monitoring"}, IncidentLabels(active))

	resolved := incident.Incident{Date: "2024-01-01", Title: "t", Resolved: "done"}
	assert.Equal(t, []string{"incident", "resolved"}, IncidentLabels(resolved))

	bare := incident.Incident{Date: "2024-01-01", Title: "t"}
	assert.Equal(t, []string{"incident", "investigating"}, IncidentLabels(bare))
}

func TestIssueTitle(t *testing.T) {
	title := IssueTitle("api Service Disruption")
	require.Equal(t, "[INCIDENT] api Service Disruption", title)
	assert.Equal(t, "api Service Disruption", StripTitlePrefix(title))
}
