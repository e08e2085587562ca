package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akn101/statuspage/internal/incident"
	"github.com/akn101/statuspage/internal/tracker"
)

func TestImportLedger_OpenIssueBecomesActiveIncident(t *testing.T) {
	ft := newFakeTracker()
	ft.seed(tracker.Issue{
		Title: "[INCIDENT] api Service Disruption",
		Body: "### Incident ID\n\nsvc-123\n\n### Service\n\napi\n\n### Status\n\nidentified\n\n" +
			"### Description\n\napi went down\n\n### Estimated Resolution Time\n\n2024-01-01T12:00:00Z\n\n" +
			"---\n\nStarted: 2024-01-01 08:00:00\n",
		HTMLURL: "https://example.com/1",
	})

	registry := map[string]string{"api": "https://api.example.com"}
	ledger, err := ImportLedger(context.Background(), ft, registry, zerolog.Nop())
	require.NoError(t, err)

	require.Len(t, ledger.Active, 1)
	assert.Empty(t, ledger.Resolved)

	inc := ledger.Active[0]
	assert.Equal(t, "svc-123", inc.IncidentID)
	assert.Equal(t, "api", inc.Service)
	assert.Equal(t, "api Service Disruption", inc.Title)
	assert.Equal(t, "api went down", inc.Description)
	assert.Equal(t, "2024-01-01", inc.Date)
	assert.Equal(t, "2024-01-01 08:00:00", inc.StartTime)
	assert.Equal(t, incident.Status("identified"), inc.Status)
	assert.Equal(t, "2024-01-01T12:00:00Z", inc.ETA)
	assert.Equal(t, "https://api.example.com", inc.URL)
	assert.Equal(t, 1, inc.IssueNumber)
	assert.Equal(t, "https://example.com/1", inc.IssueURL)
}

func TestImportLedger_ClosedIssueBecomesResolvedIncident(t *testing.T) {
	closedAt := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	ft := newFakeTracker()
	ft.seed(tracker.Issue{
		State: tracker.StateClosed,
		Title: "[INCIDENT] db Extended Outage",
		Body: "### Service\n\ndb\n\n### Description\n\ndb was unreachable\n\n" +
			"### Resolution Details\n\nfailover completed\n\n---\n\nStarted: 2024-01-01\n",
		ClosedAt: &closedAt,
	})

	ledger, err := ImportLedger(context.Background(), ft, nil, zerolog.Nop())
	require.NoError(t, err)

	require.Len(t, ledger.Resolved, 1)
	assert.Empty(t, ledger.Active)

	inc := ledger.Resolved[0]
	assert.Equal(t, "db-2024-01-01", inc.IncidentID)
	assert.Equal(t, "2024-01-02 09:30:00 GMT - failover completed", inc.Resolved)
	assert.Empty(t, inc.Status)
	assert.Empty(t, inc.ETA)
}

func TestImportLedger_HandAuthoredIssueFallbacks(t *testing.T) {
	created := time.Date(2024, 3, 5, 14, 0, 0, 0, time.UTC)
	ft := newFakeTracker()
	ft.seed(tracker.Issue{
		Title:     "[INCIDENT] web - checking reports",
		Body:      "someone wrote this by hand",
		CreatedAt: created,
		UpdatedAt: created,
	})

	ledger, err := ImportLedger(context.Background(), ft, nil, zerolog.Nop())
	require.NoError(t, err)

	require.Len(t, ledger.Active, 1)
	inc := ledger.Active[0]

	// Service recovered from the title, start time from creation,
	// incident ID synthesized from both.
	assert.Equal(t, "web", inc.Service)
	assert.Equal(t, "2024-03-05T14:00:00Z", inc.StartTime)
	assert.Equal(t, "web-2024-03-05T14:00:00Z", inc.IncidentID)
	assert.Equal(t, "2024-03-05", inc.Date)
	assert.Equal(t, incident.StatusInvestigating, inc.Status)
	// No Description section: the raw title stands in.
	assert.Equal(t, "[INCIDENT] web - checking reports", inc.Description)
}

func TestImportLedger_ClosedWithoutResolutionGetsPlaceholder(t *testing.T) {
	updated := time.Date(2024, 2, 1, 18, 0, 0, 0, time.UTC)
	ft := newFakeTracker()
	ft.seed(tracker.Issue{
		State:     tracker.StateClosed,
		Title:     "[INCIDENT] api Service Disruption",
		Body:      "### Service\n\napi\n\n---\n\nStarted: 2024-01-31\n",
		UpdatedAt: updated,
	})

	ledger, err := ImportLedger(context.Background(), ft, nil, zerolog.Nop())
	require.NoError(t, err)

	require.Len(t, ledger.Resolved, 1)
	// No ClosedAt on the wire: UpdatedAt stands in for the close time.
	assert.Equal(t, "2024-02-01 18:00:00 GMT - Issue resolved", ledger.Resolved[0].Resolved)
}

func TestImportLedger_OpenBeatsClosedForSameKey(t *testing.T) {
	ft := newFakeTracker()
	body := "### Incident ID\n\nsvc-123\n\n### Service\n\napi\n\n---\n\nStarted: 2024-01-01\n"
	ft.seed(tracker.Issue{State: tracker.StateClosed, Title: "[INCIDENT] api Service Disruption", Body: body})
	open := ft.seed(tracker.Issue{State: tracker.StateOpen, Title: "[INCIDENT] api Service Disruption", Body: body})

	ledger, err := ImportLedger(context.Background(), ft, nil, zerolog.Nop())
	require.NoError(t, err)

	require.Len(t, ledger.Active, 1)
	assert.Empty(t, ledger.Resolved)
	assert.Equal(t, open.Number, ledger.Active[0].IssueNumber)
}

func TestImportLedger_NewerUpdateWinsAmongSameState(t *testing.T) {
	ft := newFakeTracker()
	body := "### Incident ID\n\nsvc-123\n\n### Service\n\napi\n\n---\n\nStarted: 2024-01-01\n"
	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(48 * time.Hour)

	ft.seed(tracker.Issue{State: tracker.StateClosed, Title: "[INCIDENT] api Service Disruption", Body: body, UpdatedAt: older})
	latest := ft.seed(tracker.Issue{State: tracker.StateClosed, Title: "[INCIDENT] api Service Disruption", Body: body, UpdatedAt: newer})

	ledger, err := ImportLedger(context.Background(), ft, nil, zerolog.Nop())
	require.NoError(t, err)

	require.Len(t, ledger.Resolved, 1)
	assert.Equal(t, latest.Number, ledger.Resolved[0].IssueNumber)
}

func TestImportLedger_SortsNewestFirst(t *testing.T) {
	ft := newFakeTracker()
	ft.seed(tracker.Issue{
		State: tracker.StateClosed,
		Title: "[INCIDENT] api Service Disruption",
		Body:  "### Service\n\napi\n\n---\n\nStarted: 2024-01-01\n",
	})
	ft.seed(tracker.Issue{
		State: tracker.StateClosed,
		Title: "[INCIDENT] db Service Disruption",
		Body:  "### Service\n\ndb\n\n---\n\nStarted: 2024-03-01\n",
	})

	ledger, err := ImportLedger(context.Background(), ft, nil, zerolog.Nop())
	require.NoError(t, err)

	require.Len(t, ledger.Resolved, 2)
	assert.Equal(t, "2024-03-01", ledger.Resolved[0].Date)
	assert.Equal(t, "2024-01-01", ledger.Resolved[1].Date)
}
