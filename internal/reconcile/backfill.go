package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/akn101/statuspage/internal/identity"
	"github.com/akn101/statuspage/internal/incident"
)

// Backfill unconditionally creates one issue per ledger entry, closing
// the issues for resolved incidents immediately after creation. It is
// the one-time migration path for a repository that has a ledger but no
// issue history; regular convergence belongs to Run.
//
// Per-incident failures are recorded and the batch continues.
func (e *Engine) Backfill(ctx context.Context, ledger *incident.Ledger) *Report {
	report := &Report{
		PassID:    uuid.NewString(),
		StartedAt: time.Now(),
	}
	logger := e.logger.With().Str("pass", report.PassID).Logger()
	logger.Info().
		Int("active", len(ledger.Active)).
		Int("resolved", len(ledger.Resolved)).
		Msg("starting backfill")

	for _, inc := range ledger.Active {
		report.record(e.create(ctx, inc, identity.IncidentKey(inc)))
	}
	for _, inc := range ledger.Resolved {
		report.record(e.backfill(ctx, inc, identity.IncidentKey(inc)))
	}

	for _, failure := range report.Failures() {
		logger.Warn().
			Str("key", failure.Key).
			Err(failure.Err).
			Msg(fmt.Sprintf("backfill %s failed, batch continued", failure.Action))
	}
	logger.Info().Msg(report.Summary())
	return report
}
