// Package reconcile converges tracker state toward the incident ledger.
//
// One pass loads both views, matches them through the identity keys,
// and issues the minimal set of create/update/reopen/close operations.
// Matching is at-least-once convergent rather than exactly-once: a
// repeated pass over unchanged state issues zero mutating calls.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/akn101/statuspage/internal/identity"
	"github.com/akn101/statuspage/internal/incident"
	"github.com/akn101/statuspage/internal/tracker"
)

// staleClosureComment is attached when a leftover open issue is closed
// because no current incident matches it.
const staleClosureComment = "Service has recovered"

// Options configures a reconciliation engine.
type Options struct {
	// Pace is the minimum delay between mutating tracker calls.
	// Rate-limit courtesy, not correctness-critical. Default 500ms.
	Pace time.Duration

	// Logger receives per-operation debug output.
	Logger zerolog.Logger
}

// Engine executes reconciliation passes against a tracker.
//
// All mutating calls within a pass are strictly sequential: no call
// starts until the previous one settles. The duplicate-create decisions
// depend on the candidate maps being consumed in order, so there is no
// parallel mutation by design.
type Engine struct {
	client  tracker.Client
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// New creates an engine over the given tracker client.
func New(client tracker.Client, opts Options) *Engine {
	pace := opts.Pace
	if pace <= 0 {
		pace = 500 * time.Millisecond
	}
	return &Engine{
		client:  client,
		limiter: rate.NewLimiter(rate.Every(pace), 1),
		logger:  opts.Logger,
	}
}

// Run executes one full reconciliation pass. Active incidents are
// processed first, then resolved incidents, then leftover open issues
// are closed as stale; this order keeps an incident that is about to be
// closed from being mistaken for a stale leftover.
//
// Per-incident failures are recorded in the report and do not abort the
// batch. Only the initial issue listing is fatal.
func (e *Engine) Run(ctx context.Context, ledger *incident.Ledger) (*Report, error) {
	report := &Report{
		PassID:    uuid.NewString(),
		StartedAt: time.Now(),
	}
	logger := e.logger.With().Str("pass", report.PassID).Logger()

	openIssues, err := e.client.ListIssues(ctx, tracker.LabelIncident, tracker.StateOpen)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch open issues: %w", err)
	}
	closedIssues, err := e.client.ListIssues(ctx, tracker.LabelIncident, tracker.StateClosed)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch closed issues: %w", err)
	}

	open := newCandidateSet(openIssues)
	closed := newCandidateSet(closedIssues)
	logger.Info().
		Int("open", len(openIssues)).
		Int("closed", len(closedIssues)).
		Int("active", len(ledger.Active)).
		Int("resolved", len(ledger.Resolved)).
		Msg("starting reconciliation pass")

	for _, inc := range ledger.Active {
		report.record(e.syncActive(ctx, inc, open, closed))
	}
	for _, inc := range ledger.Resolved {
		report.record(e.syncResolved(ctx, inc, open, closed))
	}
	for _, issue := range open.remaining() {
		report.record(e.closeStale(ctx, issue))
	}

	for _, failure := range report.Failures() {
		logger.Warn().
			Str("action", string(failure.Action)).
			Str("key", failure.Key).
			Int("issue", failure.IssueNumber).
			Err(failure.Err).
			Msg("operation failed, batch continued")
	}
	logger.Info().Msg(report.Summary())
	return report, nil
}

// match resolves an incident against the open and closed candidate
// sets. Primary matches anywhere take precedence over fallback matches;
// a fallback lookup happens only when no primary match exists.
func match(inc incident.Incident, open, closed *candidateSet) (issue tracker.Issue, isOpen, ok bool) {
	if issue, ok := open.matchPrimary(inc); ok {
		return issue, true, true
	}
	if issue, ok := closed.matchPrimary(inc); ok {
		return issue, false, true
	}
	if issue, ok := open.matchFallback(inc); ok {
		return issue, true, true
	}
	if issue, ok := closed.matchFallback(inc); ok {
		return issue, false, true
	}
	return tracker.Issue{}, false, false
}

// syncActive converges the tracker for one active incident: update a
// matched open issue, reopen-and-update a matched closed issue
// (recurrence), or create a new issue.
func (e *Engine) syncActive(ctx context.Context, inc incident.Incident, open, closed *candidateSet) OpResult {
	key := identity.IncidentKey(inc)
	issue, isOpen, ok := match(inc, open, closed)
	if !ok {
		return e.create(ctx, inc, key)
	}

	if isOpen {
		return e.update(ctx, inc, key, issue)
	}
	return e.reopen(ctx, inc, key, issue)
}

// syncResolved converges the tracker for one resolved incident: close a
// matched open issue with a resolution comment, refresh a matched
// closed issue's body in place, or create-and-close for historical
// backfill.
func (e *Engine) syncResolved(ctx context.Context, inc incident.Incident, open, closed *candidateSet) OpResult {
	key := identity.IncidentKey(inc)
	issue, isOpen, ok := match(inc, open, closed)
	if !ok {
		return e.backfill(ctx, inc, key)
	}

	if isOpen {
		return e.close(ctx, inc, key, issue)
	}
	return e.refresh(ctx, inc, key, issue)
}

func (e *Engine) create(ctx context.Context, inc incident.Incident, key string) OpResult {
	result := OpResult{Action: ActionCreate, Key: key}

	if err := e.limiter.Wait(ctx); err != nil {
		result.Err = err
		return result
	}
	issue, err := e.client.CreateIssue(ctx, tracker.IssueTitle(inc.Title), tracker.RenderBody(inc), tracker.IncidentLabels(inc))
	if err != nil {
		result.Err = fmt.Errorf("create: %w", err)
		return result
	}
	result.IssueNumber = issue.Number
	result.IssueURL = issue.HTMLURL
	return result
}

func (e *Engine) update(ctx context.Context, inc incident.Incident, key string, issue tracker.Issue) OpResult {
	result := OpResult{Action: ActionUpdate, Key: key, IssueNumber: issue.Number, IssueURL: issue.HTMLURL}

	body := tracker.RenderBody(inc)
	labels := tracker.IncidentLabels(inc)
	if issue.Body == body && labelSetsEqual(issue.Labels, labels) {
		result.Action = ActionSkip
		return result
	}

	if err := e.limiter.Wait(ctx); err != nil {
		result.Err = err
		return result
	}
	if err := e.client.UpdateIssue(ctx, issue.Number, tracker.IssuePatch{Body: &body, Labels: &labels}); err != nil {
		result.Err = fmt.Errorf("update: %w", err)
	}
	return result
}

// reopen handles the recurrence case: the service went down again for
// an incident whose issue was already closed. Exactly one reopen call
// followed by exactly one update call, in that order.
func (e *Engine) reopen(ctx context.Context, inc incident.Incident, key string, issue tracker.Issue) OpResult {
	result := OpResult{Action: ActionReopen, Key: key, IssueNumber: issue.Number, IssueURL: issue.HTMLURL}

	if err := e.limiter.Wait(ctx); err != nil {
		result.Err = err
		return result
	}
	state := tracker.StateOpen
	reopenLabels := tracker.ReopenLabels()
	if err := e.client.UpdateIssue(ctx, issue.Number, tracker.IssuePatch{State: &state, Labels: &reopenLabels}); err != nil {
		result.Err = fmt.Errorf("reopen: %w", err)
		return result
	}

	if err := e.limiter.Wait(ctx); err != nil {
		result.Err = err
		return result
	}
	body := tracker.RenderBody(inc)
	labels := tracker.IncidentLabels(inc)
	if err := e.client.UpdateIssue(ctx, issue.Number, tracker.IssuePatch{Body: &body, Labels: &labels}); err != nil {
		result.Err = fmt.Errorf("update after reopen: %w", err)
	}
	return result
}

// close transitions a matched open issue to closed. The close patch
// carries the rendered body and resolved labels whenever they differ,
// so the next pass's refresh comparison finds nothing left to change.
func (e *Engine) close(ctx context.Context, inc incident.Incident, key string, issue tracker.Issue) OpResult {
	result := OpResult{Action: ActionClose, Key: key, IssueNumber: issue.Number, IssueURL: issue.HTMLURL}

	if err := e.limiter.Wait(ctx); err != nil {
		result.Err = err
		return result
	}
	state := tracker.StateClosed
	patch := tracker.IssuePatch{State: &state}
	body := tracker.RenderBody(inc)
	if issue.Body != body {
		patch.Body = &body
	}
	labels := tracker.IncidentLabels(inc)
	if !labelSetsEqual(issue.Labels, labels) {
		patch.Labels = &labels
	}
	if err := e.client.UpdateIssue(ctx, issue.Number, patch); err != nil {
		result.Err = fmt.Errorf("close: %w", err)
		return result
	}

	if inc.Resolved == "" {
		return result
	}
	if err := e.limiter.Wait(ctx); err != nil {
		result.Err = err
		return result
	}
	if err := e.client.AddComment(ctx, issue.Number, "**Resolved:** "+inc.Resolved); err != nil {
		result.Err = fmt.Errorf("resolution comment: %w", err)
	}
	return result
}

// refresh is the idempotent row: the incident is resolved and its issue
// already closed. Only the body is updated, preserving state and
// labels, and only when the body actually changed.
func (e *Engine) refresh(ctx context.Context, inc incident.Incident, key string, issue tracker.Issue) OpResult {
	result := OpResult{Action: ActionRefresh, Key: key, IssueNumber: issue.Number, IssueURL: issue.HTMLURL}

	body := tracker.RenderBody(inc)
	if issue.Body == body {
		result.Action = ActionSkip
		return result
	}

	if err := e.limiter.Wait(ctx); err != nil {
		result.Err = err
		return result
	}
	if err := e.client.UpdateIssue(ctx, issue.Number, tracker.IssuePatch{Body: &body}); err != nil {
		result.Err = fmt.Errorf("refresh: %w", err)
	}
	return result
}

// backfill creates the historical record for a resolved incident with
// no issue at all: create, then immediately close.
func (e *Engine) backfill(ctx context.Context, inc incident.Incident, key string) OpResult {
	result := OpResult{Action: ActionBackfill, Key: key}

	if err := e.limiter.Wait(ctx); err != nil {
		result.Err = err
		return result
	}
	issue, err := e.client.CreateIssue(ctx, tracker.IssueTitle(inc.Title), tracker.RenderBody(inc), tracker.IncidentLabels(inc))
	if err != nil {
		result.Err = fmt.Errorf("backfill create: %w", err)
		return result
	}
	result.IssueNumber = issue.Number
	result.IssueURL = issue.HTMLURL

	if err := e.closeWithComment(ctx, issue.Number, inc.Resolved); err != nil {
		result.Err = fmt.Errorf("backfill: %w", err)
	}
	return result
}

func (e *Engine) closeStale(ctx context.Context, issue tracker.Issue) OpResult {
	key := identity.IssueKey(issue)
	if key == "" {
		key = identity.IssueFallbackKey(issue)
	}
	result := OpResult{Action: ActionCloseStale, Key: key, IssueNumber: issue.Number, IssueURL: issue.HTMLURL}

	if err := e.closeWithComment(ctx, issue.Number, staleClosureComment); err != nil {
		result.Err = err
	}
	return result
}

// closeWithComment closes an issue and, when resolution is non-empty,
// attaches a resolution comment.
func (e *Engine) closeWithComment(ctx context.Context, number int, resolution string) error {
	if err := e.limiter.Wait(ctx); err != nil {
		return err
	}
	state := tracker.StateClosed
	if err := e.client.UpdateIssue(ctx, number, tracker.IssuePatch{State: &state}); err != nil {
		return fmt.Errorf("close: %w", err)
	}

	if resolution == "" {
		return nil
	}
	if err := e.limiter.Wait(ctx); err != nil {
		return err
	}
	if err := e.client.AddComment(ctx, number, "**Resolved:** "+resolution); err != nil {
		return fmt.Errorf("resolution comment: %w", err)
	}
	return nil
}

// labelSetsEqual compares two label sets ignoring order.
func labelSetsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]int, len(a))
	for _, label := range a {
		set[label]++
	}
	for _, label := range b {
		set[label]--
		if set[label] < 0 {
			return false
		}
	}
	return true
}
