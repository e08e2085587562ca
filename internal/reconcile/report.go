package reconcile

import (
	"fmt"
	"time"
)

// Action identifies one kind of converging operation against the tracker.
type Action string

const (
	// ActionCreate opens a new issue for an incident with no match.
	ActionCreate Action = "create"
	// ActionUpdate refreshes the body/labels of a matched open issue.
	ActionUpdate Action = "update"
	// ActionReopen reopens a closed issue for a recurring incident.
	ActionReopen Action = "reopen"
	// ActionClose closes the issue for a resolved incident.
	ActionClose Action = "close"
	// ActionRefresh updates the body of an already-closed issue.
	ActionRefresh Action = "refresh"
	// ActionBackfill creates and immediately closes an issue for a
	// resolved incident with no historical record.
	ActionBackfill Action = "backfill"
	// ActionCloseStale closes a leftover open issue matched by no
	// current incident.
	ActionCloseStale Action = "close-stale"
	// ActionSkip records that the tracker already matched the desired
	// state and no mutating call was made.
	ActionSkip Action = "in-sync"
)

// OpResult is the outcome of one per-incident operation. Failures are
// recorded here instead of aborting the batch; the driver decides the
// continuation policy.
type OpResult struct {
	Action      Action
	Key         string
	IssueNumber int
	IssueURL    string
	Err         error
}

// Mutated reports whether the operation issued at least one successful
// mutating call against the tracker.
func (r OpResult) Mutated() bool {
	return r.Err == nil && r.Action != ActionSkip
}

// Report collects the outcome of one reconciliation pass.
type Report struct {
	PassID    string
	StartedAt time.Time
	Results   []OpResult
}

// record appends an operation outcome to the report.
func (r *Report) record(result OpResult) {
	r.Results = append(r.Results, result)
}

// Mutations counts the operations that successfully mutated the tracker.
func (r *Report) Mutations() int {
	n := 0
	for _, result := range r.Results {
		if result.Mutated() {
			n++
		}
	}
	return n
}

// Failures returns the operations that failed.
func (r *Report) Failures() []OpResult {
	var failed []OpResult
	for _, result := range r.Results {
		if result.Err != nil {
			failed = append(failed, result)
		}
	}
	return failed
}

// Summary renders a one-line human-readable digest of the pass.
func (r *Report) Summary() string {
	return fmt.Sprintf("%d operation(s), %d mutation(s), %d failure(s)",
		len(r.Results), r.Mutations(), len(r.Failures()))
}
