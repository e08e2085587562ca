package reconcile

import (
	"sort"

	"github.com/akn101/statuspage/internal/identity"
	"github.com/akn101/statuspage/internal/incident"
	"github.com/akn101/statuspage/internal/tracker"
)

// candidateSet indexes one partition of tracked issues (open or closed)
// by primary and fallback key. The two maps are kept separate so a
// fallback lookup can never be satisfied by a primary entry or vice
// versa. Once an issue is matched it is removed from both maps, so it
// cannot be consumed by a second incident in the same run.
type candidateSet struct {
	primary  map[string]tracker.Issue
	fallback map[string]tracker.Issue
}

// newCandidateSet indexes issues by their derived keys. Issues yielding
// neither a primary nor a fallback key are excluded from matching
// entirely and will never be touched automatically. When two issues
// derive the same key, the first listed wins; later duplicates stay in
// the set only under their other key, if any.
func newCandidateSet(issues []tracker.Issue) *candidateSet {
	set := &candidateSet{
		primary:  make(map[string]tracker.Issue),
		fallback: make(map[string]tracker.Issue),
	}
	for _, issue := range issues {
		primaryKey := identity.IssueKey(issue)
		fallbackKey := identity.IssueFallbackKey(issue)
		if primaryKey == "" && fallbackKey == "" {
			continue
		}
		if primaryKey != "" {
			if _, taken := set.primary[primaryKey]; !taken {
				set.primary[primaryKey] = issue
			}
		}
		if fallbackKey != "" {
			if _, taken := set.fallback[fallbackKey]; !taken {
				set.fallback[fallbackKey] = issue
			}
		}
	}
	return set
}

// matchPrimary looks up and consumes the issue matching the incident's
// primary key.
func (s *candidateSet) matchPrimary(inc incident.Incident) (tracker.Issue, bool) {
	issue, ok := s.primary[identity.IncidentKey(inc)]
	if ok {
		s.remove(issue.Number)
	}
	return issue, ok
}

// matchFallback looks up and consumes the issue matching the incident's
// fallback key.
func (s *candidateSet) matchFallback(inc incident.Incident) (tracker.Issue, bool) {
	issue, ok := s.fallback[identity.IncidentFallbackKey(inc)]
	if ok {
		s.remove(issue.Number)
	}
	return issue, ok
}

// remove drops the issue from both maps so it cannot match again.
func (s *candidateSet) remove(number int) {
	for key, issue := range s.primary {
		if issue.Number == number {
			delete(s.primary, key)
		}
	}
	for key, issue := range s.fallback {
		if issue.Number == number {
			delete(s.fallback, key)
		}
	}
}

// remaining returns the unconsumed issues in deterministic order,
// deduplicated across the two maps.
func (s *candidateSet) remaining() []tracker.Issue {
	seen := make(map[int]bool)
	var issues []tracker.Issue
	for _, issue := range s.primary {
		if !seen[issue.Number] {
			seen[issue.Number] = true
			issues = append(issues, issue)
		}
	}
	for _, issue := range s.fallback {
		if !seen[issue.Number] {
			seen[issue.Number] = true
			issues = append(issues, issue)
		}
	}
	sort.Slice(issues, func(a, b int) bool { return issues[a].Number < issues[b].Number })
	return issues
}
