package incident

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Ledger is the file-resident collection of incidents, partitioned into
// active and resolved. It is read once at the start of a run and wholly
// rewritten at the end; it is never patched in place.
type Ledger struct {
	Active   []Incident `json:"active"`
	Resolved []Incident `json:"resolved"`
}

// NewLedger returns an empty ledger with non-nil partitions so it
// serializes as {"active": [], "resolved": []} rather than nulls.
func NewLedger() *Ledger {
	return &Ledger{
		Active:   []Incident{},
		Resolved: []Incident{},
	}
}

// Add appends the incident to the partition matching its lifecycle shape.
func (l *Ledger) Add(inc Incident) {
	if inc.IsResolved() {
		l.Resolved = append(l.Resolved, inc)
	} else {
		l.Active = append(l.Active, inc)
	}
}

// Sort orders both partitions by date, newest first. Tie order among
// equal dates is unspecified but stable within a run.
func (l *Ledger) Sort() {
	byDateDesc := func(incidents []Incident) func(a, b int) bool {
		return func(a, b int) bool {
			return incidents[a].Date > incidents[b].Date
		}
	}
	sort.SliceStable(l.Active, byDateDesc(l.Active))
	sort.SliceStable(l.Resolved, byDateDesc(l.Resolved))
}

// LoadLedger reads a ledger from a JSON file.
func LoadLedger(path string) (*Ledger, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}

	var ledger Ledger
	if err := json.Unmarshal(data, &ledger); err != nil {
		return nil, fmt.Errorf("failed to parse ledger %s: %w", path, err)
	}
	return &ledger, nil
}

// Save writes the ledger to path as pretty-printed JSON, replacing any
// previous contents.
func (l *Ledger) Save(path string) error {
	if l.Active == nil {
		l.Active = []Incident{}
	}
	if l.Resolved == nil {
		l.Resolved = []Incident{}
	}

	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal ledger: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write ledger %s: %w", path, err)
	}
	return nil
}
