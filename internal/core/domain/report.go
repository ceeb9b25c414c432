package domain

import (
	"sort"
	"sync"
	"time"
)

// Outcome classifies what happened to one unit of harvesting work.
type Outcome string

const (
	OutcomeSaved   Outcome = "saved"
	OutcomeSkipped Outcome = "skipped"
	OutcomeAbsent  Outcome = "absent"
	OutcomeFailed  Outcome = "failed"
)

// HarvestReport summarises one harvesting pass.
// Counters are keyed by phase name, e.g. "issue_comments".
type HarvestReport struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time

	mu       sync.Mutex
	counters map[string]map[Outcome]int
}

// NewHarvestReport creates an empty report.
func NewHarvestReport(runID string, startedAt time.Time) *HarvestReport {
	return &HarvestReport{
		RunID:     runID,
		StartedAt: startedAt,
		counters:  make(map[string]map[Outcome]int),
	}
}

// Record counts one outcome for a phase.
func (r *HarvestReport) Record(phase string, outcome Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.counters[phase]
	if !ok {
		m = make(map[Outcome]int)
		r.counters[phase] = m
	}
	m[outcome]++
}

// Count returns the number of outcomes recorded for a phase.
func (r *HarvestReport) Count(phase string, outcome Outcome) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counters[phase][outcome]
}

// Total returns the number of outcomes of one kind across all phases.
func (r *HarvestReport) Total(outcome Outcome) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.counters {
		n += m[outcome]
	}
	return n
}

// Phases returns the phase names that have recorded outcomes, sorted.
func (r *HarvestReport) Phases() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.counters))
	for p := range r.counters {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
