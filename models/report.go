package models

import "time"

// Outcome classifies how a single date's acquisition session ended.
type Outcome string

const (
	// OutcomeSuccess means one or more valid records were extracted.
	OutcomeSuccess Outcome = "success"
	// OutcomeEmpty means cards were found but none yielded a valid record.
	OutcomeEmpty Outcome = "empty"
	// OutcomeInconclusive means the results container loaded but zero cards
	// matched any known locator chain — indistinguishable between "no flights
	// that day" and silent layout drift, so it is reported as its own state.
	OutcomeInconclusive Outcome = "inconclusive"
	// OutcomeFailed means a block page, timeout, or navigation error.
	OutcomeFailed Outcome = "failed"
	// OutcomeSkipped means a partition for the date already existed.
	OutcomeSkipped Outcome = "skipped"
)

// DateOutcome is the per-date entry of a run report.
type DateOutcome struct {
	Date        string
	Outcome     Outcome
	RecordCount int
	Detail      string // page title, error text, or empty
}

// RunReport aggregates the outcomes of one orchestrator run.
type RunReport struct {
	RunID     string
	Route     string
	StartedAt time.Time
	Dates     []DateOutcome
}

// Count returns how many dates ended with the given outcome.
func (r *RunReport) Count(o Outcome) int {
	n := 0
	for _, d := range r.Dates {
		if d.Outcome == o {
			n++
		}
	}
	return n
}

// Persisted reports whether at least one date produced persisted records,
// counting pre-existing partitions from earlier runs.
func (r *RunReport) Persisted() bool {
	return r.Count(OutcomeSuccess) > 0 || r.Count(OutcomeSkipped) > 0
}
