package verify

import (
	"fmt"
	"strings"
	"time"
)

// Category groups related metadata fields under one comparison policy.
type Category string

const (
	CategoryDateTime Category = "date_time"
	CategoryGPS      Category = "gps"
	CategoryCamera   Category = "camera"
	CategoryVideo    Category = "video"
	CategoryAudio    Category = "audio"
)

// AllCategories in engine evaluation order.
func AllCategories() []Category {
	return []Category{CategoryDateTime, CategoryGPS, CategoryCamera, CategoryVideo, CategoryAudio}
}

// Status is the outcome of one field check.
type Status string

const (
	StatusPassed          Status = "passed"
	StatusFailed          Status = "failed"
	StatusMissingInSource Status = "missing_in_source"
	StatusMissingInDest   Status = "missing_in_dest"
	StatusError           Status = "error"
)

// CheckResult records the comparison of one field.
type CheckResult struct {
	Category  Category `json:"category"`
	Field     string   `json:"field"`
	Status    Status   `json:"status"`
	Original  string   `json:"original,omitempty"`
	Converted string   `json:"converted,omitempty"`
	Tolerance string   `json:"tolerance,omitempty"`
	Details   string   `json:"details,omitempty"`
}

// Passed is true iff the check's status is passed.
func (c CheckResult) Passed() bool { return c.Status == StatusPassed }

// Result is the outcome of one verification run. Immutable once returned;
// persisting or exporting it is the caller's concern.
type Result struct {
	Passed     bool          `json:"passed"`
	Original   string        `json:"original"`
	Converted  string        `json:"converted"`
	Checks     []CheckResult `json:"checks"`
	Timestamp  time.Time     `json:"timestamp"`
	Tolerances Tolerances    `json:"tolerances"`
}

// Failed returns only the checks that did not pass.
func (r Result) Failed() []CheckResult {
	var out []CheckResult
	for _, c := range r.Checks {
		if !c.Passed() {
			out = append(out, c)
		}
	}
	return out
}

// PassedChecks returns only the checks that passed.
func (r Result) PassedChecks() []CheckResult {
	var out []CheckResult
	for _, c := range r.Checks {
		if c.Passed() {
			out = append(out, c)
		}
	}
	return out
}

// ByCategory groups the checks by their category.
func (r Result) ByCategory() map[Category][]CheckResult {
	out := make(map[Category][]CheckResult)
	for _, c := range r.Checks {
		out[c.Category] = append(out[c.Category], c)
	}
	return out
}

// Summary renders a one-line human-readable outcome plus one line per failed
// check.
func (r Result) Summary() string {
	var b strings.Builder
	failed := r.Failed()
	fmt.Fprintf(&b, "%d checks, %d failed", len(r.Checks), len(failed))
	for _, c := range failed {
		fmt.Fprintf(&b, "\n  [%s] %s: %s (%s)", c.Category, c.Field, c.Status, c.Details)
	}
	return b.String()
}
