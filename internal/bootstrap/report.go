package bootstrap

import (
	"time"

	"github.com/google/uuid"
	"github.com/koustreak/dbinit/internal/errs"
	"github.com/koustreak/dbinit/internal/schema"
	"github.com/koustreak/dbinit/internal/seed"
)

// Status is the overall verdict of a bootstrap run.
type Status string

const (
	// StatusOK means every step reached its end state, possibly through a
	// benign failure.
	StatusOK Status = "ok"

	// StatusDegraded means at least one step needs an operator. The host
	// still starts.
	StatusDegraded Status = "degraded"
)

// StepError records a failure the coordinator caught at its own boundary.
type StepError struct {
	Step  string `json:"step"`
	Error string `json:"error"`
}

// Report is the structured result of one bootstrap run.
type Report struct {
	RunID      string        `json:"run_id"`
	StartedAt  time.Time     `json:"started_at"`
	DurationMS int64         `json:"duration_ms"`
	Status     Status        `json:"status"`
	Severity   errs.Severity `json:"severity"`

	Schema *schema.Outcome `json:"schema,omitempty"`
	Seed   *seed.Outcome   `json:"seed,omitempty"`

	Errors []StepError `json:"errors,omitempty"`
}

func newReport(now time.Time) *Report {
	return &Report{RunID: uuid.NewString(), StartedAt: now.UTC()}
}

// finish aggregates step severities into the overall verdict.
func (r *Report) finish(end time.Time) {
	sevs := make([]errs.Severity, 0, 3)
	if r.Schema != nil {
		sevs = append(sevs, r.Schema.Severity)
	}
	if r.Seed != nil {
		sevs = append(sevs, r.Seed.Severity)
	}
	if len(r.Errors) > 0 {
		sevs = append(sevs, errs.SeverityFatal)
	}
	r.Severity = errs.Max(sevs...)

	r.Status = StatusOK
	if r.Severity > errs.SeverityBenign {
		r.Status = StatusDegraded
	}
	r.DurationMS = end.Sub(r.StartedAt).Milliseconds()
}

// Unavailable returns the degraded report for a host that could not build
// its data capability, so the startup hook still has something to surface.
func Unavailable(err error) *Report {
	now := time.Now()
	r := newReport(now)
	r.Errors = []StepError{{Step: "connect", Error: err.Error()}}
	r.finish(now)
	return r
}
