package scheduling

import (
	"log/slog"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

// TemplateFailure records why one template could not be processed.
type TemplateFailure struct {
	TemplateID uuid.UUID
	Err        error
}

// BatchReport summarises one BatchRun.
type BatchReport struct {
	Date civil.Date

	// Considered is the number of candidate templates loaded.
	Considered int
	// Processed counts templates that ran to an outcome; it is lower than
	// Considered only when the run was cancelled.
	Processed int
	Created   int
	Skipped   int
	NotDue    int
	Failed    int
	Failures  []TemplateFailure

	// Cancelled is set when the parent context ended before every
	// candidate was scheduled.
	Cancelled bool

	StartedAt  time.Time
	FinishedAt time.Time
}

// Due is the number of templates whose recurrence matched the date.
func (r *BatchReport) Due() int {
	return r.Created + r.Skipped + r.Failed
}

func (r *BatchReport) record(id uuid.UUID, out outcome, err error) {
	r.Processed++
	switch out {
	case outcomeCreated:
		r.Created++
	case outcomeSkipped:
		r.Skipped++
	case outcomeNotDue, outcomeInactive:
		r.NotDue++
	case outcomeFailed:
		r.Failed++
		r.Failures = append(r.Failures, TemplateFailure{TemplateID: id, Err: err})
	}
}

// LogValue implements slog.LogValuer.
func (r *BatchReport) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("date", r.Date.String()),
		slog.Int("considered", r.Considered),
		slog.Int("processed", r.Processed),
		slog.Int("due", r.Due()),
		slog.Int("created", r.Created),
		slog.Int("skipped", r.Skipped),
		slog.Int("not_due", r.NotDue),
		slog.Int("failed", r.Failed),
		slog.Bool("cancelled", r.Cancelled),
		slog.Duration("duration", r.FinishedAt.Sub(r.StartedAt)),
	)
}
