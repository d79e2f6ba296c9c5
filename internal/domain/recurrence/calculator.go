package recurrence

import (
	"cloud.google.com/go/civil"
	"github.com/phrazzld/bizops-api/internal/domain"
)

// Calculator decides whether a template is due on a given date.
type Calculator interface {
	// IsDue reports whether tmpl's recurrence pattern lands exactly on target.
	IsDue(tmpl *domain.TaskTemplate, target civil.Date) bool
}

// StepCalculator is the Calculator backed by a CalendarStep.
type StepCalculator struct {
	calendar CalendarStep
}

var _ Calculator = (*StepCalculator)(nil)

// NewCalculator creates a StepCalculator. A nil calendar selects Gregorian.
func NewCalculator(calendar CalendarStep) *StepCalculator {
	if calendar == nil {
		calendar = Gregorian{}
	}
	return &StepCalculator{calendar: calendar}
}

// IsDue implements Calculator.
//
// The search starts at the anchor (the start date, or one step past the
// watermark) and walks forward one step at a time until it reaches or passes
// target. It returns false as soon as a step fails to move the anchor forward,
// so malformed templates can never loop.
func (c *StepCalculator) IsDue(tmpl *domain.TaskTemplate, target civil.Date) bool {
	if tmpl == nil || !tmpl.InWindow(target) {
		return false
	}

	anchor, ok := c.Anchor(tmpl)
	if !ok {
		return false
	}

	for anchor.Before(target) {
		next := c.Advance(tmpl, anchor)
		if !next.After(anchor) {
			return false
		}
		anchor = next
	}

	return anchor == target
}

// Anchor returns the first candidate date for tmpl.
//
// Without a watermark the anchor is the start date. With one it is the
// watermark advanced by a single step. If the start date has been moved past
// the watermark, the series restarts from the new start date. ok is false when
// the step does not advance.
func (c *StepCalculator) Anchor(tmpl *domain.TaskTemplate) (anchor civil.Date, ok bool) {
	last := tmpl.LastGeneratedDate
	if last == nil || last.Before(tmpl.StartDate) {
		return tmpl.StartDate, true
	}

	next := c.Advance(tmpl, *last)
	if !next.After(*last) {
		return civil.Date{}, false
	}
	return next, true
}

// Advance moves d forward by one recurrence step of tmpl. Unknown recurrence
// types and non-positive intervals return d unchanged.
func (c *StepCalculator) Advance(tmpl *domain.TaskTemplate, d civil.Date) civil.Date {
	n := tmpl.RecurrenceInterval
	if n <= 0 {
		return d
	}

	switch tmpl.RecurrenceType {
	case domain.RecurrenceDaily:
		return c.calendar.AddDays(d, n)
	case domain.RecurrenceWeekly:
		return c.calendar.AddWeeks(d, n)
	case domain.RecurrenceMonthly:
		return c.calendar.AddMonths(d, n)
	case domain.RecurrenceYearly:
		return c.calendar.AddYears(d, n)
	default:
		return d
	}
}

// NextOccurrence returns the first due date on or after from, or ok=false when
// the template has no further occurrence inside its window. It is used for
// reporting and never changes the template.
func (c *StepCalculator) NextOccurrence(tmpl *domain.TaskTemplate, from civil.Date) (civil.Date, bool) {
	anchor, ok := c.Anchor(tmpl)
	if !ok {
		return civil.Date{}, false
	}

	for anchor.Before(from) {
		next := c.Advance(tmpl, anchor)
		if !next.After(anchor) {
			return civil.Date{}, false
		}
		anchor = next
	}

	if !tmpl.InWindow(anchor) {
		return civil.Date{}, false
	}
	return anchor, true
}
