package recurrence

import (
	"time"

	"cloud.google.com/go/civil"
)

// CalendarStep performs calendar arithmetic on dates without a time of day.
// Implementations must return a date strictly after d for any positive n.
type CalendarStep interface {
	// AddDays returns d moved forward by n days.
	AddDays(d civil.Date, n int) civil.Date

	// AddWeeks returns d moved forward by 7*n days.
	AddWeeks(d civil.Date, n int) civil.Date

	// AddMonths returns d moved forward by n calendar months. When the target
	// month is shorter than d.Day, the result is clamped to the last day of the
	// target month: Jan 31 + 1 month is Feb 28 (Feb 29 in a leap year). The
	// clamp is not remembered, so Feb 28 + 1 month is Mar 28.
	AddMonths(d civil.Date, n int) civil.Date

	// AddYears returns d moved forward by n calendar years, clamping Feb 29 to
	// Feb 28 when the target year is not a leap year.
	AddYears(d civil.Date, n int) civil.Date
}

// Gregorian is the proleptic Gregorian CalendarStep used in production.
type Gregorian struct{}

var _ CalendarStep = Gregorian{}

// AddDays implements CalendarStep.
func (Gregorian) AddDays(d civil.Date, n int) civil.Date {
	return d.AddDays(n)
}

// AddWeeks implements CalendarStep.
func (Gregorian) AddWeeks(d civil.Date, n int) civil.Date {
	return d.AddDays(7 * n)
}

// AddMonths implements CalendarStep.
func (Gregorian) AddMonths(d civil.Date, n int) civil.Date {
	// Month arithmetic on a zero-based month index keeps the year carry simple.
	total := d.Year*12 + int(d.Month) - 1 + n
	year := floorDiv(total, 12)
	month := time.Month(total-year*12) + 1

	day := d.Day
	if last := daysIn(year, month); day > last {
		day = last
	}

	return civil.Date{Year: year, Month: month, Day: day}
}

// AddYears implements CalendarStep.
func (g Gregorian) AddYears(d civil.Date, n int) civil.Date {
	return g.AddMonths(d, 12*n)
}

// daysIn returns the number of days in the given month.
func daysIn(year int, month time.Month) int {
	// Day 0 of the following month normalises to the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
