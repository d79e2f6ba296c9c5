// Package recurrence decides whether a task template is due on a calendar date.
//
// The calculation is pure: it reads the template's recurrence descriptor,
// window and watermark and never performs I/O. Calendar arithmetic is behind the
// CalendarStep interface so the month-end clamping rules can be tested, and
// replaced, independently of the due-date search.
package recurrence
