// Package generation turns a due (template, date) pair into a concrete task.
//
// The Materializer checks that the template's default assignees still exist,
// skips dates that already have a task, and writes the task together with its
// assignee links in one transaction. A unique-key conflict on
// (template_id, generated_for_date) is reported as a skip, never as an error,
// so any number of concurrent callers converge on exactly one task.
package generation
