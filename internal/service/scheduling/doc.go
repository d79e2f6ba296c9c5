// Package scheduling drives recurring task generation.
//
// Driver.BatchRun is the daily sweep over every active template whose window
// contains today. Driver.GenerateNow handles one template on demand, for
// example right after it was created or re-activated. Both go through the
// same per-template sequence: ask the recurrence calculator whether the
// template is due, materialize the task, then advance the template's
// watermark.
//
// A failure for one template is logged and counted, never propagated to the
// others, and the watermark of a failed template is left untouched so the
// next trigger retries it.
package scheduling
