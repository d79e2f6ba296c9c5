// Package task runs on-demand generation jobs in the background.
//
// Template lifecycle events are turned into GenerationTasks, persisted as
// generation_jobs rows, and executed by a small worker pool. Jobs left pending
// or interrupted by a restart are rebuilt from their stored payload when the
// runner starts, and a monitor re-queues jobs stuck in processing.
package task
