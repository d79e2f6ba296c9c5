// Package store defines the persistence contracts used by the generation
// engine: template enumeration and watermark updates, idempotent insertion of
// generated tasks, and assignee existence checks. Implementations live under
// internal/platform (postgres and sqlite).
package store
