// Package domain contains the core business entities of the recurring task
// engine: task templates with their recurrence descriptor and watermark, and
// the concrete tasks generated from them. It is independent of storage and
// delivery mechanisms.
package domain
