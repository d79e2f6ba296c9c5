// Package postgres provides PostgreSQL implementations of the repository
// interfaces defined in internal/store and of task.TaskStore. Connections go
// through database/sql with the pgx driver, and PostgreSQL error codes are
// mapped onto the store sentinel errors.
package postgres
