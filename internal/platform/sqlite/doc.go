// Package sqlite provides SQLite implementations of the store interfaces,
// backed by the pure-Go modernc.org/sqlite driver. It serves single-node
// deployments and gives the rest of the module a real database to test
// against without external services.
//
// Calendar dates are stored as YYYY-MM-DD text and timestamps as fixed-width
// UTC text, so range predicates can compare them as strings.
package sqlite
