// Package testdb provides helpers for tests that need a real PostgreSQL
// database. Outside CI a missing database URL skips the test; in CI it fails
// it, so an unconfigured pipeline cannot pass silently.
package testdb
