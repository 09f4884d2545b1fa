// Package store defines interfaces for job history persistence.
// These interfaces abstract the underlying storage mechanism from the queue
// and the API, so the service runs the same way against PostgreSQL or the
// in-memory store.
package store
