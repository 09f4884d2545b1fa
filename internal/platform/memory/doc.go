// Package memory provides an in-process implementation of the job history
// store, used when the service runs without a database.
package memory
