// Package logger provides structured logging functionality for the application.
//
// It utilizes Go's standard library log/slog package to implement structured JSON logging
// with configurable log levels, and carries request- or job-scoped loggers through
// context.Context so that trace and job identifiers follow a job across goroutines.
package logger
