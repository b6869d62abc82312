// Package logging defines the structured-logging interface shared by the
// credential-store server and the wallet CLI. The slog adapter in this
// package is the only implementation; engines and services depend on the
// interface so tests can pass a discarding logger.
package logging

import "context"

// Logger is a context-aware, structured logger. Key material and passwords
// must never appear in the args.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "starting server", "addr", addr)
type Logger interface {
	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs a warning message for unusual but non-fatal conditions.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs an error message for failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}
