package log

import "context"

// Logger is the logging contract used throughout the SDK. Implementations
// must be safe for concurrent use.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...map[string]any)
	Info(ctx context.Context, msg string, fields ...map[string]any)
	Warn(ctx context.Context, msg string, fields ...map[string]any)
	Error(ctx context.Context, msg string, err error, fields ...map[string]any)
	With(fields map[string]any) Logger
}

// NewNop returns a Logger that discards everything. Useful as a default when
// the embedding application does not wire its own logger.
func NewNop() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...map[string]any)        {}
func (nopLogger) Info(context.Context, string, ...map[string]any)         {}
func (nopLogger) Warn(context.Context, string, ...map[string]any)         {}
func (nopLogger) Error(context.Context, string, error, ...map[string]any) {}
func (nopLogger) With(map[string]any) Logger                              { return nopLogger{} }
