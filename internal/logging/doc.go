// Package logging provides structured logging for the challenge coordinator.
//
// It wraps Go's log/slog to emit JSON-formatted records. When a log
// directory is configured, output goes to {dir}/challenge.log and is rotated
// by size through lumberjack; otherwise records are written to stderr.
//
// # Context Propagation
//
// Child loggers carry persistent attributes:
//
//	logger := logging.NopLogger()
//	roundLogger := logger.WithAnnouncement(a.ID).WithPublication("reply")
//	roundLogger.Info("challenge enqueued", "questions", 2)
//
// Output:
//
//	{"time":"...","level":"INFO","msg":"challenge enqueued","announcement_id":"...","publication":"reply","questions":2}
//
// # Thread Safety
//
// [Logger] is safe for concurrent use. Child loggers share the underlying
// writer.
package logging
