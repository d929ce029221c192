// Package logging provides structured logging for servloc.
//
// This package wraps Go's log/slog to provide JSON-formatted logs with
// persistent attributes. A [*Logger] satisfies locator.Logger, so it can be
// installed as a locator's diagnostic side channel:
//
//	logger, err := logging.NewLogger(cfg.Logging.Dir, cfg.Logging.Level)
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	locator.SetLogger(logger.WithComponent("locator"))
//
// Output:
//
//	{"time":"...","level":"INFO","msg":"provided service","component":"locator","service":"audio.Subsystem","replaced":false,"recovered":false}
//
// # Thread Safety
//
// All types in this package are safe for concurrent use. Child loggers
// created via With* methods share the underlying writer.
//
// # Testing
//
// Use [NopLogger] to discard all output, or [NewWriterLogger] with a buffer to
// assert on entries.
package logging
