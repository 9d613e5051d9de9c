// Package logging provides structured logging for bobil.
//
// This package wraps a global zap logger with convenience functions. CLI
// commands start silent and only log when a level is requested, either with
// --log-level or the BOBIL_LOG_LEVEL environment variable:
//
//	if err := logging.Initialize(logLevel); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
//	logging.Warn("Communication error with heater, using cached data",
//	    zap.String("host", host),
//	    zap.Error(err),
//	)
//
// Logs go to stderr in console format so that command output on stdout
// (JSON status, rendered tables) stays machine-readable.
//
// All functions are safe for concurrent use.
package logging
