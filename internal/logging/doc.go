// Package logging provides structured logging for adversary runs.
//
// It wraps log/slog with a JSON handler so that a critique run can be
// reconstructed after the fact: which critics were called, how many attempts
// each took, what the round decided and what it cost.
//
// # Basic Usage
//
//	logger, err := logging.NewLogger(logDir, logging.LevelInfo, logging.Options{MaxSizeMB: 10, MaxBackups: 3})
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	roundLog := logger.WithSession("q3-plan").WithRound(2)
//	roundLog.WithCritic("gpt-5.2").Warn("attempt failed", "attempt", 1)
//
// Output:
//
//	{"time":"...","level":"WARN","msg":"attempt failed","session_id":"q3-plan","round":2,"critic":"gpt-5.2","attempt":1}
//
// When the directory is empty, logs go to stderr. Components that accept a
// *Logger treat nil as [NopLogger].
//
// # Log Files
//
// File logs are appended to adversary.log. When the file has grown past the
// configured size at open time it is shifted to adversary.log.1 (and older
// backups to .2, .3, ...) before a fresh file is started.
package logging
