/*
Package log provides structured logging for ParqueDB using zerolog.

It wraps zerolog to give every subsystem (committer, WAL, index
manager, sync engine, ...) JSON or console logging with a single
process-wide level, plus component-scoped child loggers so log lines
can be filtered without string parsing.

# Usage

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})

	committerLog := log.WithComponent("committer")
	committerLog.Info().Str("namespace", ns).Msg("commit applied")

	walLog := log.WithNamespace("events")
	walLog.Error().Err(err).Msg("flush failed")

Component loggers are cheap zerolog child loggers (one allocation);
create one per long-lived subsystem instance and reuse it rather than
calling WithComponent per log line.
*/
package log
