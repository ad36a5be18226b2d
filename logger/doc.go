// Package logger provides structured logging for execkit using zerolog.
//
// Every tool wrapper logs through a component-scoped [Logger], so a record
// carries the concrete tool name (rsync, pg_basebackup, gpg, ...) rather than
// a generic command tag.
//
// # Configuration
//
//	logging:
//	  level: "debug"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("rsync")
//	log.Debug("started", logger.Fields(logger.FieldPID, 4242))
package logger
