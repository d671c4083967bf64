/*
Package log provides structured logging for lattice using zerolog.

The log package wraps zerolog to give every subsystem (the worker pool, the kv
layer, nstore) a component-scoped child logger, a configurable level, and a
JSON or console output mode. All logs carry timestamps and can be filtered by
severity for production debugging.

# Usage

Initializing the logger:

	import "github.com/cuemby/lattice/pkg/log"

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

Component loggers:

	poolLog := log.WithComponent("pool")
	poolLog.Warn().Int("worker", id).Msg("connection reopened after substrate failure")

	nstoreLog := log.WithNStoreName("friends")
	nstoreLog.Debug().Int("arity", 3).Msg("registered nstore")

# Log Levels

Debug is for scan/plan decisions made per query; Info marks handle open/close
and pool startup; Warn marks a reopened worker connection or a rolled-back
transaction; Error marks a substrate failure or a planner coverage violation.
Fatal is reserved for startup failures in cmd/lattice (database file cannot be
opened).

# Design Patterns

A single package-level zerolog.Logger is initialized once via Init and read
from everywhere else; component loggers are created with With().Str(...) so
call sites never repeat field names. Never log key or value bytes directly —
tuples may carry arbitrary user data — log counts and byte lengths instead.
*/
package log
