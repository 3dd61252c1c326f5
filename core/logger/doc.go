// Package logger provides a structured logging facility based on Zap.
//
// It offers a configured logger instance that supports different environments (development vs production)
// and integrates with the Fiber web framework.
//
// # Context Awareness
//
// WithRayID extracts the RayID from a Fiber context and attaches it to the log entry, so all logs of
// one request can be correlated. ForTable scopes a logger to one table merge (logical path and table
// type), which is how merge failures are diagnosed.
//
// # Configuration
//
// The package supports configuration for:
//   - Level: debug, info, warn, error
//   - Encoding: json (production) or console (development)
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info"})
//	log.Info("Merge pass started")
//
//	l := logger.ForTable(log, "R2/BATTLE/TABLE/SKILL.TBL", "skill")
//	l.Warn("Candidate skipped", zap.Error(err))
package logger
