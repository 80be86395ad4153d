// Package logging provides structured logging for ring-relay.
//
// It wraps the standard library's log/slog with configuration-driven
// level filtering, output format selection, and default service fields.
//
// Usage:
//
//	log := logging.New(cfg.Logging, version)
//	log.Info("session established", "hardware_id", id)
//
//	// Component-scoped logger
//	alarmLog := log.With("component", "alarm")
package logging
