// Package log provides structured logging for bexpr.
//
// Package: log
// Title: bexpr Structured Logging
// Description: Leveled, structured logging with JSON, text and console
//              formats. Loggers are immutable: every With* call returns a
//              derived logger that carries additional context fields.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2025-04-22
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with structured logging and error integration
// - 2025-04-22 v0.2.0: Default output is stderr, sorted text fields, async mode removed
//
// Usage:
//
//	logger := log.NewWithConfig(log.Config{
//		Level:  log.LevelDebug,
//		Format: log.FormatText,
//		Name:   "bexpr",
//	}).WithField("component", "evaluator")
//
//	logger.Debug("Statement rejected", log.Fields{"line": 3})
//
//	timer := logger.StartTimer("evaluate_file")
//	// ...
//	timer.Stop()
package log
