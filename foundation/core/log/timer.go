// File: timer.go
// Title: Performance Timer
// Description: Measures an operation and logs its outcome once, at debug
//              level on success and warn level on failure.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2025-06-02
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with performance timing
// - 2025-06-02 v0.2.0: Fail reports errors, level derived from outcome

package log

import (
	"time"
)

// Timer measures the duration of one operation
type Timer struct {
	logger    *Logger
	operation string
	start     time.Time
	fields    Fields
	done      bool
}

// WithField adds a field to the completion entry
func (t *Timer) WithField(key string, value interface{}) *Timer {
	t.fields[key] = value
	return t
}

// Stop logs the operation as completed and returns the elapsed time
func (t *Timer) Stop() time.Duration {
	return t.finish(LevelDebug, "Operation completed", nil)
}

// Fail logs the operation as failed with err
func (t *Timer) Fail(err error) time.Duration {
	return t.finish(LevelWarn, "Operation failed", err)
}

// finish logs only on the first call
func (t *Timer) finish(level Level, message string, err error) time.Duration {
	elapsed := time.Since(t.start)
	if t.done {
		return elapsed
	}
	t.done = true

	if !t.logger.IsLevelEnabled(level) {
		return elapsed
	}

	entry := t.logger.newEntry(level, message, t.fields, Fields{"operation": t.operation})
	entry.Duration = elapsed
	entry.Error = err
	t.logger.write(entry)
	return elapsed
}
