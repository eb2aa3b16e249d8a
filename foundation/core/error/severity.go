// File: severity.go
// Title: Error Severity Levels
// Description: Severity levels used to prioritize errors in logs.
// Author: msto63
// Version: v0.1.0
// Created: 2025-01-24
// Modified: 2025-01-24
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with severity levels

package error

// Severity represents the severity level of an error
type Severity int

const (
	// SeverityLow covers rejected user input
	SeverityLow Severity = iota
	// SeverityMedium is the default for unclassified errors
	SeverityMedium
	// SeverityHigh covers storage and infrastructure failures
	SeverityHigh
	// SeverityCritical makes the process unusable
	SeverityCritical
)

// String returns the string representation of the severity level
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ShouldAlert returns true if this severity level should trigger alerts
func (s Severity) ShouldAlert() bool {
	return s >= SeverityHigh
}

// GetSeverityFromCode determines the severity level for an error code
func GetSeverityFromCode(code Code) Severity {
	switch code {
	case CodeServiceUnavailable:
		return SeverityCritical
	case CodeDatabaseError, CodeConfigError, CodeInvalidConfig, CodeInternal:
		return SeverityHigh
	case CodeInvalidInput, CodeNotFound, CodeExprSyntax, CodeExprEvaluation:
		return SeverityLow
	default:
		return SeverityMedium
	}
}
