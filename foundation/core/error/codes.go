// File: codes.go
// Title: Error Code Definitions
// Description: Standardized error codes used across bexpr. Codes classify an
//              error for API responses and map onto gRPC and HTTP status.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2025-04-22
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with core error codes
// - 2025-04-22 v0.2.0: Expression syntax and evaluation codes

package error

import "net/http"

// Code represents a structured error code for categorizing errors
type Code string

const (
	// Generic codes
	CodeUnknown      Code = "UNKNOWN"
	CodeInternal     Code = "INTERNAL"
	CodeNotFound     Code = "NOT_FOUND"
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeTimeout      Code = "TIMEOUT"

	// Expressions
	CodeExprSyntax     Code = "EXPR_SYNTAX"
	CodeExprEvaluation Code = "EXPR_EVALUATION"

	// Storage
	CodeDatabaseError Code = "DATABASE_ERROR"

	// Service and network
	CodeServiceUnavailable Code = "SERVICE_UNAVAILABLE"
	CodeNetworkError       Code = "NETWORK_ERROR"

	// Configuration
	CodeConfigError   Code = "CONFIG_ERROR"
	CodeInvalidConfig Code = "INVALID_CONFIG"
)

// String returns the string representation of the error code
func (c Code) String() string {
	return string(c)
}

// IsValid checks if the error code is a known code
func (c Code) IsValid() bool {
	switch c {
	case CodeUnknown, CodeInternal, CodeNotFound, CodeInvalidInput, CodeTimeout,
		CodeExprSyntax, CodeExprEvaluation,
		CodeDatabaseError,
		CodeServiceUnavailable, CodeNetworkError,
		CodeConfigError, CodeInvalidConfig:
		return true
	default:
		return false
	}
}

// Category returns the high-level category of the error code
func (c Code) Category() string {
	switch c {
	case CodeExprSyntax, CodeExprEvaluation:
		return "expression"
	case CodeDatabaseError:
		return "database"
	case CodeServiceUnavailable, CodeNetworkError:
		return "service"
	case CodeConfigError, CodeInvalidConfig:
		return "configuration"
	default:
		return "generic"
	}
}

// HTTPStatus returns the HTTP status code for this error code
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidInput, CodeExprSyntax:
		return http.StatusBadRequest
	case CodeExprEvaluation:
		return http.StatusUnprocessableEntity
	case CodeTimeout:
		return http.StatusRequestTimeout
	case CodeServiceUnavailable, CodeDatabaseError:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
