// ============================================================================
// bexpr - Statement Lexer and Evaluator
// ============================================================================
//
// Package:     version
// Description: Central version management for the CLI and its services
// Author:      Mike Stoffels
// Created:     2025-12-06
// License:     MIT
// ============================================================================

package version

import (
	"fmt"
	"runtime"
)

// Version constants for bexpr components
const (
	// Platform version
	Platform = "1.0.0"

	// Component versions
	Evaluator = "1.0.0"
	Gateway   = "1.0.0"
	History   = "1.0.0"
)

// Set at build time with -ldflags "-X ...version.Commit=..."
var (
	Commit    = "unknown"
	BuildDate = "unknown"
)

// ServiceVersion returns the version for a given component name
func ServiceVersion(name string) string {
	switch name {
	case "evaluator", "grpc":
		return Evaluator
	case "gateway":
		return Gateway
	case "history":
		return History
	default:
		return Platform
	}
}

// Info returns a one-line description of the build
func Info() string {
	return fmt.Sprintf("bexpr %s (commit %s, built %s, %s %s/%s)",
		Platform, Commit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
