// Package error provides structured errors for bexpr.
//
// Package: error
// Title: bexpr Error Handling
// Description: Errors carry a code, a severity, free-form details and the
//              operation that produced them. Evaluation diagnostics are
//              converted into this form before they cross a process
//              boundary (gRPC, WebSocket, history store).
// Author: msto63
// Version: v0.3.0
// Created: 2025-01-24
// Modified: 2025-06-02
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with contextual errors and codes
// - 2025-04-22 v0.2.0: Expression codes, errors.As based lookups
// - 2025-06-02 v0.3.0: Stack traces removed
//
// Usage:
//
//	err := error.New("cannot open history").
//		WithCode(error.CodeDatabaseError).
//		WithDetail("path", path)
//
//	if error.HasCode(err, error.CodeDatabaseError) {
//		// ...
//	}
package error
