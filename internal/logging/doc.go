// Package logging provides structured logging utilities for calchat.
//
// All components log through log/slog. This package keeps attribute names
// consistent and makes sure sensitive values never reach the log stream:
//
//   - Session identifiers are hashed before logging
//   - Attendee addresses are reduced to their domain
//
// Create a logger with standard attributes:
//
//	logger := logging.WithComponent(slog.Default(), "calendar")
//	logger.Info("event created", logging.Operation("create"), logging.Status("success"))
package logging
