// Package server provides the HTTP surfaces of calchat.
//
// # Key Components
//
// ChatServer serves the browser chat page and its JSON API:
//   - GET /: the chat page; ensures a session cookie
//   - POST /chat: runs one conversation turn
//   - POST /clear: resets the session transcript
//
// Sessions are identified by the calchat_session cookie (HttpOnly,
// SameSite=Lax) holding a random UUID. Transcripts live in the configured
// conversation store.
//
// HealthChecker serves /healthz, /readyz and /healthz/detailed for
// Kubernetes liveness and readiness checks.
//
// MetricsServer serves Prometheus metrics on a dedicated port so that
// operational metrics stay off the public listener.
package server
