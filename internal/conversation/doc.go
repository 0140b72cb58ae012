// Package conversation keeps per-session chat transcripts and drives one
// turn at a time through the agent.
//
// A turn appends the user message, persists it, runs the agent on the
// flattened transcript and appends the reply. Transcripts live in a Store:
// MemoryStore for a single process, ValkeyStore when several web replicas
// share sessions.
package conversation
