package conversation

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Store.Load for an unknown or expired session.
var ErrNotFound = errors.New("session not found")

// Store persists transcripts by session ID.
type Store interface {
	Load(ctx context.Context, sessionID string) (Transcript, error)
	Save(ctx context.Context, sessionID string, t Transcript) error
	Delete(ctx context.Context, sessionID string) error
}
