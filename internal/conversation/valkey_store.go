package conversation

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

// DefaultKeyPrefix namespaces transcript keys.
const DefaultKeyPrefix = "calchat:session:"

// ValkeyConfig holds the Valkey connection settings.
type ValkeyConfig struct {
	// URL is the server address, e.g. "valkey.namespace.svc:6379".
	URL        string
	Password   string
	TLSEnabled bool
	// KeyPrefix is prepended to every session key (default: DefaultKeyPrefix).
	KeyPrefix string
	DB        int
	// TTL is the expiry refreshed on every save (default: DefaultSessionTTL).
	TTL time.Duration
}

// ValkeyStore keeps transcripts in Valkey as JSON values with an expiry.
type ValkeyStore struct {
	client valkey.Client
	prefix string
	ttl    time.Duration
}

// NewValkeyStore connects to Valkey.
func NewValkeyStore(cfg ValkeyConfig) (*ValkeyStore, error) {
	if cfg.URL == "" {
		return nil, errors.New("valkey URL is required")
	}

	opt := valkey.ClientOption{
		InitAddress: []string{cfg.URL},
		Password:    cfg.Password,
		SelectDB:    cfg.DB,
	}
	if cfg.TLSEnabled {
		opt.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	client, err := valkey.NewClient(opt)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to valkey at %s: %w", cfg.URL, err)
	}
	return newValkeyStore(client, cfg), nil
}

func newValkeyStore(client valkey.Client, cfg ValkeyConfig) *ValkeyStore {
	s := &ValkeyStore{
		client: client,
		prefix: cfg.KeyPrefix,
		ttl:    cfg.TTL,
	}
	if s.prefix == "" {
		s.prefix = DefaultKeyPrefix
	}
	if s.ttl <= 0 {
		s.ttl = DefaultSessionTTL
	}
	return s
}

func (s *ValkeyStore) key(sessionID string) string {
	return s.prefix + sessionID
}

// Load fetches and decodes the session's transcript.
func (s *ValkeyStore) Load(ctx context.Context, sessionID string) (Transcript, error) {
	raw, err := s.client.Do(ctx, s.client.B().Get().Key(s.key(sessionID)).Build()).ToString()
	if valkey.IsValkeyNil(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return decodeTranscript(raw)
}

// Save encodes the transcript and stores it with a fresh expiry.
func (s *ValkeyStore) Save(ctx context.Context, sessionID string, t Transcript) error {
	raw, err := encodeTranscript(t)
	if err != nil {
		return err
	}
	cmd := s.client.B().Set().Key(s.key(sessionID)).Value(raw).Ex(s.ttl).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete removes the session key.
func (s *ValkeyStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Do(ctx, s.client.B().Del().Key(s.key(sessionID)).Build()).Error(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Ping checks that the server answers.
func (s *ValkeyStore) Ping(ctx context.Context) error {
	if err := s.client.Do(ctx, s.client.B().Ping().Build()).Error(); err != nil {
		return fmt.Errorf("valkey ping: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *ValkeyStore) Close() {
	s.client.Close()
}

func encodeTranscript(t Transcript) (string, error) {
	b, err := json.Marshal(t.clone())
	if err != nil {
		return "", fmt.Errorf("failed to encode transcript: %w", err)
	}
	return string(b), nil
}

func decodeTranscript(raw string) (Transcript, error) {
	var t Transcript
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return nil, fmt.Errorf("failed to decode transcript: %w", err)
	}
	return t.clone(), nil
}
