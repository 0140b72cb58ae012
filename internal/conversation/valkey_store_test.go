package conversation

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscriptEncoding(t *testing.T) {
	tr := Transcript{}.Append(RoleUser, "hi").Append(RoleAssistant, "hello")

	raw, err := encodeTranscript(tr)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"role":"user","content":"hi"},{"role":"assistant","content":"hello"}]`, raw)

	decoded, err := decodeTranscript(raw)
	require.NoError(t, err)
	assert.Equal(t, tr, decoded)

	raw, err = encodeTranscript(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)

	_, err = decodeTranscript("{not json")
	assert.Error(t, err)
}

func TestNewValkeyStore_RequiresURL(t *testing.T) {
	_, err := NewValkeyStore(ValkeyConfig{})
	assert.Error(t, err)
}

func TestValkeyStore_Defaults(t *testing.T) {
	s := newValkeyStore(nil, ValkeyConfig{})
	assert.Equal(t, DefaultKeyPrefix+"abc", s.key("abc"))
	assert.Equal(t, DefaultSessionTTL, s.ttl)

	s = newValkeyStore(nil, ValkeyConfig{KeyPrefix: "test:", TTL: time.Minute})
	assert.Equal(t, "test:abc", s.key("abc"))
	assert.Equal(t, time.Minute, s.ttl)
}

// TestValkeyStore_Integration runs against a live server when VALKEY_URL is set.
func TestValkeyStore_Integration(t *testing.T) {
	url := os.Getenv("VALKEY_URL")
	if url == "" {
		t.Skip("VALKEY_URL not set")
	}

	ctx := context.Background()
	s, err := NewValkeyStore(ValkeyConfig{URL: url, KeyPrefix: "calchat-test:", TTL: time.Minute})
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Ping(ctx))

	id := uuid.NewString()
	_, err = s.Load(ctx, id)
	require.ErrorIs(t, err, ErrNotFound)

	tr := Transcript{}.Append(RoleUser, "hello")
	require.NoError(t, s.Save(ctx, id, tr))

	got, err := s.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, tr, got)

	require.NoError(t, s.Delete(ctx, id))
	_, err = s.Load(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}
