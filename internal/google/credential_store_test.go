package google

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

var testNow = time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func missingSecret(t *testing.T) ClientSecret {
	return ClientSecret{File: filepath.Join(t.TempDir(), "credentials.json")}
}

func TestObtain_ValidTokenReused(t *testing.T) {
	tokens := newMemoryTokenStore(&Credentials{
		Token: &oauth2.Token{AccessToken: "stored", Expiry: testNow.Add(time.Hour)},
	})
	consent := &fakeConsent{}
	store := NewCredentialStore(missingSecret(t), tokens, WithConsentFlow(consent), WithClock(fixedClock))

	tok, err := store.Obtain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "stored", tok.AccessToken)
	assert.Zero(t, consent.calls)
	assert.Equal(t, 1, tokens.Saves(), "valid credential is persisted again")
}

func TestObtain_ExpiredTokenRefreshed(t *testing.T) {
	srv, calls := newTokenServer(t, false)
	tokens := newMemoryTokenStore(&Credentials{
		Token: &oauth2.Token{
			AccessToken:  "old",
			RefreshToken: "refresh",
			Expiry:       testNow.Add(-time.Hour),
		},
		ClientID:     "id",
		ClientSecret: "secret",
		TokenURL:     srv.URL,
	})
	consent := &fakeConsent{}
	store := NewCredentialStore(missingSecret(t), tokens, WithConsentFlow(consent), WithClock(fixedClock))

	tok, err := store.Obtain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "refreshed-access", tok.AccessToken)
	assert.Equal(t, "refresh", tok.RefreshToken, "refresh token carried over when not reissued")
	assert.Zero(t, consent.calls, "refresh must not need the client secret file")
	assert.Positive(t, atomic.LoadInt32(calls))

	saved, err := tokens.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "refreshed-access", saved.Token.AccessToken)
	assert.Equal(t, "id", saved.ClientID)
}

func TestObtain_RefreshFailureWithoutSecret(t *testing.T) {
	srv, _ := newTokenServer(t, true)
	tokens := newMemoryTokenStore(&Credentials{
		Token:    &oauth2.Token{AccessToken: "old", RefreshToken: "revoked", Expiry: testNow.Add(-time.Hour)},
		TokenURL: srv.URL,
	})
	consent := &fakeConsent{}
	store := NewCredentialStore(missingSecret(t), tokens, WithConsentFlow(consent), WithClock(fixedClock))

	_, err := store.Obtain(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrClientSecretMissing)
	assert.Zero(t, consent.calls)
	assert.Zero(t, tokens.Saves())
}

func TestObtain_NoTokenRunsConsent(t *testing.T) {
	tokens := newMemoryTokenStore(nil)
	consent := &fakeConsent{token: &oauth2.Token{AccessToken: "new", RefreshToken: "r"}}
	secret := ClientSecret{ClientID: "id", ClientSecret: "secret"}
	store := NewCredentialStore(secret, tokens, WithConsentFlow(consent), WithClock(fixedClock))

	tok, err := store.Obtain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new", tok.AccessToken)
	assert.Equal(t, 1, consent.calls)
	assert.Equal(t, []string{CalendarScope}, consent.conf.Scopes)

	saved, err := tokens.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new", saved.Token.AccessToken)
	assert.Equal(t, "id", saved.ClientID)
	assert.Equal(t, "secret", saved.ClientSecret)
}

func TestObtain_NoTokenNoSecret(t *testing.T) {
	consent := &fakeConsent{}
	store := NewCredentialStore(missingSecret(t), newMemoryTokenStore(nil), WithConsentFlow(consent))

	_, err := store.Obtain(context.Background())
	assert.ErrorIs(t, err, ErrClientSecretMissing)
	assert.Zero(t, consent.calls)
}

func TestObtain_ConsentFailure(t *testing.T) {
	tokens := newMemoryTokenStore(nil)
	consent := &fakeConsent{err: errors.New("user closed the browser")}
	store := NewCredentialStore(ClientSecret{ClientID: "id", ClientSecret: "s"}, tokens, WithConsentFlow(consent))

	_, err := store.Obtain(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user closed the browser")
	assert.Zero(t, tokens.Saves())
}

func TestObtain_CorruptStoreFallsBackToConsent(t *testing.T) {
	consent := &fakeConsent{token: &oauth2.Token{AccessToken: "new"}}
	store := NewCredentialStore(ClientSecret{ClientID: "id", ClientSecret: "s"}, corruptStore{}, WithConsentFlow(consent))

	_, err := store.Obtain(context.Background())
	require.Error(t, err, "saving to the broken store still fails")
	assert.Equal(t, 1, consent.calls)
}

type corruptStore struct{}

func (corruptStore) Load(context.Context) (*Credentials, error) {
	return nil, errors.New("decode failure")
}

func (corruptStore) Save(context.Context, *Credentials) error {
	return errors.New("read-only")
}

func TestTokenSource_PersistsRefreshedTokens(t *testing.T) {
	srv, _ := newTokenServer(t, false)

	// The stored token is valid by the injected clock but long expired by
	// wall time, so the token source refreshes on first use.
	past := time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)
	tokens := newMemoryTokenStore(&Credentials{
		Token:    &oauth2.Token{AccessToken: "stored", RefreshToken: "refresh", Expiry: past.Add(time.Hour)},
		TokenURL: srv.URL,
	})
	store := NewCredentialStore(missingSecret(t), tokens,
		WithConsentFlow(&fakeConsent{}),
		WithClock(func() time.Time { return past }),
	)

	ts, err := store.TokenSource(context.Background())
	require.NoError(t, err)

	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "refreshed-access", tok.AccessToken)

	saved, err := tokens.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "refreshed-access", saved.Token.AccessToken)
	assert.Equal(t, 2, tokens.Saves())

	// A second call reuses the cached token without another save.
	_, err = ts.Token()
	require.NoError(t, err)
	assert.Equal(t, 2, tokens.Saves())
}
