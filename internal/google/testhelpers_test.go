package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"golang.org/x/oauth2"
)

// newTokenServer serves a token endpoint that answers refresh and
// authorization_code grants with fixed tokens.
func newTokenServer(t *testing.T, fail bool) (*httptest.Server, *int32) {
	t.Helper()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if fail {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}

		resp := map[string]any{
			"token_type": "Bearer",
			"expires_in": 3600,
		}
		switch r.Form.Get("grant_type") {
		case "refresh_token":
			resp["access_token"] = "refreshed-access"
		case "authorization_code":
			resp["access_token"] = "exchanged-" + r.Form.Get("code")
			resp["refresh_token"] = "exchanged-refresh"
		default:
			http.Error(w, "unsupported grant", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

type fakeConsent struct {
	token *oauth2.Token
	err   error
	calls int
	conf  *oauth2.Config
}

func (f *fakeConsent) Run(_ context.Context, conf *oauth2.Config) (*oauth2.Token, error) {
	f.calls++
	f.conf = conf
	return f.token, f.err
}

// memoryTokenStore is a TokenStore holding the credential in memory.
type memoryTokenStore struct {
	mu    sync.Mutex
	creds *Credentials
	saves int
}

// newMemoryTokenStore returns a store seeded with creds, which may be nil.
func newMemoryTokenStore(creds *Credentials) *memoryTokenStore {
	return &memoryTokenStore{creds: creds}
}

// Load returns a copy of the held credential.
func (s *memoryTokenStore) Load(_ context.Context) (*Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.creds == nil {
		return nil, ErrNoToken
	}
	return cloneCredentials(s.creds), nil
}

// Save replaces the held credential.
func (s *memoryTokenStore) Save(_ context.Context, creds *Credentials) error {
	if creds == nil {
		return errors.New("cannot save nil credentials")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds = cloneCredentials(creds)
	s.saves++
	return nil
}

// Saves reports how many times Save succeeded.
func (s *memoryTokenStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
