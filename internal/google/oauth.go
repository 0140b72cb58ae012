package google

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	// DefaultCredentialsFile is the OAuth client secret downloaded from the Google Cloud console.
	DefaultCredentialsFile = "credentials.json"

	// DefaultTokenFile is where the authorized credential is persisted.
	DefaultTokenFile = "token.json"
)

// ErrClientSecretMissing is returned when consent is required but no client
// secret is available.
var ErrClientSecretMissing = errors.New("OAuth client secret not found")

// ClientSecret locates the OAuth client identity used for consent.
type ClientSecret struct {
	// File is the path to the client secret JSON file.
	File string

	// ClientID and ClientSecret take precedence over File when both are set.
	ClientID     string
	ClientSecret string
}

// OAuthConfig builds the OAuth2 configuration for the given scopes.
func (s ClientSecret) OAuthConfig(scopes ...string) (*oauth2.Config, error) {
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}

	if s.ClientID != "" && s.ClientSecret != "" {
		return &oauth2.Config{
			ClientID:     s.ClientID,
			ClientSecret: s.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       scopes,
		}, nil
	}

	path := s.File
	if path == "" {
		path = DefaultCredentialsFile
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s does not exist; download it from the Google Cloud console", ErrClientSecretMissing, path)
		}
		return nil, fmt.Errorf("unable to read client secret file: %w", err)
	}

	conf, err := google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}
	return conf, nil
}

// NewHTTPClient returns an HTTP client authorized by ts.
// The client is pinned to HTTP/1.1 to avoid HTTP/2 stream resets from the API frontends.
func NewHTTPClient(ctx context.Context, ts oauth2.TokenSource) *http.Client {
	client := oauth2.NewClient(ctx, ts)
	if transport, ok := client.Transport.(*oauth2.Transport); ok {
		transport.Base = &http.Transport{
			Proxy:             http.ProxyFromEnvironment,
			ForceAttemptHTTP2: false,
		}
	}
	return client
}
