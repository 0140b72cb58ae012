package google

import (
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Credentials is a persisted authorized-user credential. It carries the
// client identity alongside the token so that a refresh works without the
// client secret file.
type Credentials struct {
	Token        *oauth2.Token
	ClientID     string
	ClientSecret string
	TokenURL     string
	Scopes       []string
}

type credentialsFile struct {
	Type         string    `json:"type"`
	Token        string    `json:"token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
	TokenURI     string    `json:"token_uri"`
	ClientID     string    `json:"client_id"`
	ClientSecret string    `json:"client_secret"`
	Scopes       []string  `json:"scopes,omitempty"`
}

// MarshalJSON encodes the credential in the authorized_user layout used by
// Google client libraries.
func (c Credentials) MarshalJSON() ([]byte, error) {
	f := credentialsFile{
		Type:         "authorized_user",
		TokenURI:     c.TokenURL,
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Scopes:       c.Scopes,
	}
	if c.Token != nil {
		f.Token = c.Token.AccessToken
		f.RefreshToken = c.Token.RefreshToken
		f.TokenType = c.Token.TokenType
		f.Expiry = c.Token.Expiry
	}
	return json.Marshal(f)
}

// UnmarshalJSON decodes the authorized_user layout.
func (c *Credentials) UnmarshalJSON(data []byte) error {
	var f credentialsFile
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	if f.Type != "" && f.Type != "authorized_user" {
		return fmt.Errorf("unsupported credential type %q", f.Type)
	}
	*c = Credentials{
		Token: &oauth2.Token{
			AccessToken:  f.Token,
			RefreshToken: f.RefreshToken,
			TokenType:    f.TokenType,
			Expiry:       f.Expiry,
		},
		ClientID:     f.ClientID,
		ClientSecret: f.ClientSecret,
		TokenURL:     f.TokenURI,
		Scopes:       f.Scopes,
	}
	return nil
}

// Config rebuilds the OAuth2 client configuration the credential was issued to.
func (c *Credentials) Config() *oauth2.Config {
	endpoint := google.Endpoint
	if c.TokenURL != "" {
		endpoint.TokenURL = c.TokenURL
	}
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     endpoint,
		Scopes:       c.Scopes,
	}
}

func newCredentials(conf *oauth2.Config, tok *oauth2.Token) *Credentials {
	return &Credentials{
		Token:        tok,
		ClientID:     conf.ClientID,
		ClientSecret: conf.ClientSecret,
		TokenURL:     conf.Endpoint.TokenURL,
		Scopes:       conf.Scopes,
	}
}

func cloneCredentials(c *Credentials) *Credentials {
	out := *c
	if c.Token != nil {
		tok := *c.Token
		out.Token = &tok
	}
	out.Scopes = append([]string(nil), c.Scopes...)
	return &out
}

// expiryDelta matches the leeway oauth2 applies before treating a token as expired.
const expiryDelta = 10 * time.Second

func tokenValid(tok *oauth2.Token, now time.Time) bool {
	if tok == nil || tok.AccessToken == "" {
		return false
	}
	if tok.Expiry.IsZero() {
		return true
	}
	return tok.Expiry.Round(0).Add(-expiryDelta).After(now)
}
