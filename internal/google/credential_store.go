package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/teemow/calchat/internal/instrumentation"
	"github.com/teemow/calchat/internal/logging"
)

// CredentialStore produces a usable Google credential, persisting every
// credential it obtains.
type CredentialStore struct {
	secret  ClientSecret
	tokens  TokenStore
	consent ConsentFlow
	metrics *instrumentation.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a CredentialStore.
type Option func(*CredentialStore)

// WithConsentFlow replaces the default loopback consent flow.
func WithConsentFlow(flow ConsentFlow) Option {
	return func(s *CredentialStore) { s.consent = flow }
}

// WithMetrics records credential outcomes on m.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(s *CredentialStore) { s.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *CredentialStore) { s.logger = logger }
}

// WithClock overrides the time source used to judge token expiry.
func WithClock(now func() time.Time) Option {
	return func(s *CredentialStore) { s.now = now }
}

// NewCredentialStore returns a CredentialStore that persists to tokens and
// reads the client identity from secret when consent is needed.
func NewCredentialStore(secret ClientSecret, tokens TokenStore, opts ...Option) *CredentialStore {
	s := &CredentialStore{
		secret: secret,
		tokens: tokens,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.consent == nil {
		s.consent = &LoopbackConsent{Logger: s.logger}
	}
	s.logger = logging.WithComponent(s.logger, "credentials")
	return s
}

// Obtain returns a valid access token.
//
// A stored, unexpired token is returned as is. An expired token with a
// refresh token is refreshed. Otherwise the consent flow runs, which needs
// the client secret and fails with ErrClientSecretMissing without it.
// Whatever is returned has been persisted.
func (s *CredentialStore) Obtain(ctx context.Context) (*oauth2.Token, error) {
	creds, err := s.obtain(ctx)
	if err != nil {
		return nil, err
	}
	return creds.Token, nil
}

// TokenSource returns a token source seeded by Obtain that persists any
// token it later refreshes.
func (s *CredentialStore) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	creds, err := s.obtain(ctx)
	if err != nil {
		return nil, err
	}

	base := creds.Config().TokenSource(ctx, creds.Token)
	return oauth2.ReuseTokenSource(creds.Token, &persistingTokenSource{
		base:   base,
		creds:  creds,
		tokens: s.tokens,
		logger: s.logger,
		last:   creds.Token.AccessToken,
	}), nil
}

func (s *CredentialStore) obtain(ctx context.Context) (*Credentials, error) {
	creds, err := s.tokens.Load(ctx)
	switch {
	case errors.Is(err, ErrNoToken):
		creds = nil
	case err != nil:
		s.logger.Warn("ignoring unreadable stored credential", logging.Err(err))
		creds = nil
	}

	if creds != nil && tokenValid(creds.Token, s.now()) {
		if err := s.tokens.Save(ctx, creds); err != nil {
			return nil, fmt.Errorf("failed to persist credential: %w", err)
		}
		s.metrics.RecordCredentialObtain(ctx, instrumentation.CredentialValid)
		return creds, nil
	}

	if creds != nil && creds.Token != nil && creds.Token.RefreshToken != "" {
		refreshed, err := s.refresh(ctx, creds)
		if err == nil {
			if err := s.tokens.Save(ctx, refreshed); err != nil {
				return nil, fmt.Errorf("failed to persist refreshed credential: %w", err)
			}
			s.logger.Info("refreshed stored credential")
			s.metrics.RecordCredentialObtain(ctx, instrumentation.CredentialRefreshed)
			return refreshed, nil
		}
		s.logger.Warn("credential refresh failed, falling back to consent", logging.Err(err))
	}

	conf, err := s.secret.OAuthConfig(DefaultScopes...)
	if err != nil {
		s.metrics.RecordCredentialObtain(ctx, instrumentation.CredentialFailure)
		return nil, err
	}

	tok, err := s.consent.Run(ctx, conf)
	if err != nil {
		s.metrics.RecordCredentialObtain(ctx, instrumentation.CredentialFailure)
		return nil, fmt.Errorf("consent flow failed: %w", err)
	}

	fresh := newCredentials(conf, tok)
	if err := s.tokens.Save(ctx, fresh); err != nil {
		return nil, fmt.Errorf("failed to persist credential: %w", err)
	}
	s.logger.Info("obtained new credential through consent")
	s.metrics.RecordCredentialObtain(ctx, instrumentation.CredentialConsent)
	return fresh, nil
}

func (s *CredentialStore) refresh(ctx context.Context, creds *Credentials) (*Credentials, error) {
	// Force the exchange: the stored expiry was judged against our clock, not oauth2's.
	stale := &oauth2.Token{
		AccessToken:  creds.Token.AccessToken,
		TokenType:    creds.Token.TokenType,
		RefreshToken: creds.Token.RefreshToken,
		Expiry:       time.Unix(1, 0),
	}

	tok, err := creds.Config().TokenSource(ctx, stale).Token()
	if err != nil {
		return nil, err
	}
	if tok.RefreshToken == "" {
		tok.RefreshToken = creds.Token.RefreshToken
	}

	out := cloneCredentials(creds)
	out.Token = tok
	return out, nil
}

// persistingTokenSource saves every token the underlying source mints.
type persistingTokenSource struct {
	mu     sync.Mutex
	base   oauth2.TokenSource
	creds  *Credentials
	tokens TokenStore
	logger *slog.Logger
	last   string
}

func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if tok.AccessToken == p.last {
		return tok, nil
	}
	p.last = tok.AccessToken

	updated := cloneCredentials(p.creds)
	updated.Token = tok
	if err := p.tokens.Save(context.Background(), updated); err != nil {
		p.logger.Warn("failed to persist refreshed credential", logging.Err(err))
		return tok, nil
	}
	p.creds = updated
	return tok, nil
}
