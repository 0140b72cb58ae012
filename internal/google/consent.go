package google

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// ConsentFlow obtains a fresh token through interactive user consent.
type ConsentFlow interface {
	Run(ctx context.Context, conf *oauth2.Config) (*oauth2.Token, error)
}

// BrowserOpener opens url in the user's browser.
type BrowserOpener func(url string) error

// LoopbackConsent runs the installed-app consent flow: it listens on a
// loopback port, sends the user to Google's consent page and exchanges the
// authorization code delivered to the redirect.
type LoopbackConsent struct {
	// Addr is the listen address. Defaults to 127.0.0.1:0.
	Addr string

	// Open launches the browser. Defaults to OpenBrowser.
	Open BrowserOpener

	// Out receives the consent URL so it can be opened by hand. Defaults to os.Stderr.
	Out io.Writer

	// Timeout bounds the wait for the redirect. Defaults to five minutes.
	Timeout time.Duration

	Logger *slog.Logger
}

type consentResult struct {
	code string
	err  error
}

// Run performs the consent flow and returns the exchanged token.
func (c *LoopbackConsent) Run(ctx context.Context, conf *oauth2.Config) (*oauth2.Token, error) {
	addr := c.Addr
	if addr == "" {
		addr = "127.0.0.1:0"
	}
	open := c.Open
	if open == nil {
		open = OpenBrowser
	}
	out := c.Out
	if out == nil {
		out = os.Stderr
	}
	timeout := c.Timeout
	if timeout == 0 {
		timeout = 5 * time.Minute
	}
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen for OAuth redirect: %w", err)
	}

	redirect := *conf
	redirect.RedirectURL = fmt.Sprintf("http://%s/", listener.Addr().String())

	state := uuid.NewString()
	results := make(chan consentResult, 1)

	srv := &http.Server{
		Handler:           redirectHandler(state, results),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("OAuth redirect listener stopped", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	authURL := redirect.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	fmt.Fprintf(out, "Open the following link in your browser to authorize calendar access:\n%s\n", authURL)
	if err := open(authURL); err != nil {
		logger.Debug("could not open browser", "error", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var res consentResult
	select {
	case res = <-results:
	case <-waitCtx.Done():
		return nil, fmt.Errorf("waiting for OAuth consent: %w", waitCtx.Err())
	}
	if res.err != nil {
		return nil, res.err
	}

	tok, err := redirect.Exchange(ctx, res.code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}
	return tok, nil
}

func redirectHandler(state string, results chan<- consentResult) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		var res consentResult
		switch {
		case q.Get("state") != state:
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		case q.Get("error") != "":
			res.err = fmt.Errorf("consent denied: %s", q.Get("error"))
		case q.Get("code") == "":
			http.Error(w, "missing authorization code", http.StatusBadRequest)
			return
		default:
			res.code = q.Get("code")
		}

		select {
		case results <- res:
		default:
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if res.err != nil {
			_, _ = io.WriteString(w, "Authorization failed. You can close this window.\n")
			return
		}
		_, _ = io.WriteString(w, "Authorization complete. You can close this window.\n")
	})
}

// OpenBrowser opens url with the platform's default handler.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
