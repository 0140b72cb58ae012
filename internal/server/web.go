package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/teemow/calchat/internal/instrumentation"
	"github.com/teemow/calchat/internal/logging"
)

const (
	// SessionCookieName is the cookie holding the chat session ID.
	SessionCookieName = "calchat_session"

	// DefaultAddr is the default listen address of the chat server.
	DefaultAddr = ":5000"

	// maxChatBody bounds the size of a /chat request body.
	maxChatBody = 64 << 10

	// errNoMessage is returned for an empty or absent chat message.
	errNoMessage = "No message provided"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// Chat runs conversation turns. *conversation.Driver implements it.
type Chat interface {
	Ensure(ctx context.Context, sessionID string) error
	Send(ctx context.Context, sessionID, message string) (string, error)
	Clear(ctx context.Context, sessionID string) error
}

type chatRequest struct {
	Message string `json:"message"`
}

// errorResponse is the bare payload for a rejected request.
type errorResponse struct {
	Error string `json:"error"`
}

type chatResponse struct {
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
	Success  bool   `json:"success"`
}

// ChatServer serves the chat page and API.
type ChatServer struct {
	chat         Chat
	health       *HealthChecker
	metrics      *instrumentation.Metrics
	logger       *slog.Logger
	model        string
	secureCookie bool
	newSessionID func() string

	mu         sync.Mutex
	httpServer *http.Server
	addr       string
	closed     bool
}

// Option configures a ChatServer.
type Option func(*ChatServer)

// WithMetrics records HTTP requests on m.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(s *ChatServer) { s.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *ChatServer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithModelName shows the chat model on the page.
func WithModelName(model string) Option {
	return func(s *ChatServer) { s.model = model }
}

// WithSecureCookie marks the session cookie Secure, for TLS deployments.
func WithSecureCookie(secure bool) Option {
	return func(s *ChatServer) { s.secureCookie = secure }
}

// NewChatServer returns a server listening on addr and answering with chat.
func NewChatServer(addr string, chat Chat, opts ...Option) *ChatServer {
	if addr == "" {
		addr = DefaultAddr
	}
	s := &ChatServer{
		chat:         chat,
		health:       NewHealthChecker(),
		logger:       slog.Default(),
		newSessionID: uuid.NewString,
		addr:         addr,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.WithComponent(s.logger, "web")
	// Not ready until Serve has a listener.
	s.health.SetReady(false)
	return s
}

// Health returns the server's health checker.
func (s *ChatServer) Health() *HealthChecker {
	return s.health
}

// Handler returns the routed, instrumented handler.
func (s *ChatServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("POST /clear", s.handleClear)
	s.health.RegisterHealthEndpoints(mux)

	return otelhttp.NewHandler(metricsMiddleware(s.metrics, s.logger, mux), "calchat.web")
}

// Start listens and serves until Shutdown. It returns
// http.ErrServerClosed after a graceful shutdown.
func (s *ChatServer) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve serves on ln until Shutdown.
func (s *ChatServer) Serve(ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// Turns wait on the model and the calendar.
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = ln.Close()
		return http.ErrServerClosed
	}
	s.httpServer = srv
	s.addr = ln.Addr().String()
	s.mu.Unlock()

	s.health.SetReady(true)
	s.logger.Info("starting chat server", "addr", ln.Addr().String())
	return srv.Serve(ln)
}

// Addr returns the listen address, resolved once serving.
func (s *ChatServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Shutdown fails readiness and drains in-flight requests.
func (s *ChatServer) Shutdown(ctx context.Context) error {
	s.health.MarkShuttingDown()

	s.mu.Lock()
	s.closed = true
	srv := s.httpServer
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	s.logger.Info("shutting down chat server")
	return srv.Shutdown(ctx)
}

// session returns the request's session ID, issuing a new cookie when the
// request carries none or an invalid one.
func (s *ChatServer) session(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(SessionCookieName); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}

	id := s.newSessionID()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func (s *ChatServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	id := s.session(w, r)
	if err := s.chat.Ensure(r.Context(), id); err != nil {
		s.logger.Error("failed to initialize session", logging.Session(id), logging.Err(err))
		http.Error(w, "failed to initialize session", http.StatusInternalServerError)
		return
	}

	data := struct {
		Title string
		Model string
	}{
		Title: "Calendar Agent",
		Model: s.model,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, data); err != nil {
		s.logger.Error("failed to render index", logging.Err(err))
	}
}

func (s *ChatServer) handleChat(w http.ResponseWriter, r *http.Request) {
	id := s.session(w, r)

	// Malformed bodies are treated as an absent message.
	var req chatRequest
	_ = json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBody)).Decode(&req)

	if strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: errNoMessage})
		return
	}

	reply, err := s.chat.Send(r.Context(), id, req.Message)
	if err != nil {
		s.logger.Error("chat turn failed", logging.Session(id), logging.Err(err))
		writeJSON(w, http.StatusInternalServerError, chatResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Response: reply, Success: true})
}

func (s *ChatServer) handleClear(w http.ResponseWriter, r *http.Request) {
	id := s.session(w, r)
	if err := s.chat.Clear(r.Context(), id); err != nil {
		s.logger.Error("failed to clear session", logging.Session(id), logging.Err(err))
		writeJSON(w, http.StatusInternalServerError, chatResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Success: true})
}

// ListenAndServe runs the chat server and, when non-nil, the metrics server
// until ctx is cancelled, then shuts both down.
func ListenAndServe(ctx context.Context, chat *ChatServer, metrics *MetricsServer) error {
	errCh := make(chan error, 2)
	go func() { errCh <- chat.Start() }()
	if metrics != nil {
		go func() { errCh <- metrics.Start() }()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()

	var shutdownErr error
	if err := chat.Shutdown(shutdownCtx); err != nil {
		shutdownErr = err
	}
	if metrics != nil {
		if err := metrics.Shutdown(shutdownCtx); err != nil {
			shutdownErr = errors.Join(shutdownErr, err)
		}
	}
	return errors.Join(runErr, shutdownErr)
}
