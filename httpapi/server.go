// Package httpapi exposes the search service over HTTP: the search action
// endpoint the widget posts to, the widget bootstrap document, health and
// Prometheus metrics.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/letmevibethatforyou/postsearch"
	"github.com/letmevibethatforyou/postsearch/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SessionCookie names the cookie that identifies a visitor's session. Nonces
// are bound to its value; requests without it are anonymous.
const SessionCookie = "ips_session"

const maxFormBytes = 64 << 10

// Failure codes reported in failure envelopes.
const (
	CodeBadRequest    = "bad_request"
	CodeUnknownAction = "unknown_action"
	CodeInvalidNonce  = "invalid_nonce"
	CodeSearchFailed  = "search_failed"
)

// WidgetDefaults are the settings of widgets requested without overrides.
type WidgetDefaults struct {
	PostsPerPage int
	PostType     string
}

// Server serves the search endpoint.
type Server struct {
	service  *service.Service
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *Metrics
	// endpoint is the public URL of the search action. When empty it is
	// derived from the incoming request.
	endpoint string
	defaults WidgetDefaults
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithEndpoint sets the public search URL handed to widgets.
func WithEndpoint(endpoint string) Option {
	return func(s *Server) {
		s.endpoint = endpoint
	}
}

// WithWidgetDefaults sets the settings of widgets requested without overrides.
func WithWidgetDefaults(defaults WidgetDefaults) Option {
	return func(s *Server) {
		s.defaults = defaults
	}
}

// WithRegistry sets the registry metrics are registered with and served from.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.registry = reg
	}
}

// NewServer creates a Server for svc.
func NewServer(svc *service.Service, opts ...Option) *Server {
	s := &Server{
		service: svc,
		logger:  slog.Default(),
		defaults: WidgetDefaults{
			PostsPerPage: postsearch.DefaultPostsPerPage,
			PostType:     postsearch.DefaultPostType,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}
	s.metrics = NewMetrics(s.registry)
	return s
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return mux
}

// RegisterRoutes adds the server's routes to mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /search", s.HandleSearch)
	mux.HandleFunc("GET /widget", s.HandleWidget)
	mux.HandleFunc("GET /healthz", s.HandleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.ErrorContext(r.Context(), "failed to encode JSON response", "error", err)
	}
}

func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	s.writeJSON(w, r, status, postsearch.NewFailureEnvelope(code, message))
}

func session(r *http.Request) string {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	return c.Value
}
