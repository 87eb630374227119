// Package http serves the tool's pages over HTTP with chi.
package http

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/accreq/internal/logging"
	"github.com/aretw0/accreq/pkg/domain"
	"github.com/aretw0/accreq/pkg/page"
	"github.com/aretw0/accreq/pkg/ports"
	"github.com/aretw0/accreq/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

const (
	accessDeniedTemplate = "exception/access-denied"
	fatalTemplate        = "exception/fatal"
)

var _ page.Transport = (*ResponseTransport)(nil)

// PageResolver finds the page registered under a name.
type PageResolver interface {
	Resolve(name string) (page.Page, bool)
}

// StoreFactory opens the database handle of one request.
type StoreFactory func() ports.Store

// Config holds the request-level settings of the server.
type Config struct {
	Site *domain.SiteConfiguration

	CookieName   string
	CookieSecure bool
	SessionTTL   time.Duration

	// IdentityHeader carries the username authenticated by a fronting proxy.
	// Empty ignores identity headers.
	IdentityHeader string
}

// Server routes requests to pages and runs them through the lifecycle.
type Server struct {
	cfg       Config
	pages     PageResolver
	lifecycle *page.Lifecycle
	renderer  ports.Renderer
	stores    StoreFactory
	sessions  *session.Manager

	logger  *slog.Logger
	metrics http.Handler
	health  func(context.Context) error
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics exposes h on /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithHealthCheck makes /health report the result of check.
func WithHealthCheck(check func(context.Context) error) Option {
	return func(s *Server) {
		s.health = check
	}
}

// NewServer creates a Server.
func NewServer(cfg Config, pages PageResolver, lifecycle *page.Lifecycle, renderer ports.Renderer,
	stores StoreFactory, sessions *session.Manager, opts ...Option) *Server {
	if cfg.CookieName == "" {
		cfg.CookieName = "accreq_session"
	}
	s := &Server{
		cfg:       cfg,
		pages:     pages,
		lifecycle: lifecycle,
		renderer:  renderer,
		stores:    stores,
		sessions:  sessions,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the router: pages under the site's script path, plus
// /health and /metrics.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	routes := func(r chi.Router) {
		r.HandleFunc("/", s.handlePage)
		r.HandleFunc("/{page}", s.handlePage)
		r.HandleFunc("/{page}/{action}", s.handlePage)
	}
	if prefix := s.cfg.Site.ScriptPath; prefix != "" {
		r.Route(prefix, routes)
	} else {
		routes(r)
	}
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			s.logger.WarnContext(r.Context(), "health check failed", "err", err)
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD, POST")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	sessionID := s.sessionID(w, r)

	// Nothing reaches the client until the session, with its drained
	// alerts, has been saved.
	res := newDeferredResponse()
	err := s.sessions.Update(ctx, sessionID, func(ctx context.Context, sess *domain.Session) error {
		s.serve(ctx, res, r, sess)
		return nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "session unavailable", "session_id", sessionID, "err", err)
		s.renderError(w, r, http.StatusInternalServerError, fatalTemplate, nil, nil)
		return
	}
	if err := res.commit(w); err != nil {
		s.logger.WarnContext(ctx, "write response", "err", err)
	}
}

// serve runs one page request while the session lock is held.
func (s *Server) serve(ctx context.Context, w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	store := s.stores()
	user, err := s.identify(ctx, store, sess, r)
	if err != nil {
		s.logger.ErrorContext(ctx, "identify user", "err", err)
		s.renderError(w, r, http.StatusInternalServerError, fatalTemplate, nil, nil)
		return
	}

	name := chi.URLParam(r, "page")
	if name == "" {
		name = page.Main
	}
	route := chi.URLParam(r, "action")
	if route == "" {
		route = page.Main
	}

	p, ok := s.pages.Resolve(name)
	if !ok {
		s.notFound(w, r, user, &domain.RoutingError{Page: name, Route: route})
		return
	}

	req := page.NewRequest(name, p)
	req.HTTP = r
	req.Site = s.cfg.Site
	req.User = user
	req.Store = store
	req.Alerts = session.NewAlerts(sess)

	if err := req.SetRoute(route); err != nil {
		s.notFound(w, r, user, err)
		return
	}

	if !p.Security(route).Allows(user) {
		s.logger.InfoContext(ctx, "access denied", "page", name, "route", route, "user", user.Username)
		s.renderError(w, r, http.StatusForbidden, accessDeniedTemplate, user, nil)
		return
	}

	out := NewResponseTransport(w)
	if err := s.lifecycle.Execute(ctx, req, out); err != nil {
		if !out.Discard() {
			return
		}
		s.renderError(w, r, http.StatusInternalServerError, fatalTemplate, user, nil)
		return
	}
	out.Finish()
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request, user *domain.User, err error) {
	s.logger.DebugContext(r.Context(), "no such page", "path", r.URL.Path, "err", err)
	s.renderError(w, r, http.StatusNotFound, page.ApplicationErrorTemplate, user, map[string]any{
		"message": err.Error(),
	})
}

// identify resolves the current user from the identity header, then the
// session. Unknown usernames are provisioned as new account requests.
func (s *Server) identify(ctx context.Context, store ports.Store, sess *domain.Session, r *http.Request) (*domain.User, error) {
	users := store.Users()

	if s.cfg.IdentityHeader != "" {
		if username := r.Header.Get(s.cfg.IdentityHeader); username != "" {
			u, err := users.GetByUsername(ctx, username)
			if errors.Is(err, domain.ErrNotFound) {
				u = &domain.User{Username: username, Status: domain.StatusNew}
				if err := users.Create(ctx, u); err != nil {
					return nil, fmt.Errorf("provision user %s: %w", username, err)
				}
				s.logger.InfoContext(ctx, "provisioned account request", "user", username, "id", u.ID)
			} else if err != nil {
				return nil, err
			}
			sess.UserID = u.ID
			return u, nil
		}
	}

	if sess.UserID == domain.CommunityUserID {
		return domain.CommunityUser(), nil
	}
	u, err := users.GetByID(ctx, sess.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		sess.UserID = domain.CommunityUserID
		return domain.CommunityUser(), nil
	}
	return u, err
}

// sessionID returns the browser's session ID, issuing a new cookie when it
// has none or an invalid one.
func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(s.cfg.CookieName); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}

	id := uuid.NewString()
	path := s.cfg.Site.ScriptPath
	if path == "" {
		path = "/"
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    id,
		Path:     path,
		MaxAge:   int(s.cfg.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// renderError writes one of the exception pages outside the page lifecycle.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, name string, user *domain.User, extra map[string]any) {
	if user == nil {
		user = domain.CommunityUser()
	}
	vars := map[string]any{
		"baseurl":        s.cfg.Site.BaseURL,
		"prefix":         s.cfg.Site.ScriptPath,
		"toolName":       s.cfg.Site.ToolName,
		"currentUser":    user,
		"alerts":         []domain.Alert{},
		"htmlTitle":      http.StatusText(status),
		"typeAheadBlock": template.HTML(""),
		"requestID":      middleware.GetReqID(r.Context()),
	}
	for k, v := range extra {
		vars[k] = v
	}

	body, err := s.renderer.Render(name, vars)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "render error page", "template", name, "err", err)
		http.Error(w, http.StatusText(status), status)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.logger.InfoContext(r.Context(), "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}
