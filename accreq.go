package accreq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aretw0/accreq/internal/config"
	"github.com/aretw0/accreq/internal/logging"
	"github.com/aretw0/accreq/internal/pages"
	"github.com/aretw0/accreq/pkg/adapters/file"
	httpadapter "github.com/aretw0/accreq/pkg/adapters/http"
	"github.com/aretw0/accreq/pkg/adapters/memory"
	"github.com/aretw0/accreq/pkg/adapters/redis"
	"github.com/aretw0/accreq/pkg/adapters/sqlstore"
	"github.com/aretw0/accreq/pkg/observability"
	"github.com/aretw0/accreq/pkg/page"
	"github.com/aretw0/accreq/pkg/persistence/middleware"
	"github.com/aretw0/accreq/pkg/ports"
	"github.com/aretw0/accreq/pkg/render"
	"github.com/aretw0/accreq/pkg/session"
	"github.com/jmoiron/sqlx"
)

// App is a fully wired instance of the tool.
type App struct {
	cfg      *config.Config
	db       *sqlx.DB
	redis    *redis.Store
	metrics  *observability.Metrics
	sessions *session.Manager
	server   *httpadapter.Server
	logger   *slog.Logger
	pages    httpadapter.PageResolver
}

// Option configures the App.
type Option func(*App)

// WithLogger sets the structured logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

// WithPages replaces the default page registry.
func WithPages(resolver httpadapter.PageResolver) Option {
	return func(a *App) {
		a.pages = resolver
	}
}

// WithDB reuses an open database instead of opening cfg.Database.
func WithDB(db *sqlx.DB) Option {
	return func(a *App) {
		a.db = db
	}
}

// New opens the database, migrates it when configured to, and builds the
// HTTP stack described by cfg.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{cfg: cfg, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	if a.pages == nil {
		a.pages = pages.Default()
	}

	if a.db == nil {
		db, err := sqlstore.Open(cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		a.db = db
	}
	if cfg.Database.AutoMigrate {
		if err := sqlstore.Migrate(a.db, sqlstore.Up); err != nil {
			_ = a.Close()
			return nil, err
		}
	}

	renderer, err := render.New()
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("load templates: %w", err)
	}

	sessions, err := a.sessionManager()
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.sessions = sessions

	a.metrics = observability.NewMetrics()
	lifecycle := page.NewLifecycle(renderer,
		page.WithLogger(a.logger),
		page.WithLifecycleHooks(observability.Chain(a.metrics.Hooks(), observability.LoggingHooks(a.logger))),
	)

	site := cfg.Site
	db := a.db
	a.server = httpadapter.NewServer(
		httpadapter.Config{
			Site:           &site,
			CookieName:     cfg.Session.CookieName,
			CookieSecure:   cfg.Session.Secure,
			SessionTTL:     cfg.Session.TTL,
			IdentityHeader: cfg.Identity.Header,
		},
		a.pages,
		lifecycle,
		renderer,
		func() ports.Store { return sqlstore.NewHandle(db) },
		sessions,
		httpadapter.WithLogger(a.logger),
		httpadapter.WithMetrics(a.metrics.Handler()),
		httpadapter.WithHealthCheck(a.healthy),
	)

	a.logger.Info("application ready",
		"driver", cfg.Database.Driver,
		"sessions", cfg.Session.Backend,
		"script_path", cfg.Site.ScriptPath,
		"version", Version,
	)
	return a, nil
}

func (a *App) sessionManager() (*session.Manager, error) {
	store, err := NewSessionStore(a.cfg)
	if err != nil {
		return nil, err
	}

	opts := []session.Option{session.WithLogger(a.logger)}
	if rs, ok := store.backend.(*redis.Store); ok {
		a.redis = rs
		opts = append(opts, session.WithLocker(redis.NewLocker(rs.Client(), a.cfg.Redis.Prefix+"lock:")))
	}
	return session.NewManager(store, opts...), nil
}

// SessionStore is the configured session backend, possibly wrapped by
// encryption.
type SessionStore struct {
	ports.SessionStore
	backend ports.SessionStore
}

// Close releases the backend connection, if any.
func (s *SessionStore) Close() error {
	if c, ok := s.backend.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// NewSessionStore opens the session backend named by cfg.Session.Backend and
// seals it when an encryption key is configured.
func NewSessionStore(cfg *config.Config) (*SessionStore, error) {
	var backend ports.SessionStore
	switch cfg.Session.Backend {
	case config.SessionRedis:
		rc := cfg.Redis
		backend = redis.New(rc.Addr, rc.Password, rc.DB,
			redis.WithTTL(cfg.Session.TTL),
			redis.WithPrefix(rc.Prefix),
		)
	case config.SessionFile:
		backend = file.New(cfg.Session.Dir, file.WithTTL(cfg.Session.TTL))
	case config.SessionMemory, "":
		backend = memory.NewStore(memory.WithTTL(cfg.Session.TTL))
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}

	store := &SessionStore{SessionStore: backend, backend: backend}
	if cfg.Session.EncryptionKey == "" {
		return store, nil
	}

	keys, err := middleware.ParseKeys(cfg.Session.EncryptionKey, cfg.Session.FallbackKeys)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("session encryption: %w", err)
	}
	seal, err := middleware.NewEncryptionMiddleware(keys)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	store.SessionStore = middleware.Chain(backend, seal)
	return store, nil
}

func (a *App) healthy(ctx context.Context) error {
	if err := a.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if a.redis != nil {
		if err := a.redis.Ping(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.server.Handler()
}

// Sessions returns the session manager.
func (a *App) Sessions() *session.Manager {
	return a.sessions
}

// DB returns the database the app runs against.
func (a *App) DB() *sqlx.DB {
	return a.db
}

// Close releases the database and the redis client.
func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}
