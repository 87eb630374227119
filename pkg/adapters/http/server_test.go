package http_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/accreq/internal/pages"
	httpadapter "github.com/aretw0/accreq/pkg/adapters/http"
	"github.com/aretw0/accreq/pkg/adapters/memory"
	"github.com/aretw0/accreq/pkg/adapters/sqlstore"
	"github.com/aretw0/accreq/pkg/domain"
	"github.com/aretw0/accreq/pkg/observability"
	"github.com/aretw0/accreq/pkg/page"
	"github.com/aretw0/accreq/pkg/ports"
	"github.com/aretw0/accreq/pkg/render"
	"github.com/aretw0/accreq/pkg/session"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	db      *sqlx.DB
	handler http.Handler
	site    *domain.SiteConfiguration
}

type harnessOptions struct {
	resolver       httpadapter.PageResolver
	sessions       ports.SessionStore
	identityHeader string
}

func newHarness(t *testing.T, resolver httpadapter.PageResolver) *harness {
	t.Helper()
	return newHarnessWith(t, harnessOptions{
		resolver:       resolver,
		sessions:       memory.NewStore(),
		identityHeader: "X-Remote-User",
	})
}

func newHarnessWith(t *testing.T, opts harnessOptions) *harness {
	t.Helper()
	db, err := sqlstore.Open(sqlstore.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqlstore.Migrate(db, sqlstore.Up))

	renderer, err := render.New()
	require.NoError(t, err)

	resolver := opts.resolver
	if resolver == nil {
		resolver = pages.Default()
	}
	metrics := observability.NewMetrics()
	site := &domain.SiteConfiguration{BaseURL: "https://tool.example", ScriptPath: "/app", ToolName: "ACC"}
	srv := httpadapter.NewServer(
		httpadapter.Config{Site: site, SessionTTL: time.Hour, IdentityHeader: opts.identityHeader},
		resolver,
		page.NewLifecycle(renderer, page.WithLifecycleHooks(metrics.Hooks())),
		renderer,
		func() ports.Store { return sqlstore.NewHandle(db) },
		session.NewManager(opts.sessions),
		httpadapter.WithMetrics(metrics.Handler()),
		httpadapter.WithHealthCheck(db.PingContext),
	)
	return &harness{db: db, handler: srv.Handler(), site: site}
}

func (h *harness) do(t *testing.T, req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func (h *harness) createUser(t *testing.T, u *domain.User) {
	t.Helper()
	require.NoError(t, sqlstore.NewHandle(h.db).Users().Create(context.Background(), u))
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "accreq_session" {
			return c
		}
	}
	t.Fatal("no session cookie issued")
	return nil
}

func TestServer_Dashboard(t *testing.T) {
	h := newHarness(t, nil)

	for _, target := range []string{"/app", "/app/", "/app/main"} {
		rec := h.do(t, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusOK, rec.Code, target)
		assert.Contains(t, rec.Body.String(), "You are not logged in.", target)
		assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	}
}

func TestServer_SessionCookieReused(t *testing.T) {
	h := newHarness(t, nil)

	first := h.do(t, httptest.NewRequest(http.MethodGet, "/app/", nil))
	cookie := sessionCookie(t, first)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, "/app", cookie.Path)

	second := h.do(t, httptest.NewRequest(http.MethodGet, "/app/", nil), cookie)
	assert.Empty(t, second.Result().Cookies(), "an existing session keeps its cookie")
}

func TestServer_NotFound(t *testing.T) {
	h := newHarness(t, nil)

	rec := h.do(t, httptest.NewRequest(http.MethodGet, "/app/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(t, httptest.NewRequest(http.MethodGet, "/app/preferences/explode", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "proposed route &#39;explode&#39; is not callable on page &#39;preferences&#39;")
}

func TestServer_AccessDenied(t *testing.T) {
	h := newHarness(t, nil)

	rec := h.do(t, httptest.NewRequest(http.MethodGet, "/app/preferences", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Access Denied")

	h.createUser(t, &domain.User{Username: "alice", Status: domain.StatusUser})
	req := httptest.NewRequest(http.MethodGet, "/app/emailManagement/create", nil)
	req.Header.Set("X-Remote-User", "alice")
	rec = h.do(t, req)
	assert.Equal(t, http.StatusForbidden, rec.Code, "create is admin only")
}

func TestServer_ProvisionsNewUser(t *testing.T) {
	h := newHarness(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/app/", nil)
	req.Header.Set("X-Remote-User", "newbie")
	rec := h.do(t, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Account Requested!")

	u, err := sqlstore.NewHandle(h.db).Users().GetByUsername(context.Background(), "newbie")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNew, u.Status)

	// The session remembers the user without the header.
	rec = h.do(t, httptest.NewRequest(http.MethodGet, "/app/", nil), sessionCookie(t, rec))
	assert.Contains(t, rec.Body.String(), "Welcome back, newbie.")
}

func TestServer_PostRedirectGet(t *testing.T) {
	h := newHarness(t, nil)
	h.createUser(t, &domain.User{Username: "alice", Status: domain.StatusUser})

	form := url.Values{"sig": {"~~alice"}, "email": {"alice@example.org"}}
	req := httptest.NewRequest(http.MethodPost, "/app/preferences", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Remote-User", "alice")
	rec := h.do(t, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/app/", rec.Header().Get("Location"))
	assert.Empty(t, rec.Body.String())

	// The alert survives the redirect and is shown once.
	cookie := sessionCookie(t, rec)
	rec = h.do(t, httptest.NewRequest(http.MethodGet, "/app/", nil), cookie)
	assert.Contains(t, rec.Body.String(), "Preferences updated!")

	rec = h.do(t, httptest.NewRequest(http.MethodGet, "/app/", nil), cookie)
	assert.NotContains(t, rec.Body.String(), "Preferences updated!")

	u, err := sqlstore.NewHandle(h.db).Users().GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "~~alice", u.WelcomeSig)
}

func TestServer_BusinessRuleViolation(t *testing.T) {
	h := newHarness(t, nil)
	h.createUser(t, &domain.User{Username: "alice", Status: domain.StatusUser, Email: "alice@example.org"})

	form := url.Values{"sig": {"changed"}, "email": {"nope"}}
	req := httptest.NewRequest(http.MethodPost, "/app/preferences", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Remote-User", "alice")
	rec := h.do(t, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Location"))
	assert.Contains(t, rec.Body.String(), "Invalid email address")

	u, err := sqlstore.NewHandle(h.db).Users().GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Empty(t, u.WelcomeSig, "nothing from the failed action was kept")
}

// flakyStore fails every Save while broken is set.
type flakyStore struct {
	*memory.Store
	broken atomic.Bool
}

func (s *flakyStore) Save(ctx context.Context, sess *domain.Session) error {
	if s.broken.Load() {
		return errors.New("disk full")
	}
	return s.Store.Save(ctx, sess)
}

func TestServer_SessionSaveFailure(t *testing.T) {
	store := &flakyStore{Store: memory.NewStore()}
	h := newHarnessWith(t, harnessOptions{sessions: store, identityHeader: "X-Remote-User"})
	h.createUser(t, &domain.User{Username: "alice", Status: domain.StatusUser})

	form := url.Values{"sig": {"~~alice"}}
	req := httptest.NewRequest(http.MethodPost, "/app/preferences", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Remote-User", "alice")
	rec := h.do(t, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	cookie := sessionCookie(t, rec)

	// The page drains the alert, but the drained session cannot be saved.
	store.broken.Store(true)
	rec = h.do(t, httptest.NewRequest(http.MethodGet, "/app/", nil), cookie)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Unrecoverable error")
	assert.NotContains(t, rec.Body.String(), "Preferences updated!")
	assert.Equal(t, 1, strings.Count(rec.Body.String(), "</html>"), "exactly one document is written")

	// The alert was never consumed, so it is shown once the store recovers.
	store.broken.Store(false)
	rec = h.do(t, httptest.NewRequest(http.MethodGet, "/app/", nil), cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Preferences updated!")

	rec = h.do(t, httptest.NewRequest(http.MethodGet, "/app/", nil), cookie)
	assert.NotContains(t, rec.Body.String(), "Preferences updated!")
}

func TestServer_IdentityHeaderIgnoredUnlessConfigured(t *testing.T) {
	h := newHarnessWith(t, harnessOptions{sessions: memory.NewStore()})
	h.createUser(t, &domain.User{Username: "root", Status: domain.StatusAdmin})

	req := httptest.NewRequest(http.MethodGet, "/app/emailManagement/create", nil)
	req.Header.Set("X-Remote-User", "root")
	rec := h.do(t, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/app/", nil)
	req.Header.Set("X-Remote-User", "root")
	rec = h.do(t, req)
	assert.Contains(t, rec.Body.String(), "You are not logged in.")
}

type resolver map[string]page.Page

func (r resolver) Resolve(name string) (page.Page, bool) {
	p, ok := r[name]
	return p, ok
}

type stubPage struct{ action page.Action }

func (p stubPage) Actions() page.Actions { return page.Actions{page.Main: p.action} }

func (p stubPage) Security(string) domain.SecurityConfiguration { return domain.PublicPage() }

func TestServer_FatalError(t *testing.T) {
	h := newHarness(t, resolver{
		"broken": stubPage{action: func(ctx context.Context, r *page.Request) error {
			if err := r.RedirectURL("/elsewhere"); err != nil {
				return err
			}
			return errors.New("disk on fire")
		}},
	})

	rec := h.do(t, httptest.NewRequest(http.MethodGet, "/app/broken", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Unrecoverable error")
	assert.NotContains(t, rec.Body.String(), "disk on fire")
	assert.Empty(t, rec.Header().Get("Location"))
}

func TestServer_PanicIsRecovered(t *testing.T) {
	h := newHarness(t, resolver{
		"panics": stubPage{action: func(context.Context, *page.Request) error { panic("boom") }},
	})

	rec := h.do(t, httptest.NewRequest(http.MethodGet, "/app/panics", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServer_HealthAndMetrics(t *testing.T) {
	h := newHarness(t, nil)

	rec := h.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	h.do(t, httptest.NewRequest(http.MethodGet, "/app/", nil))

	rec = h.do(t, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `accreq_page_executions_total{outcome="rendered",page="main",route="main"} 1`)
	assert.Contains(t, rec.Body.String(), `accreq_transactions_total{result="commit"} 1`)
}

func TestServer_MethodNotAllowed(t *testing.T) {
	h := newHarness(t, nil)
	rec := h.do(t, httptest.NewRequest(http.MethodDelete, "/app/", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
