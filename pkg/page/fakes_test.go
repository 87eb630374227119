package page_test

import (
	"bytes"
	"context"
	"errors"

	"github.com/aretw0/accreq/pkg/domain"
	"github.com/aretw0/accreq/pkg/page"
	"github.com/aretw0/accreq/pkg/ports"
	"github.com/stretchr/testify/mock"
)

// fakeStore records every transaction call.
type fakeStore struct {
	calls     []string
	active    bool
	beginErr  error
	commitErr error
}

func (s *fakeStore) BeginTransaction(ctx context.Context) error {
	s.calls = append(s.calls, "begin")
	if s.beginErr != nil {
		return s.beginErr
	}
	if s.active {
		return errors.New("transaction already active")
	}
	s.active = true
	return nil
}

func (s *fakeStore) Commit(ctx context.Context) error {
	s.calls = append(s.calls, "commit")
	if s.commitErr != nil {
		return s.commitErr
	}
	s.active = false
	return nil
}

func (s *fakeStore) Rollback(ctx context.Context) error {
	s.calls = append(s.calls, "rollback")
	s.active = false
	return nil
}

func (s *fakeStore) HasActiveTransaction() bool { return s.active }

func (s *fakeStore) Users() ports.UserRepository { return nil }

func (s *fakeStore) EmailTemplates() ports.EmailTemplateRepository { return nil }

// recordingTransport captures what the lifecycle emits.
type recordingTransport struct {
	headers []string
	body    bytes.Buffer
	resets  int
	flushes int
	flushed string
}

func (t *recordingTransport) Header(line string) error {
	t.headers = append(t.headers, line)
	return nil
}

func (t *recordingTransport) Reset() {
	t.resets++
	t.body.Reset()
}

func (t *recordingTransport) Write(p []byte) (int, error) {
	return t.body.Write(p)
}

func (t *recordingTransport) Flush() error {
	t.flushes++
	t.flushed += t.body.String()
	t.body.Reset()
	return nil
}

type fakeAlerts struct {
	queue []domain.Alert
}

func (a *fakeAlerts) Append(alert domain.Alert) {
	a.queue = append(a.queue, alert)
}

func (a *fakeAlerts) Drain() []domain.Alert {
	out := a.queue
	a.queue = nil
	if out == nil {
		out = []domain.Alert{}
	}
	return out
}

type mockRenderer struct {
	mock.Mock
}

func (m *mockRenderer) Render(name string, vars map[string]any) (string, error) {
	args := m.Called(name, vars)
	return args.String(0), args.Error(1)
}

// testPage exposes an arbitrary action table.
type testPage struct {
	actions page.Actions
}

func (p *testPage) Actions() page.Actions { return p.actions }

func (p *testPage) Security(string) domain.SecurityConfiguration { return domain.PublicPage() }

type fixture struct {
	store     *fakeStore
	alerts    *fakeAlerts
	renderer  *mockRenderer
	out       *recordingTransport
	lifecycle *page.Lifecycle
	events    []*domain.PageEvent
	txEvents  []*domain.TxEvent
}

func newFixture() *fixture {
	f := &fixture{
		store:    &fakeStore{},
		alerts:   &fakeAlerts{},
		renderer: &mockRenderer{},
		out:      &recordingTransport{},
	}
	f.lifecycle = page.NewLifecycle(f.renderer, page.WithLifecycleHooks(domain.LifecycleHooks{
		OnPageFinish: func(_ context.Context, e *domain.PageEvent) { f.events = append(f.events, e) },
		OnTxClose:    func(_ context.Context, e *domain.TxEvent) { f.txEvents = append(f.txEvents, e) },
	}))
	return f
}

// request builds a routed request for a page whose main action is action.
func (f *fixture) request(action page.Action, user *domain.User) *page.Request {
	r := page.NewRequest("test", &testPage{actions: page.Actions{page.Main: action}})
	r.Site = &domain.SiteConfiguration{BaseURL: "https://tool.example", ScriptPath: "/app", ToolName: "ACC"}
	r.Store = f.store
	r.Alerts = f.alerts
	r.User = user
	if err := r.SetRoute(page.Main); err != nil {
		panic(err)
	}
	return r
}
