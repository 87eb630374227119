package page

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/accreq/internal/logging"
	"github.com/aretw0/accreq/internal/typeahead"
	"github.com/aretw0/accreq/pkg/domain"
	"github.com/aretw0/accreq/pkg/ports"
)

// Lifecycle runs routed page requests. It holds no per-request state and is
// safe for concurrent use.
type Lifecycle struct {
	renderer ports.Renderer
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
}

// Option configures the Lifecycle.
type Option func(*Lifecycle)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Lifecycle) {
		l.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(l *Lifecycle) {
		l.hooks = hooks
	}
}

// NewLifecycle creates a Lifecycle that renders through renderer.
func NewLifecycle(renderer ports.Renderer, opts ...Option) *Lifecycle {
	l := &Lifecycle{
		renderer: renderer,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Execute runs the bound action of r inside a transaction and writes the
// result to out.
//
// A BusinessRuleViolation is recovered into the application-error page and
// Execute returns nil. Any other error is returned after the transaction has
// been rolled back; nothing has been rendered in that case, although headers
// may already have been queued on out.
func (l *Lifecycle) Execute(ctx context.Context, r *Request, out Transport) error {
	if r.RouteName() == "" {
		return &domain.ConfigurationError{Reason: "request is unrouted"}
	}
	if r.Site == nil {
		return &domain.ConfigurationError{Reason: "page has no configuration"}
	}
	if r.Store == nil {
		return &domain.ConfigurationError{Reason: "page has no database handle"}
	}
	if l.renderer == nil {
		return &domain.ConfigurationError{Reason: "no renderer configured"}
	}

	start := time.Now()
	if l.hooks.OnPageStart != nil {
		l.hooks.OnPageStart(ctx, &domain.PageEvent{Timestamp: start, Page: r.name, Route: r.routeName})
	}

	l.setup(r)
	outcome, err := l.run(ctx, r, out)

	if err != nil {
		outcome = domain.OutcomeFailed
		l.logger.ErrorContext(ctx, "page execution failed", "page", r.name, "route", r.routeName, "err", err)
	}
	if l.hooks.OnPageFinish != nil {
		l.hooks.OnPageFinish(ctx, &domain.PageEvent{
			Timestamp: time.Now(),
			Page:      r.name,
			Route:     r.routeName,
			Outcome:   outcome,
			Duration:  time.Since(start),
			Err:       err,
		})
	}
	return err
}

// setup primes the template environment. Running it again discards every
// variable assigned since.
func (l *Lifecycle) setup(r *Request) {
	r.vars = map[string]any{
		"baseurl":     r.Site.BaseURL,
		"prefix":      r.Site.ScriptPath,
		"toolName":    r.Site.ToolName,
		"currentUser": r.User,
		"page":        r.name,
		"route":       r.routeName,
	}
	if r.TypeAhead == nil {
		r.TypeAhead = typeahead.New()
	}
}

func (l *Lifecycle) run(ctx context.Context, r *Request, out Transport) (outcome domain.Outcome, err error) {
	if err := r.Store.BeginTransaction(ctx); err != nil {
		return domain.OutcomeFailed, &domain.TransactionError{Err: err}
	}

	// Close any transaction the dispatch left open, even when an action panics.
	defer func() {
		if !r.Store.HasActiveTransaction() {
			return
		}
		l.logger.WarnContext(ctx, "rolling back transaction left open by page", "page", r.name, "route", r.routeName)
		if rbErr := r.Store.Rollback(ctx); rbErr != nil {
			err = errors.Join(err, fmt.Errorf("safety-net rollback: %w", rbErr))
			return
		}
		l.txClosed(ctx, r, domain.TxSafetyNet)
	}()

	recovered, err := l.dispatch(ctx, r)
	if err != nil {
		return domain.OutcomeFailed, err
	}

	l.finalise(r)

	if err := l.emit(r, out); err != nil {
		return domain.OutcomeFailed, err
	}

	switch {
	case recovered:
		return domain.OutcomeRecovered, nil
	case r.template == NoTemplate:
		return domain.OutcomeRedirected, nil
	default:
		return domain.OutcomeRendered, nil
	}
}

// dispatch invokes the bound action and closes the transaction according to
// its result. It reports whether a BusinessRuleViolation was recovered.
func (l *Lifecycle) dispatch(ctx context.Context, r *Request) (bool, error) {
	l.logger.DebugContext(ctx, "dispatching page action", "page", r.name, "route", r.routeName)

	actErr := r.action(ctx, r)
	if actErr == nil {
		if err := r.Store.Commit(ctx); err != nil {
			return false, fmt.Errorf("commit page transaction: %w", err)
		}
		l.txClosed(ctx, r, domain.TxCommitted)
		return false, nil
	}

	if rbErr := r.Store.Rollback(ctx); rbErr != nil {
		return false, errors.Join(actErr, fmt.Errorf("rollback page transaction: %w", rbErr))
	}
	l.txClosed(ctx, r, domain.TxRolledBack)

	var violation *domain.BusinessRuleViolation
	if !errors.As(actErr, &violation) {
		return false, actErr
	}

	l.logger.InfoContext(ctx, "recovered from business rule violation",
		"page", r.name, "route", r.routeName, "message", violation.Message)
	l.recoverViolation(r, violation)
	return true, nil
}

// recoverViolation replaces whatever the failed action decided with the generic
// application-error page, dropping its variables and type-ahead sources.
func (l *Lifecycle) recoverViolation(r *Request, violation *domain.BusinessRuleViolation) {
	r.redirecting = false
	r.headers = nil
	r.TypeAhead = typeahead.New()
	l.setup(r)
	r.template = ApplicationErrorTemplate
	r.Assign("message", violation.Message)
}

// finalise attaches the data every rendered page shows.
func (l *Lifecycle) finalise(r *Request) {
	if r.redirecting {
		r.template = NoTemplate
		return
	}

	if r.User.IsNew() && !r.accountAlerted && r.Alerts != nil {
		r.Alerts.Append(domain.AccountRequestedAlert())
		r.accountAlerted = true
	}

	alerts := []domain.Alert{}
	if r.Alerts != nil {
		alerts = r.Alerts.Drain()
	}
	r.Assign("alerts", alerts)
	r.Assign("htmlTitle", r.htmlTitle)
	r.Assign("typeAheadBlock", r.TypeAhead.ScriptBlock())
}

// emit sends the header queue, then the rendered template if there is one.
func (l *Lifecycle) emit(r *Request, out Transport) error {
	for _, line := range r.headers {
		if err := out.Header(line); err != nil {
			return fmt.Errorf("send header: %w", err)
		}
	}

	if r.template == NoTemplate {
		return nil
	}

	content, err := l.renderer.Render(r.template, r.Vars())
	if err != nil {
		return fmt.Errorf("render template %s: %w", r.template, err)
	}

	out.Reset()
	if _, err := out.Write([]byte(content)); err != nil {
		return fmt.Errorf("write page body: %w", err)
	}
	return out.Flush()
}

func (l *Lifecycle) txClosed(ctx context.Context, r *Request, result domain.TxResult) {
	l.logger.DebugContext(ctx, "page transaction closed", "page", r.name, "result", result)
	if l.hooks.OnTxClose != nil {
		l.hooks.OnTxClose(ctx, &domain.TxEvent{Timestamp: time.Now(), Page: r.name, Result: result})
	}
}
