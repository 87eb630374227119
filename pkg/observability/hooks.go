package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/accreq/pkg/domain"
)

// Chain combines hooks so each event reaches every non-nil callback, in order.
func Chain(all ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range all {
		out.OnPageStart = chainPage(out.OnPageStart, h.OnPageStart)
		out.OnPageFinish = chainPage(out.OnPageFinish, h.OnPageFinish)
		out.OnTxClose = chainTx(out.OnTxClose, h.OnTxClose)
	}
	return out
}

func chainPage(a, b func(context.Context, *domain.PageEvent)) func(context.Context, *domain.PageEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *domain.PageEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}

func chainTx(a, b func(context.Context, *domain.TxEvent)) func(context.Context, *domain.TxEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *domain.TxEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}

// LoggingHooks writes one record per finished page execution.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnPageFinish: func(ctx context.Context, e *domain.PageEvent) {
			level := slog.LevelInfo
			if e.Outcome == domain.OutcomeFailed {
				level = slog.LevelError
			}
			logger.Log(ctx, level, "page_finish",
				"page", e.Page,
				"route", e.Route,
				"outcome", e.Outcome,
				"duration", e.Duration,
			)
		},
	}
}
