package domain

import (
	"context"
	"time"
)

// Outcome is how a page execution ended.
type Outcome string

const (
	OutcomeRendered   Outcome = "rendered"
	OutcomeRedirected Outcome = "redirected"
	OutcomeRecovered  Outcome = "recovered"
	OutcomeFailed     Outcome = "failed"
)

// TxResult is how the request transaction was closed.
type TxResult string

const (
	TxCommitted  TxResult = "commit"
	TxRolledBack TxResult = "rollback"
	// TxSafetyNet marks a rollback of a transaction left open after dispatch.
	TxSafetyNet TxResult = "safety_net"
)

// PageEvent describes one page execution.
type PageEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	Page      string        `json:"page"`
	Route     string        `json:"route"`
	Outcome   Outcome       `json:"outcome,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
	Err       error         `json:"-"`
}

// TxEvent describes the end of a request transaction.
type TxEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Page      string    `json:"page"`
	Result    TxResult  `json:"result"`
}

// LifecycleHooks defines callbacks for page lifecycle observability.
type LifecycleHooks struct {
	OnPageStart  func(context.Context, *PageEvent)
	OnPageFinish func(context.Context, *PageEvent)
	OnTxClose    func(context.Context, *TxEvent)
}
