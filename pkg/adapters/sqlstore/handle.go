package sqlstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/accreq/pkg/ports"
	"github.com/jmoiron/sqlx"
)

var errNoTransaction = errors.New("no active transaction")

// Handle is the database handle of one request. Repositories obtained from
// it run inside the request transaction while one is active. A Handle is not
// safe for concurrent use.
type Handle struct {
	db *sqlx.DB
	tx *sqlx.Tx
}

// NewHandle creates a request handle over the shared pool.
func NewHandle(db *sqlx.DB) *Handle {
	return &Handle{db: db}
}

// BeginTransaction opens the request transaction.
func (h *Handle) BeginTransaction(ctx context.Context) error {
	if h.tx != nil {
		return errors.New("transaction already active")
	}
	tx, err := h.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	h.tx = tx
	return nil
}

// Commit closes the active transaction, keeping its changes. The transaction
// is closed even when the commit fails.
func (h *Handle) Commit(ctx context.Context) error {
	if h.tx == nil {
		return errNoTransaction
	}
	tx := h.tx
	h.tx = nil
	return tx.Commit()
}

// Rollback closes the active transaction, discarding its changes.
func (h *Handle) Rollback(ctx context.Context) error {
	if h.tx == nil {
		return errNoTransaction
	}
	tx := h.tx
	h.tx = nil
	return tx.Rollback()
}

// HasActiveTransaction reports whether a transaction is open.
func (h *Handle) HasActiveTransaction() bool {
	return h.tx != nil
}

// Users returns the user repository bound to this handle.
func (h *Handle) Users() ports.UserRepository {
	return &UserRepo{h: h}
}

// EmailTemplates returns the email template repository bound to this handle.
func (h *Handle) EmailTemplates() ports.EmailTemplateRepository {
	return &EmailTemplateRepo{h: h}
}

// ext is the executor for the next statement.
func (h *Handle) ext() sqlx.ExtContext {
	if h.tx != nil {
		return h.tx
	}
	return h.db
}

func (h *Handle) rebind(query string) string {
	return h.db.Rebind(query)
}

var _ ports.Store = (*Handle)(nil)
