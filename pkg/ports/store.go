package ports

import (
	"context"

	"github.com/aretw0/accreq/pkg/domain"
)

// TransactionalStore is the database handle owned by one request.
// At most one transaction is active at a time.
type TransactionalStore interface {
	// BeginTransaction opens the request transaction. Any error means no
	// transaction was opened.
	BeginTransaction(ctx context.Context) error

	// Commit closes the active transaction, keeping its changes.
	Commit(ctx context.Context) error

	// Rollback closes the active transaction, discarding its changes.
	Rollback(ctx context.Context) error

	// HasActiveTransaction reports whether a transaction is open.
	HasActiveTransaction() bool
}

// UserRepository persists tool accounts.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	Save(ctx context.Context, u *domain.User) error
	List(ctx context.Context) ([]*domain.User, error)
}

// EmailTemplateRepository persists close-reason email templates.
type EmailTemplateRepository interface {
	// ListActive returns active, non-preload templates with the given default
	// action, excluding the template with excludeID.
	ListActive(ctx context.Context, action domain.DefaultAction, excludeID int64) ([]*domain.EmailTemplate, error)
	// ListAllActive returns active templates (preload ones included) matching filter.
	ListAllActive(ctx context.Context, filter domain.TemplateFilter) ([]*domain.EmailTemplate, error)
	ListInactive(ctx context.Context) ([]*domain.EmailTemplate, error)
	GetByID(ctx context.Context, id int64) (*domain.EmailTemplate, error)
	GetByName(ctx context.Context, name string) (*domain.EmailTemplate, error)
	// Save inserts templates with a zero ID and updates the others.
	Save(ctx context.Context, t *domain.EmailTemplate) error
	// Delete always fails with domain.ErrDeleteForbidden.
	Delete(ctx context.Context, t *domain.EmailTemplate) error
}

// Store is the per-request database handle: a transactional store whose
// repositories run inside its transaction when one is active.
type Store interface {
	TransactionalStore
	Users() UserRepository
	EmailTemplates() EmailTemplateRepository
}

// SessionStore defines the interface for persisting sessions between requests.
type SessionStore interface {
	// Save persists the session under its ID.
	Save(ctx context.Context, session *domain.Session) error

	// Load retrieves a session.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Session, error)

	// Delete removes a session.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of the stored sessions.
	List(ctx context.Context) ([]string, error)
}
