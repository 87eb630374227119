package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aretw0/accreq/pkg/domain"
	"github.com/jmoiron/sqlx"
)

const templateColumns = `id, name, text, js_question, default_action, active, preload_only`

// EmailTemplateRepo stores close-reason email templates.
type EmailTemplateRepo struct {
	h *Handle
}

func (r *EmailTemplateRepo) selectAll(ctx context.Context, where string, args ...any) ([]*domain.EmailTemplate, error) {
	var out []*domain.EmailTemplate
	q := r.h.rebind(`SELECT ` + templateColumns + ` FROM email_templates WHERE ` + where + ` ORDER BY id`)
	if err := sqlx.SelectContext(ctx, r.h.ext(), &out, q, args...); err != nil {
		return nil, fmt.Errorf("list email templates: %w", err)
	}
	return out, nil
}

// ListActive returns active, non-preload templates with the given default
// action, except the one with excludeID.
func (r *EmailTemplateRepo) ListActive(ctx context.Context, action domain.DefaultAction, excludeID int64) ([]*domain.EmailTemplate, error) {
	return r.selectAll(ctx, `active = ? AND preload_only = ? AND default_action = ? AND id <> ?`,
		true, false, action, excludeID)
}

// ListAllActive returns every active template matching filter, preload-only
// ones included.
func (r *EmailTemplateRepo) ListAllActive(ctx context.Context, filter domain.TemplateFilter) ([]*domain.EmailTemplate, error) {
	switch {
	case filter.Any:
		return r.selectAll(ctx, `active = ?`, true)
	case filter.NoneOnly:
		return r.selectAll(ctx, `active = ? AND default_action NOT IN (?, ?)`,
			true, domain.ActionCreated, domain.ActionNotCreated)
	default:
		return r.selectAll(ctx, `active = ? AND default_action = ?`, true, filter.Action)
	}
}

func (r *EmailTemplateRepo) ListInactive(ctx context.Context) ([]*domain.EmailTemplate, error) {
	return r.selectAll(ctx, `active = ?`, false)
}

func (r *EmailTemplateRepo) get(ctx context.Context, where string, arg any) (*domain.EmailTemplate, error) {
	var t domain.EmailTemplate
	q := r.h.rebind(`SELECT ` + templateColumns + ` FROM email_templates WHERE ` + where)
	if err := sqlx.GetContext(ctx, r.h.ext(), &t, q, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get email template: %w", err)
	}
	return &t, nil
}

func (r *EmailTemplateRepo) GetByID(ctx context.Context, id int64) (*domain.EmailTemplate, error) {
	return r.get(ctx, `id = ?`, id)
}

func (r *EmailTemplateRepo) GetByName(ctx context.Context, name string) (*domain.EmailTemplate, error) {
	return r.get(ctx, `name = ?`, name)
}

// Save inserts t when its ID is zero, setting the ID, and updates it otherwise.
func (r *EmailTemplateRepo) Save(ctx context.Context, t *domain.EmailTemplate) error {
	if t.ID == 0 {
		q := r.h.rebind(`INSERT INTO email_templates (name, text, js_question, default_action, active, preload_only)
		VALUES (?, ?, ?, ?, ?, ?) RETURNING id`)
		err := sqlx.GetContext(ctx, r.h.ext(), &t.ID, q,
			t.Name, t.Text, t.JSQuestion, t.DefaultAction, t.Active, t.PreloadOnly)
		if err != nil {
			return fmt.Errorf("insert email template %q: %w", t.Name, err)
		}
		return nil
	}

	q := r.h.rebind(`UPDATE email_templates
	SET name = ?, text = ?, js_question = ?, default_action = ?, active = ?, preload_only = ?
	WHERE id = ?`)
	res, err := r.h.ext().ExecContext(ctx, q,
		t.Name, t.Text, t.JSQuestion, t.DefaultAction, t.Active, t.PreloadOnly, t.ID)
	if err != nil {
		return fmt.Errorf("update email template %d: %w", t.ID, err)
	}
	return expectOne(res)
}

// Delete always fails; templates are deactivated instead.
func (r *EmailTemplateRepo) Delete(ctx context.Context, t *domain.EmailTemplate) error {
	return domain.ErrDeleteForbidden
}
