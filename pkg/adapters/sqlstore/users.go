package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aretw0/accreq/pkg/domain"
	"github.com/jmoiron/sqlx"
)

const userColumns = `id, username, email, status, welcome_sig, email_sig, abort_pref`

// UserRepo stores tool accounts.
type UserRepo struct {
	h *Handle
}

func (r *UserRepo) get(ctx context.Context, where string, arg any) (*domain.User, error) {
	var u domain.User
	q := r.h.rebind(`SELECT ` + userColumns + ` FROM users WHERE ` + where)
	if err := sqlx.GetContext(ctx, r.h.ext(), &u, q, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.get(ctx, `id = ?`, id)
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.get(ctx, `username = ?`, username)
}

// Create inserts u and sets its ID.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	if u.Status == "" {
		u.Status = domain.StatusNew
	}
	q := r.h.rebind(`INSERT INTO users (username, email, status, welcome_sig, email_sig, abort_pref)
	VALUES (?, ?, ?, ?, ?, ?) RETURNING id`)
	err := sqlx.GetContext(ctx, r.h.ext(), &u.ID, q,
		u.Username, u.Email, u.Status, u.WelcomeSig, u.EmailSig, u.AbortPref)
	if err != nil {
		return fmt.Errorf("create user %s: %w", u.Username, err)
	}
	return nil
}

func (r *UserRepo) Save(ctx context.Context, u *domain.User) error {
	q := r.h.rebind(`UPDATE users SET email = ?, status = ?, welcome_sig = ?, email_sig = ?, abort_pref = ?
	WHERE id = ?`)
	res, err := r.h.ext().ExecContext(ctx, q, u.Email, u.Status, u.WelcomeSig, u.EmailSig, u.AbortPref, u.ID)
	if err != nil {
		return fmt.Errorf("save user %d: %w", u.ID, err)
	}
	return expectOne(res)
}

func (r *UserRepo) List(ctx context.Context) ([]*domain.User, error) {
	var users []*domain.User
	if err := sqlx.SelectContext(ctx, r.h.ext(), &users, `SELECT `+userColumns+` FROM users ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
