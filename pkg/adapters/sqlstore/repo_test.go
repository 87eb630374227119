package sqlstore_test

import (
	"context"
	"testing"

	"github.com/aretw0/accreq/pkg/adapters/sqlstore"
	"github.com/aretw0/accreq/pkg/domain"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLite(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlstore.Open(sqlstore.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqlstore.Migrate(db, sqlstore.Up))
	return db
}

func TestMigrate_UpDown(t *testing.T) {
	db := newSQLite(t)

	version, dirty, err := sqlstore.Version(db)
	require.NoError(t, err)
	assert.EqualValues(t, 1, version)
	assert.False(t, dirty)

	require.NoError(t, sqlstore.Migrate(db, sqlstore.Up), "no change is not an error")
	require.NoError(t, sqlstore.Migrate(db, sqlstore.Down))

	version, _, err = sqlstore.Version(db)
	require.NoError(t, err)
	assert.EqualValues(t, 0, version)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := sqlstore.Open("oracle", "x")
	assert.Error(t, err)
}

func TestUserRepo(t *testing.T) {
	h := sqlstore.NewHandle(newSQLite(t))
	users := h.Users()
	ctx := context.Background()

	u := &domain.User{Username: "alice"}
	require.NoError(t, users.Create(ctx, u))
	assert.NotZero(t, u.ID)
	assert.Equal(t, domain.StatusNew, u.Status)

	u.Email = "alice@example.org"
	u.AbortPref = true
	u.WelcomeSig = "~~~~"
	require.NoError(t, users.Save(ctx, u))

	got, err := users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u, got)

	_, err = users.GetByID(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, users.Save(ctx, &domain.User{ID: 999}), domain.ErrNotFound)

	all, err := users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestHandle_RollbackDiscardsWrites(t *testing.T) {
	h := sqlstore.NewHandle(newSQLite(t))
	ctx := context.Background()

	require.NoError(t, h.BeginTransaction(ctx))
	require.NoError(t, h.Users().Create(ctx, &domain.User{Username: "ghost"}))
	require.NoError(t, h.Rollback(ctx))

	_, err := h.Users().GetByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func seedTemplates(t *testing.T, repo interface {
	Save(context.Context, *domain.EmailTemplate) error
}) map[string]*domain.EmailTemplate {
	t.Helper()
	out := map[string]*domain.EmailTemplate{}
	for _, tpl := range []*domain.EmailTemplate{
		{Name: "Created", DefaultAction: domain.ActionCreated, Active: true},
		{Name: "Taken", DefaultAction: domain.ActionNotCreated, Active: true},
		{Name: "Similar", DefaultAction: domain.ActionNotCreated, Active: true},
		{Name: "Preload", DefaultAction: domain.ActionNotCreated, Active: true, PreloadOnly: true},
		{Name: "Checkuser", DefaultAction: domain.ActionNone, Active: true},
		{Name: "Retired", DefaultAction: domain.ActionNotCreated, Active: false},
	} {
		require.NoError(t, repo.Save(context.Background(), tpl))
		out[tpl.Name] = tpl
	}
	return out
}

func names(ts []*domain.EmailTemplate) []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.Name)
	}
	return out
}

func TestEmailTemplateRepo_Lists(t *testing.T) {
	repo := sqlstore.NewHandle(newSQLite(t)).EmailTemplates()
	ctx := context.Background()
	seeded := seedTemplates(t, repo)

	active, err := repo.ListActive(ctx, domain.ActionNotCreated, seeded["Similar"].ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Taken"}, names(active))

	created, err := repo.ListActive(ctx, domain.ActionCreated, seeded["Created"].ID)
	require.NoError(t, err)
	assert.Empty(t, created)

	all, err := repo.ListAllActive(ctx, domain.FilterAny)
	require.NoError(t, err)
	assert.Equal(t, []string{"Created", "Taken", "Similar", "Preload", "Checkuser"}, names(all))

	none, err := repo.ListAllActive(ctx, domain.FilterNone)
	require.NoError(t, err)
	assert.Equal(t, []string{"Checkuser"}, names(none))

	declines, err := repo.ListAllActive(ctx, domain.FilterAction(domain.ActionNotCreated))
	require.NoError(t, err)
	assert.Equal(t, []string{"Taken", "Similar", "Preload"}, names(declines))

	inactive, err := repo.ListInactive(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Retired"}, names(inactive))
}

func TestEmailTemplateRepo_SaveAndGet(t *testing.T) {
	repo := sqlstore.NewHandle(newSQLite(t)).EmailTemplates()
	ctx := context.Background()

	tpl := domain.NewEmailTemplate()
	tpl.Name = "Welcome"
	tpl.Text = "Your account has been created."
	require.NoError(t, repo.Save(ctx, tpl))
	require.NotZero(t, tpl.ID)

	tpl.JSQuestion = "Are you sure?"
	tpl.Active = false
	require.NoError(t, repo.Save(ctx, tpl))

	byID, err := repo.GetByID(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, tpl, byID)

	byName, err := repo.GetByName(ctx, "Welcome")
	require.NoError(t, err)
	assert.Equal(t, tpl.ID, byName.ID)

	_, err = repo.GetByName(ctx, "Nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, tpl), domain.ErrDeleteForbidden)
	_, err = repo.GetByID(ctx, tpl.ID)
	assert.NoError(t, err, "delete never removes the row")
}
