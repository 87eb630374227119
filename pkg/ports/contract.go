package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/accreq/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore
// implementation adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		session := domain.NewSession(sessionID)
		session.UserID = 42
		session.Alerts = append(session.Alerts, domain.NewAlert("saved", "Done", domain.AlertSuccess))

		err := store.Save(ctx, session)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, sessionID, loaded.ID)
		assert.Equal(t, int64(42), loaded.UserID)
		require.Len(t, loaded.Alerts, 1)
		assert.Equal(t, "saved", loaded.Alerts[0].Message)
		assert.Equal(t, domain.AlertSuccess, loaded.Alerts[0].Type)
	})

	t.Run("Load is isolated from caller mutations", func(t *testing.T) {
		session := domain.NewSession(sessionID + "-iso")
		require.NoError(t, store.Save(ctx, session))
		defer func() { _ = store.Delete(ctx, session.ID) }()

		session.Alerts = append(session.Alerts, domain.NewAlert("late", "", domain.AlertInfo))

		loaded, err := store.Load(ctx, session.ID)
		require.NoError(t, err)
		assert.Empty(t, loaded.Alerts)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, domain.NewSession(sessionID))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, domain.NewSession(id1))
		_ = store.Save(ctx, domain.NewSession(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}

// RunSessionStoreExpiryContract verifies that a store configured with ttl
// forgets sessions once advance has moved its clock past the expiry.
func RunSessionStoreExpiryContract(t *testing.T, store SessionStore, ttl time.Duration, advance func(time.Duration)) {
	ctx := context.Background()

	stale := domain.NewSession("expiry-stale")
	require.NoError(t, store.Save(ctx, stale))

	advance(ttl / 2)
	fresh := domain.NewSession("expiry-fresh")
	require.NoError(t, store.Save(ctx, fresh))

	_, err := store.Load(ctx, stale.ID)
	require.NoError(t, err, "session should live until its ttl elapses")

	advance(ttl/2 + time.Second)

	_, err = store.Load(ctx, stale.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound, "expired session should not load")

	sessions, err := store.List(ctx)
	require.NoError(t, err)
	assert.NotContains(t, sessions, stale.ID)
	assert.Contains(t, sessions, fresh.ID)

	advance(ttl)
	sessions, err = store.List(ctx)
	require.NoError(t, err)
	assert.NotContains(t, sessions, fresh.ID, "List should prune expired sessions")
}
