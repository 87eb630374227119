package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/accreq/pkg/adapters/memory"
	"github.com/aretw0/accreq/pkg/domain"
	"github.com/aretw0/accreq/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunSessionStoreContract(t, store)
}

func TestMemoryStore_Expiry(t *testing.T) {
	c := &clock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	store := memory.NewStore(memory.WithTTL(time.Hour), memory.WithClock(c.now))
	ports.RunSessionStoreExpiryContract(t, store, time.Hour, c.advance)
}

func TestMemoryStore_SaveSweepsAbandonedSessions(t *testing.T) {
	c := &clock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	store := memory.NewStore(memory.WithTTL(time.Hour), memory.WithClock(c.now))
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Save(ctx, domain.NewSession(id)))
	}
	c.advance(2 * time.Hour)
	require.NoError(t, store.Save(ctx, domain.NewSession("d")))

	// Nothing loads a, b or c again; the sweep on Save must drop them.
	c.advance(-2 * time.Hour)
	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"d"}, ids)
}
