package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/hookah/internal/config"
	"github.com/YelzhanWeb/hookah/internal/domain"
)

func setupMiniRedis(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func session(id string, updated time.Time) domain.Session {
	created := time.Date(2025, 8, 2, 20, 0, 0, 0, time.UTC)
	return domain.Session{
		ID: id, Table: "T-1", Items: 1, Zone: domain.ZoneA, State: domain.StateReady,
		CreatedAt: created, UpdatedAt: updated,
	}
}

func TestSessionRepository(t *testing.T) {
	_, client := setupMiniRedis(t)
	repo := NewSessionRepository(client, "test:")
	ctx := context.Background()
	base := time.Date(2025, 8, 2, 20, 0, 0, 0, time.UTC)

	a := session("a", base)
	b := session("b", base.Add(time.Minute))
	c := session("c", base.Add(time.Minute))
	for _, s := range []domain.Session{a, b, c} {
		require.NoError(t, repo.Create(ctx, s))
	}
	assert.Error(t, repo.Create(ctx, a))

	got, err := repo.FindByID(ctx, "a")
	require.NoError(t, err)
	assert.True(t, a.UpdatedAt.Equal(got.UpdatedAt))
	assert.Equal(t, a.Table, got.Table)

	_, err = repo.FindByID(ctx, "zzz")
	var nf *domain.NotFoundError
	assert.ErrorAs(t, err, &nf)

	list, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"b", "c", "a"}, []string{list[0].ID, list[1].ID, list[2].ID})

	a.State = domain.StateOut
	a.UpdatedAt = base.Add(time.Hour)
	require.NoError(t, repo.Update(ctx, a))
	list, err = repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, domain.StateOut, list[0].State)
	assert.Equal(t, int64(1), list[0].Version)

	err = repo.Update(ctx, session("ghost", base))
	assert.ErrorAs(t, err, &nf)

	require.NoError(t, repo.Clear(ctx))
	list, err = repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSessionRepositoryPrefixesKeys(t *testing.T) {
	mr, client := setupMiniRedis(t)
	repo := NewSessionRepository(client, "hookah:")
	require.NoError(t, repo.Create(context.Background(), session("a", time.Now())))

	assert.True(t, mr.Exists("hookah:session:a"))
	assert.True(t, mr.Exists("hookah:sessions"))
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()

	client, err := Connect(context.Background(), config.RedisConfig{Addr: addr})
	require.NoError(t, err)
	client.Close()

	mr.Close()
	_, err = Connect(context.Background(), config.RedisConfig{Addr: addr})
	assert.Error(t, err)
}

func TestSessionRepositoryRejectsStaleUpdate(t *testing.T) {
	_, client := setupMiniRedis(t)
	repo := NewSessionRepository(client, "test:")
	ctx := context.Background()
	base := time.Date(2025, 8, 2, 20, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, session("a", base)))

	first, err := repo.FindByID(ctx, "a")
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, "a")
	require.NoError(t, err)

	first.Items = 3
	first.UpdatedAt = base.Add(time.Minute)
	require.NoError(t, repo.Update(ctx, first))

	second.Items = 4
	second.UpdatedAt = base.Add(2 * time.Minute)
	var conflict *domain.ConflictError
	require.ErrorAs(t, repo.Update(ctx, second), &conflict)

	got, err := repo.FindByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Items)
	assert.Equal(t, int64(1), got.Version)

	got.Items = 5
	require.NoError(t, repo.Update(ctx, got))
	got, err = repo.FindByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 5, got.Items)
	assert.Equal(t, int64(2), got.Version)
}
