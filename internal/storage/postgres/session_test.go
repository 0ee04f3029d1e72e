package postgres_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/wordrace/internal/game/match"
	"github.com/cory-johannsen/wordrace/internal/game/player"
	"github.com/cory-johannsen/wordrace/internal/storage/postgres"
	"github.com/cory-johannsen/wordrace/internal/testutil"
)

func snapshot(id string, version uint64) match.Info {
	return match.Info{
		ID:               id,
		GameType:         match.TeamRaceType,
		Language:         "en",
		Length:           5,
		UserLimit:        2,
		Channels:         map[string]string{"p1": "c1", "p2": "c2"},
		ResponseMessages: map[string]match.MessageRef{"p1": {ChannelID: "c1", MessageID: "m1"}},
		Playing:          true,
		Answer:           "crane",
		Players: []match.PlayerInfo{
			{ID: "p1", Name: "Ada", Locale: "en-US", Theme: "dark", Guesses: []player.Guess{
				{Word: "racks", Feedback: player.Score("racks", "crane")},
			}},
			{ID: "p2", Name: "Bob", Locale: "es-ES", Theme: "light", Guesses: []player.Guess{}},
		},
		Version: version,
	}
}

func TestSessionRepository_UpsertListRemove(t *testing.T) {
	repo := postgres.NewSessionRepository(testutil.NewPool(t))
	ctx := context.Background()

	want := snapshot("s1", 3)
	require.NoError(t, repo.Upsert(ctx, want))
	require.NoError(t, repo.Upsert(ctx, snapshot("s0", 1)))

	got, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "s0", got[0].ID)
	assert.Equal(t, want, got[1])

	require.NoError(t, repo.Remove(ctx, "s1"))
	require.NoError(t, repo.Remove(ctx, "s1"))
	got, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "s0", got[0].ID)
}

func TestSessionRepository_IgnoresOlderVersion(t *testing.T) {
	repo := postgres.NewSessionRepository(testutil.NewPool(t))
	ctx := context.Background()

	newer := snapshot("s1", 5)
	newer.Winner = "p1"
	require.NoError(t, repo.Upsert(ctx, newer))
	require.NoError(t, repo.Upsert(ctx, snapshot("s1", 4)))

	got, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, uint64(5), got[0].Version)
	assert.Equal(t, "p1", got[0].Winner)
}

func TestSessionRepository_WithMemoryStoreSemantics(t *testing.T) {
	pool := testutil.NewPool(t)
	repo := postgres.NewSessionRepository(pool)
	mem := match.NewMemoryStore()
	ctx := context.Background()

	rapid.Check(t, func(rt *rapid.T) {
		ops := rapid.SliceOfN(rapid.IntRange(0, 5), 1, 15).Draw(rt, "ops")
		versions := map[string]uint64{}
		for _, op := range ops {
			id := fmt.Sprintf("s%d", op%3)
			if op >= 3 {
				require.NoError(rt, repo.Remove(ctx, id))
				require.NoError(rt, mem.Remove(ctx, id))
				delete(versions, id)
				continue
			}
			versions[id]++
			info := snapshot(id, versions[id])
			require.NoError(rt, repo.Upsert(ctx, info))
			require.NoError(rt, mem.Upsert(ctx, info))
		}
		fromDB, err := repo.List(ctx)
		require.NoError(rt, err)
		fromMem, err := mem.List(ctx)
		require.NoError(rt, err)
		if len(fromDB) != len(fromMem) {
			rt.Fatalf("db holds %d sessions, memory %d", len(fromDB), len(fromMem))
		}
		for i := range fromDB {
			if fromDB[i].ID != fromMem[i].ID || fromDB[i].Version != fromMem[i].Version {
				rt.Fatalf("row %d: db %s@%d, memory %s@%d", i,
					fromDB[i].ID, fromDB[i].Version, fromMem[i].ID, fromMem[i].Version)
			}
		}
		for _, info := range fromDB {
			require.NoError(rt, repo.Remove(ctx, info.ID))
			require.NoError(rt, mem.Remove(ctx, info.ID))
		}
	})
}
