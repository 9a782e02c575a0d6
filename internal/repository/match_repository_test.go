package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/campus-match/internal/db"
	svcErr "github.com/oggyb/campus-match/internal/errors"
	"github.com/oggyb/campus-match/internal/repository"
	"github.com/oggyb/campus-match/internal/testutil"
)

func TestCreateIfAbsent_CanonicalAndIdempotent(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	repo := repository.NewMatchRepository(gdb)
	a, b, _ := trio(t, gdb)

	// reverse order on input, canonical order on storage
	m, created, race, err := repo.CreateIfAbsent(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.False(t, race)
	assert.Equal(t, a.ID, m.UserLowID)
	assert.Equal(t, b.ID, m.UserHighID)
	assert.True(t, m.Active)

	again, created, _, err := repo.CreateIfAbsent(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, m.ID, again.ID)

	assert.Equal(t, int64(1), testutil.MatchRows(t, gdb, a.ID, b.ID))

	_, _, _, err = repo.CreateIfAbsent(ctx, a.ID, a.ID)
	assert.ErrorIs(t, err, svcErr.ErrInvalidState)
}

func TestDeactivateAndReactivate(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	repo := repository.NewMatchRepository(gdb)
	a, b, c := trio(t, gdb)

	m, _, _, err := repo.CreateIfAbsent(ctx, a.ID, b.ID)
	require.NoError(t, err)
	_, _, _, err = repo.CreateIfAbsent(ctx, a.ID, c.ID)
	require.NoError(t, err)

	list, err := repo.ListActiveFor(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	ok, err := repo.Deactivate(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Deactivate(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, ok, "already inactive")

	list, _ = repo.ListActiveFor(ctx, a.ID)
	require.Len(t, list, 1)
	assert.Equal(t, c.ID, list[0].PartnerOf(a.ID))

	won, err := repo.Reactivate(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, won)

	won, err = repo.Reactivate(ctx, m.ID)
	require.NoError(t, err)
	assert.False(t, won, "second reactivation loses")
}

func TestGetByPair_NotFound(t *testing.T) {
	gdb := testutil.NewDB(t)
	repo := repository.NewMatchRepository(gdb)

	_, err := repo.GetByPair(context.Background(), 1, 2)
	assert.ErrorIs(t, err, svcErr.ErrNotFound)
}

func TestActiveBetween(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	repo := repository.NewMatchRepository(gdb)
	a, b, c := trio(t, gdb)

	_, ok, err := repo.ActiveBetween(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	m, _, _, err := repo.CreateIfAbsent(ctx, a.ID, b.ID)
	require.NoError(t, err)
	got, ok, err := repo.ActiveBetween(ctx, b.ID, a.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, m.ID, got.ID)

	_, err = repo.Deactivate(ctx, a.ID, b.ID)
	require.NoError(t, err)
	_, ok, _ = repo.ActiveBetween(ctx, a.ID, b.ID)
	assert.False(t, ok, "inactive rows are ignored")

	_, _, _, err = repo.CreateIfAbsent(ctx, a.ID, c.ID)
	require.NoError(t, err)
	require.NoError(t, gdb.Model(&db.Profile{}).Where("id = ?", c.ID).Update("banned", true).Error)
	_, ok, _ = repo.ActiveBetween(ctx, a.ID, c.ID)
	assert.False(t, ok, "banned side hides the match")
}
