package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/campus-match/internal/db"
	svcErr "github.com/oggyb/campus-match/internal/errors"
	"github.com/oggyb/campus-match/internal/repository"
	"github.com/oggyb/campus-match/internal/testutil"
)

func TestMarkViewed_SetSemantics(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	repo := repository.NewViewedRepository(gdb)
	a, b, c := trio(t, gdb)

	created, err := repo.MarkViewed(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.MarkViewed(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, created, "duplicate mark is a no-op")

	_, err = repo.MarkViewed(ctx, a.ID, a.ID)
	assert.ErrorIs(t, err, svcErr.ErrInvalidState)

	_, _ = repo.MarkViewed(ctx, a.ID, c.ID)
	_, _ = repo.MarkViewed(ctx, b.ID, a.ID)

	ids, err := repo.ViewedIDs(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint64{b.ID, c.ID}, ids)
}

func TestResetAndResetBetween(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	repo := repository.NewViewedRepository(gdb)
	a, b, c := trio(t, gdb)

	_, _ = repo.MarkViewed(ctx, a.ID, b.ID)
	_, _ = repo.MarkViewed(ctx, b.ID, a.ID)
	_, _ = repo.MarkViewed(ctx, a.ID, c.ID)

	n, err := repo.ResetBetween(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	ids, _ := repo.ViewedIDs(ctx, a.ID)
	assert.Equal(t, []uint64{c.ID}, ids)

	n, err = repo.Reset(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestReplaySynthetic(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	repo := repository.NewViewedRepository(gdb)
	aff := testutil.Affiliation(t, gdb, "U1")
	viewer := testutil.Profile(t, gdb, aff.ID, db.GenderMale, db.GenderAny)
	decoy := testutil.Profile(t, gdb, aff.ID, db.GenderFemale, db.GenderAny, testutil.Synthetic())
	genuine := testutil.Profile(t, gdb, aff.ID, db.GenderFemale, db.GenderAny)

	old := time.Now().UTC().Add(-96 * time.Hour)
	require.NoError(t, gdb.Create(&[]db.ViewedMark{
		{ViewerID: viewer.ID, ViewedID: decoy.ID, CreatedAt: old},
		{ViewerID: viewer.ID, ViewedID: genuine.ID, CreatedAt: old},
	}).Error)

	n, err := repo.ReplaySynthetic(ctx, time.Now().UTC().Add(-72*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	ids, _ := repo.ViewedIDs(ctx, viewer.ID)
	assert.Equal(t, []uint64{genuine.ID}, ids)
}
