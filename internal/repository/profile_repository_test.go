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

func TestProfileCreate_UniqueExternalID(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	repo := repository.NewProfileRepository(gdb)
	aff := testutil.Affiliation(t, gdb, "U1")

	p := db.Profile{ExternalID: 77, Name: "Ann", Age: 20, Gender: db.GenderFemale, LookingFor: db.GenderAny, AffiliationID: aff.ID, LastActive: time.Now()}
	require.NoError(t, repo.Create(ctx, &p))

	dup := p
	dup.ID = 0
	assert.ErrorIs(t, repo.Create(ctx, &dup), svcErr.ErrAlreadyExists)

	got, err := repo.GetByExternalID(ctx, 77)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	_, err = repo.Get(ctx, 4242)
	assert.ErrorIs(t, err, svcErr.ErrNotFound)
}

func TestProfileUpdate_BannedAndUnknown(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	repo := repository.NewProfileRepository(gdb)
	aff := testutil.Affiliation(t, gdb, "U1")
	ok := testutil.Profile(t, gdb, aff.ID, db.GenderMale, db.GenderAny)
	banned := testutil.Profile(t, gdb, aff.ID, db.GenderMale, db.GenderAny, testutil.Banned())

	require.NoError(t, repo.Update(ctx, ok.ID, map[string]any{"bio": "new bio"}))
	got, _ := repo.Get(ctx, ok.ID)
	assert.Equal(t, "new bio", got.Bio)

	assert.ErrorIs(t, repo.Update(ctx, banned.ID, map[string]any{"bio": "x"}), svcErr.ErrInvalidState)
	assert.ErrorIs(t, repo.Update(ctx, 999, map[string]any{"bio": "x"}), svcErr.ErrNotFound)
}

func TestSetBannedAndIsOperable(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	repo := repository.NewProfileRepository(gdb)
	aff := testutil.Affiliation(t, gdb, "U1")
	p := testutil.Profile(t, gdb, aff.ID, db.GenderMale, db.GenderAny)

	operable, err := repo.IsOperable(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, operable)

	changed, err := repo.SetBanned(ctx, p.ID, true)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.SetBanned(ctx, p.ID, true)
	require.NoError(t, err)
	assert.False(t, changed)

	operable, _ = repo.IsOperable(ctx, p.ID)
	assert.False(t, operable)

	operable, _ = repo.IsOperable(ctx, 999)
	assert.False(t, operable)

	_, err = repo.SetBanned(ctx, 999, true)
	assert.ErrorIs(t, err, svcErr.ErrNotFound)
}

func TestNextCandidate_Predicate(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	repo := repository.NewProfileRepository(gdb)
	u1 := testutil.Affiliation(t, gdb, "U1")
	u2 := testutil.Affiliation(t, gdb, "U2")

	viewer := testutil.Profile(t, gdb, u1.ID, db.GenderMale, db.GenderFemale)

	// excluded, one reason each; all more recently active than the winner
	testutil.Profile(t, gdb, u2.ID, db.GenderFemale, db.GenderAny)
	testutil.Profile(t, gdb, u1.ID, db.GenderMale, db.GenderAny)
	testutil.Profile(t, gdb, u1.ID, db.GenderFemale, db.GenderFemale)
	testutil.Profile(t, gdb, u1.ID, db.GenderFemale, db.GenderAny, testutil.Banned())
	testutil.Profile(t, gdb, u1.ID, db.GenderFemale, db.GenderAny, testutil.Inactive())
	testutil.Profile(t, gdb, u1.ID, db.GenderFemale, db.GenderAny, testutil.Hidden())
	testutil.Profile(t, gdb, u1.ID, db.GenderFemale, db.GenderAny, testutil.Unregistered())
	seen := testutil.Profile(t, gdb, u1.ID, db.GenderFemale, db.GenderMale)
	_, err := repository.NewViewedRepository(gdb).MarkViewed(ctx, viewer.ID, seen.ID)
	require.NoError(t, err)

	older := testutil.Profile(t, gdb, u1.ID, db.GenderFemale, db.GenderMale, testutil.LastActive(2*time.Hour))
	want := testutil.Profile(t, gdb, u1.ID, db.GenderFemale, db.GenderAny, testutil.LastActive(time.Hour))

	got, err := repo.NextCandidate(ctx, &viewer)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.ID, got.ID)

	_, _ = repository.NewViewedRepository(gdb).MarkViewed(ctx, viewer.ID, want.ID)
	got, _ = repo.NextCandidate(ctx, &viewer)
	require.NotNil(t, got)
	assert.Equal(t, older.ID, got.ID)

	_, _ = repository.NewViewedRepository(gdb).MarkViewed(ctx, viewer.ID, older.ID)
	got, err = repo.NextCandidate(ctx, &viewer)
	require.NoError(t, err)
	assert.Nil(t, got, "pool exhausted")
}

func TestListSpotlighted(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	repo := repository.NewProfileRepository(gdb)
	aff := testutil.Affiliation(t, gdb, "U1")

	star := testutil.Profile(t, gdb, aff.ID, db.GenderFemale, db.GenderAny, testutil.Spotlighted())
	testutil.Profile(t, gdb, aff.ID, db.GenderFemale, db.GenderAny, testutil.Spotlighted(), testutil.Banned())
	testutil.Profile(t, gdb, aff.ID, db.GenderFemale, db.GenderAny)

	out, err := repo.ListSpotlighted(ctx, aff.ID, 10)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, star.ID, out[0].ID)
}
