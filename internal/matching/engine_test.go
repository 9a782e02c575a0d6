package matching_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/oggyb/campus-match/internal/cache"
	"github.com/oggyb/campus-match/internal/db"
	svcErr "github.com/oggyb/campus-match/internal/errors"
	"github.com/oggyb/campus-match/internal/events"
	"github.com/oggyb/campus-match/internal/logger"
	"github.com/oggyb/campus-match/internal/matching"
	"github.com/oggyb/campus-match/internal/metrics"
	fixtures "github.com/oggyb/campus-match/internal/testutil"
)

// recorder keeps published events in memory.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) ofType(t events.Type) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type harness struct {
	db      *gorm.DB
	cache   *cache.RedisCache
	events  *recorder
	metrics *metrics.Metrics
	engine  *matching.Engine
	aff     db.Affiliation
}

func newHarness(t *testing.T, opts matching.Options) *harness {
	t.Helper()
	gdb := fixtures.NewDB(t)
	rc, _ := fixtures.NewRedis(t)
	h := &harness{
		db:      gdb,
		cache:   rc,
		events:  &recorder{},
		metrics: metrics.New(),
	}
	h.engine = matching.NewEngine(matching.Deps{
		DB:      gdb,
		Cache:   rc,
		Events:  h.events,
		Metrics: h.metrics,
		Logger:  logger.Discard(),
	}, opts)
	h.aff = fixtures.Affiliation(t, gdb, "U1")
	return h
}

func (h *harness) like(t *testing.T, from, to uint64) *matching.RecordResult {
	t.Helper()
	res, err := h.engine.RecordInterest(context.Background(), matching.RecordInput{FromID: from, ToID: to, Positive: true, MarkViewed: true})
	require.NoError(t, err)
	return res
}

func (h *harness) dislike(t *testing.T, from, to uint64) *matching.RecordResult {
	t.Helper()
	res, err := h.engine.RecordInterest(context.Background(), matching.RecordInput{FromID: from, ToID: to, Positive: false, MarkViewed: true})
	require.NoError(t, err)
	return res
}

func (h *harness) matchRows(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, h.db.Model(&db.Match{}).Count(&n).Error)
	return n
}

func TestScenario_ViewerCandidateMatch(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, matching.Options{})

	viewer := fixtures.Profile(t, h.db, h.aff.ID, db.GenderMale, db.GenderFemale, fixtures.LastActive(time.Minute))
	c := fixtures.Profile(t, h.db, h.aff.ID, db.GenderFemale, db.GenderAny, fixtures.LastActive(time.Hour))
	d := fixtures.Profile(t, h.db, h.aff.ID, db.GenderFemale, db.GenderMale, fixtures.LastActive(2*time.Hour))

	got, err := h.engine.NextCandidate(ctx, viewer.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, c.ID, got.ID)

	h.dislike(t, viewer.ID, c.ID)
	got, err = h.engine.NextCandidate(ctx, viewer.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, d.ID, got.ID, "disliked candidate never comes back")

	// D liked V earlier
	h.like(t, d.ID, viewer.ID)
	res := h.like(t, viewer.ID, d.ID)
	assert.True(t, res.Match.Matched)
	assert.True(t, res.Match.Created)
	require.NotNil(t, res.Match.Match)
	assert.Equal(t, viewer.ID, res.Match.Match.UserLowID)
	assert.Equal(t, d.ID, res.Match.Match.UserHighID)

	got, err = h.engine.NextCandidate(ctx, viewer.ID)
	require.NoError(t, err)
	assert.Nil(t, got, "pool exhausted is not an error")
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.CandidatesServed.WithLabelValues("exhausted")))

	matched := h.events.ofType(events.MatchCreated)
	require.Len(t, matched, 1)
	assert.ElementsMatch(t, []uint64{viewer.ID, d.ID}, matched[0].UserIDs)
}

func TestNextCandidate_AffiliationIsolation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, matching.Options{})
	other := fixtures.Affiliation(t, h.db, "U2")

	a := fixtures.Profile(t, h.db, h.aff.ID, db.GenderMale, db.GenderAny)
	fixtures.Profile(t, h.db, other.ID, db.GenderFemale, db.GenderAny)

	got, err := h.engine.NextCandidate(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestNextCandidate_ViewerGate(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, matching.Options{})
	banned := fixtures.Profile(t, h.db, h.aff.ID, db.GenderMale, db.GenderAny, fixtures.Banned())
	draft := fixtures.Profile(t, h.db, h.aff.ID, db.GenderMale, db.GenderAny, fixtures.Unregistered())

	_, err := h.engine.NextCandidate(ctx, banned.ID)
	assert.ErrorIs(t, err, svcErr.ErrInvalidState)

	_, err = h.engine.NextCandidate(ctx, draft.ID)
	assert.ErrorIs(t, err, svcErr.ErrInvalidState)

	_, err = h.engine.NextCandidate(ctx, 4040)
	assert.ErrorIs(t, err, svcErr.ErrNotFound)
}

func TestViewedExclusionUntilReset(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, matching.Options{})
	a := fixtures.Profile(t, h.db, h.aff.ID, db.GenderMale, db.GenderAny)
	b := fixtures.Profile(t, h.db, h.aff.ID, db.GenderFemale, db.GenderAny)

	require.NoError(t, h.engine.MarkViewed(ctx, a.ID, b.ID))
	got, _ := h.engine.NextCandidate(ctx, a.ID)
	assert.Nil(t, got)

	_, err := h.engine.ResetViewsBetween(ctx, b.ID, a.ID)
	require.NoError(t, err)
	got, _ = h.engine.NextCandidate(ctx, a.ID)
	require.NotNil(t, got)
	assert.Equal(t, b.ID, got.ID)

	require.NoError(t, h.engine.MarkViewed(ctx, a.ID, b.ID))
	n, err := h.engine.ResetViews(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	got, _ = h.engine.NextCandidate(ctx, a.ID)
	require.NotNil(t, got)
}

func TestDisplayedButUnreactedReappears(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, matching.Options{})
	a := fixtures.Profile(t, h.db, h.aff.ID, db.GenderMale, db.GenderAny)
	b := fixtures.Profile(t, h.db, h.aff.ID, db.GenderFemale, db.GenderAny)

	first, _ := h.engine.NextCandidate(ctx, a.ID)
	second, _ := h.engine.NextCandidate(ctx, a.ID)
	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, b.ID, first.ID)
	assert.Equal(t, first.ID, second.ID)
}

func TestTryMatch_Idempotent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, matching.Options{})
	a := fixtures.Profile(t, h.db, h.aff.ID, db.GenderMale, db.GenderAny)
	b := fixtures.Profile(t, h.db, h.aff.ID, db.GenderFemale, db.GenderAny)

	h.like(t, a.ID, b.ID)
	res := h.like(t, b.ID, a.ID)
	require.True(t, res.Match.Created)

	again, err := h.engine.TryMatch(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, again.Matched)
	assert.False(t, again.Created)
	assert.Equal(t, res.Match.Match.ID, again.Match.ID)

	// a third like between an already matched pair
	third := h.like(t, a.ID, b.ID)
	assert.True(t, third.Match.Matched)
	assert.False(t, third.Match.Created)
	assert.Equal(t, int64(1), h.matchRows(t))
	assert.Len(t, h.events.ofType(events.MatchCreated), 1)
}

func TestDislikeNeverReciprocates(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, matching.Options{})
	a := fixtures.Profile(t, h.db, h.aff.ID, db.GenderMale, db.GenderAny)
	b := fixtures.Profile(t, h.db, h.aff.ID, db.GenderFemale, db.GenderAny)

	h.like(t, b.ID, a.ID)
	res := h.dislike(t, a.ID, b.ID)
	assert.False(t, res.Match.Matched)

	tm, err := h.engine.TryMatch(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, tm.Matched)
	assert.Zero(t, h.matchRows(t))
}

func TestLaterDislikeSupersedesLike(t *testing.T) {
	h := newHarness(t, matching.Options{})
	a := fixtures.Profile(t, h.db, h.aff.ID, db.GenderMale, db.GenderAny)
	b := fixtures.Profile(t, h.db, h.aff.ID, db.GenderFemale, db.GenderAny)

	h.like(t, b.ID, a.ID)
	h.dislike(t, b.ID, a.ID)

	res := h.like(t, a.ID, b.ID)
	assert.False(t, res.Match.Matched)
	assert.Zero(t, h.matchRows(t))

	// b changes their mind again
	res = h.like(t, b.ID, a.ID)
	assert.True(t, res.Match.Created)
}

func TestUnmatchAndReactivation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, matching.Options{})
	a := fixtures.Profile(t, h.db, h.aff.ID, db.GenderMale, db.GenderAny)
	b := fixtures.Profile(t, h.db, h.aff.ID, db.GenderFemale, db.GenderAny)

	h.like(t, a.ID, b.ID)
	first := h.like(t, b.ID, a.ID).Match.Match

	views, err := h.engine.GetMatches(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, b.ID, views[0].PartnerID)

	require.NoError(t, h.engine.Unmatch(ctx, b.ID, a.ID))
	assert.ErrorIs(t, h.engine.Unmatch(ctx, a.ID, b.ID), svcErr.ErrNotFound)

	views, _ = h.engine.GetMatches(ctx, a.ID)
	assert.Empty(t, views)

	// history wiped: both see each other again and a single like does not match
	got, _ := h.engine.NextCandidate(ctx, a.ID)
	require.NotNil(t, got)
	assert.Equal(t, b.ID, got.ID)
	assert.False(t, h.like(t, a.ID, b.ID).Match.Matched)

	again := h.like(t, b.ID, a.ID)
	assert.True(t, again.Match.Created, "fresh reciprocation reactivates")
	assert.Equal(t, first.ID, again.Match.Match.ID)
	assert.True(t, again.Match.Match.Active)
	assert.Equal(t, int64(1), h.matchRows(t))
}

func TestConcurrentReciprocalLikes_ExactlyOneMatch(t *testing.T) {
	h := newHarness(t, matching.Options{})

	for round := 0; round < 5; round++ {
		a := fixtures.Profile(t, h.db, h.aff.ID, db.GenderMale, db.GenderAny)
		b := fixtures.Profile(t, h.db, h.aff.ID, db.GenderFemale, db.GenderAny)

		var (
			wg      sync.WaitGroup
			start   = make(chan struct{})
			results = make([]*matching.RecordResult, 2)
			errs    = make([]error, 2)
		)
		pairs := [][2]uint64{{a.ID, b.ID}, {b.ID, a.ID}}
		for i, p := range pairs {
			wg.Add(1)
			go func(i int, from, to uint64) {
				defer wg.Done()
				<-start
				results[i], errs[i] = h.engine.RecordInterest(context.Background(), matching.RecordInput{FromID: from, ToID: to, Positive: true})
			}(i, p[0], p[1])
		}
		close(start)
		wg.Wait()

		require.NoError(t, errs[0])
		require.NoError(t, errs[1])

		created := 0
		for _, r := range results {
			if r.Match.Created {
				created++
			}
		}
		assert.Equal(t, 1, created, "exactly one caller creates the match")

		var n int64
		h.db.Model(&db.Match{}).Where("user_low_id = ? AND user_high_id = ?", a.ID, b.ID).Count(&n)
		assert.Equal(t, int64(1), n)
	}
}

func TestConcurrentTryMatch_SingleRow(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, matching.Options{})
	a := fixtures.Profile(t, h.db, h.aff.ID, db.GenderMale, db.GenderAny)
	b := fixtures.Profile(t, h.db, h.aff.ID, db.GenderFemale, db.GenderAny)
	h.like(t, a.ID, b.ID)
	h.like(t, b.ID, a.ID)
	require.NoError(t, h.engine.Unmatch(ctx, a.ID, b.ID))
	h.like(t, a.ID, b.ID)

	// b's like is on record; now race reactivations
	_, err := h.engine.RecordInterest(ctx, matching.RecordInput{FromID: b.ID, ToID: a.ID, Positive: true})
	require.NoError(t, err)
	require.NoError(t, h.db.Model(&db.Match{}).Where("1 = 1").Update("active", false).Error)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := h.engine.TryMatch(ctx, a.ID, b.ID)
			assert.NoError(t, err)
			assert.True(t, res.Matched)
			if res.Created {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, int64(1), h.matchRows(t))
}

func TestRecordInterest_DoubleTapDeduplicated(t *testing.T) {
	h := newHarness(t, matching.Options{DedupeWindow: 3 * time.Second})
	a := fixtures.Profile(t, h.db, h.aff.ID, db.GenderMale, db.GenderAny)
	b := fixtures.Profile(t, h.db, h.aff.ID, db.GenderFemale, db.GenderAny)

	first := h.like(t, a.ID, b.ID)
	second := h.like(t, a.ID, b.ID)

	assert.False(t, first.Deduplicated)
	assert.True(t, second.Deduplicated)
	assert.Equal(t, first.Interest.ID, second.Interest.ID)

	var n int64
	h.db.Model(&db.Interest{}).Count(&n)
	assert.Equal(t, int64(1), n)
	assert.Len(t, h.events.ofType(events.IncomingInterest), 1, "duplicates emit nothing")

	// a different action is not merged
	dis := h.dislike(t, a.ID, b.ID)
	assert.False(t, dis.Deduplicated)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.InterestsRecorded.WithLabelValues("like", "deduplicated")))
}

func TestRecordInterest_AppendOnlyWithoutWindow(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, matching.Options{})
	a := fixtures.Profile(t, h.db, h.aff.ID, db.GenderMale, db.GenderAny)
	b := fixtures.Profile(t, h.db, h.aff.ID, db.GenderFemale, db.GenderAny)

	h.like(t, a.ID, b.ID)
	h.like(t, a.ID, b.ID)

	page, _, err := h.engine.ListIncoming(ctx, b.ID, nil, 0)
	require.NoError(t, err)
	assert.Len(t, page, 2, "repeated likes surface repeatedly")
}

func TestIncomingInterestEventAndCount(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, matching.Options{})
	me := fixtures.Profile(t, h.db, h.aff.ID, db.GenderFemale, db.GenderAny)
	decoy := fixtures.Profile(t, h.db, h.aff.ID, db.GenderFemale, db.GenderAny, fixtures.Synthetic())
	x := fixtures.Profile(t, h.db, h.aff.ID, db.GenderMale, db.GenderAny)
	y := fixtures.Profile(t, h.db, h.aff.ID, db.GenderMale, db.GenderAny)

	h.like(t, x.ID, me.ID)
	h.like(t, y.ID, me.ID)
	h.like(t, x.ID, decoy.ID)

	incoming := h.events.ofType(events.IncomingInterest)
	require.Len(t, incoming, 2, "synthetic recipients are not notified")
	assert.Equal(t, []uint64{me.ID}, incoming[1].UserIDs)
	assert.Equal(t, int64(2), incoming[1].Count)

	n, err := h.engine.CountIncoming(ctx, me.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	// me passes on y: cached count must not go stale
	h.dislike(t, me.ID, y.ID)
	n, err = h.engine.CountIncoming(ctx, me.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestLikeAfterPostMatchDislike_KeepsMatch(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, matching.Options{})
	a := fixtures.Profile(t, h.db, h.aff.ID, db.GenderMale, db.GenderAny)
	b := fixtures.Profile(t, h.db, h.aff.ID, db.GenderFemale, db.GenderAny)

	h.like(t, a.ID, b.ID)
	created := h.like(t, b.ID, a.ID).Match.Match
	h.dislike(t, b.ID, a.ID)

	res := h.like(t, a.ID, b.ID)
	assert.True(t, res.Match.Matched)
	assert.False(t, res.Match.Created)
	require.NotNil(t, res.Match.Match)
	assert.Equal(t, created.ID, res.Match.Match.ID)

	tm, err := h.engine.TryMatch(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, tm.Matched)

	views, err := h.engine.GetMatches(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, views, 1)

	// only the first, unreciprocated like announced itself
	assert.Len(t, h.events.ofType(events.IncomingInterest), 1)
	n, err := h.engine.CountIncoming(ctx, b.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, int64(1), h.matchRows(t))
}

func TestTryMatch_BannedProfileNeverMatches(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, matching.Options{})
	a := fixtures.Profile(t, h.db, h.aff.ID, db.GenderMale, db.GenderAny)
	b := fixtures.Profile(t, h.db, h.aff.ID, db.GenderFemale, db.GenderAny)
	c := fixtures.Profile(t, h.db, h.aff.ID, db.GenderFemale, db.GenderAny)

	// both likes land, then the ban arrives before the pair is resolved
	require.NoError(t, h.db.Create(&db.Interest{FromID: a.ID, ToID: b.ID, Positive: true}).Error)
	require.NoError(t, h.db.Create(&db.Interest{FromID: b.ID, ToID: a.ID, Positive: true}).Error)
	_, err := h.engine.SetBanned(ctx, b.ID, true)
	require.NoError(t, err)

	tm, err := h.engine.TryMatch(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, tm.Matched)
	assert.Nil(t, tm.Match)
	assert.Zero(t, h.matchRows(t))

	// an existing match is not reported once a side is banned
	h.like(t, a.ID, c.ID)
	require.True(t, h.like(t, c.ID, a.ID).Match.Created)
	_, err = h.engine.SetBanned(ctx, c.ID, true)
	require.NoError(t, err)

	tm, err = h.engine.TryMatch(ctx, a.ID, c.ID)
	require.NoError(t, err)
	assert.False(t, tm.Matched)
}

func TestSetBanned_GatesEverything(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, matching.Options{})
	a := fixtures.Profile(t, h.db, h.aff.ID, db.GenderMale, db.GenderAny)
	b := fixtures.Profile(t, h.db, h.aff.ID, db.GenderFemale, db.GenderAny)

	h.like(t, b.ID, a.ID)
	n, _ := h.engine.CountIncoming(ctx, a.ID)
	require.Equal(t, int64(1), n)

	changed, err := h.engine.SetBanned(ctx, b.ID, true)
	require.NoError(t, err)
	assert.True(t, changed)

	ok, _ := h.engine.IsOperable(ctx, b.ID)
	assert.False(t, ok)

	got, _ := h.engine.NextCandidate(ctx, a.ID)
	assert.Nil(t, got, "banned candidate hidden")

	_, err = h.engine.RecordInterest(ctx, matching.RecordInput{FromID: a.ID, ToID: b.ID, Positive: true})
	assert.ErrorIs(t, err, svcErr.ErrInvalidState)

	n, _ = h.engine.CountIncoming(ctx, a.ID)
	assert.Zero(t, n, "banned sender's likes leave the inbox")

	bans := h.events.ofType(events.UserBanned)
	require.Len(t, bans, 1)
	assert.Equal(t, []uint64{b.ID}, bans[0].UserIDs)

	changed, err = h.engine.SetBanned(ctx, b.ID, true)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Len(t, h.events.ofType(events.UserBanned), 1)
}

func TestRecordInterest_Validation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, matching.Options{})
	a := fixtures.Profile(t, h.db, h.aff.ID, db.GenderMale, db.GenderAny)
	b := fixtures.Profile(t, h.db, h.aff.ID, db.GenderFemale, db.GenderAny)

	_, err := h.engine.RecordInterest(ctx, matching.RecordInput{FromID: a.ID, ToID: a.ID, Positive: true})
	assert.ErrorIs(t, err, svcErr.ErrInvalidState)

	long := make([]rune, matching.MaxMessageLength+1)
	for i := range long {
		long[i] = 'ж'
	}
	msg := string(long)
	_, err = h.engine.RecordInterest(ctx, matching.RecordInput{FromID: a.ID, ToID: b.ID, Positive: true, Message: &msg})
	assert.ErrorIs(t, err, svcErr.ErrInvalidArgument)

	_, err = h.engine.RecordInterest(ctx, matching.RecordInput{FromID: a.ID, ToID: 9999, Positive: true})
	assert.ErrorIs(t, err, svcErr.ErrNotFound)
}

func TestReplaySynthetic(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	h := newHarness(t, matching.Options{Now: func() time.Time { return now.Add(100 * time.Hour) }})
	a := fixtures.Profile(t, h.db, h.aff.ID, db.GenderMale, db.GenderAny)
	decoy := fixtures.Profile(t, h.db, h.aff.ID, db.GenderFemale, db.GenderAny, fixtures.Synthetic())

	h.dislike(t, a.ID, decoy.ID)
	got, _ := h.engine.NextCandidate(ctx, a.ID)
	require.Nil(t, got)

	n, err := h.engine.ReplaySynthetic(ctx, 72*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, _ = h.engine.NextCandidate(ctx, a.ID)
	require.NotNil(t, got)
	assert.Equal(t, decoy.ID, got.ID)
}
