// Package matching is the selection and mutual-interest core: it decides which
// profile a viewer sees next and turns reciprocated likes into matches.
package matching

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/oggyb/campus-match/internal/cache"
	"github.com/oggyb/campus-match/internal/config"
	"github.com/oggyb/campus-match/internal/db"
	svcErr "github.com/oggyb/campus-match/internal/errors"
	"github.com/oggyb/campus-match/internal/events"
	"github.com/oggyb/campus-match/internal/logger"
	"github.com/oggyb/campus-match/internal/metrics"
	"github.com/oggyb/campus-match/internal/repository"
)

// MaxMessageLength bounds the optional text attached to a like.
const MaxMessageLength = 200

// Options tunes the engine.
type Options struct {
	// DedupeWindow collapses identical submissions (double taps). Zero disables it.
	DedupeWindow time.Duration
	// CountCacheTTL is the lifetime of cached inbox counts.
	CountCacheTTL time.Duration
	// PageSize is the default inbox page size.
	PageSize int
	// Now is the clock; nil means time.Now in UTC.
	Now func() time.Time
}

// OptionsFromConfig maps the matching section of the configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		DedupeWindow:  cfg.Matching.DedupeWindow,
		CountCacheTTL: cfg.Matching.CountCacheTTL,
		PageSize:      cfg.Matching.IncomingPageSize,
	}
}

// Deps are the collaborators of an Engine. Cache, Events, Metrics and Logger are optional.
type Deps struct {
	DB      *gorm.DB
	Cache   *cache.RedisCache
	Events  events.Publisher
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Engine orchestrates the ledgers behind the inbound operations.
type Engine struct {
	db        *gorm.DB
	profiles  *repository.ProfileRepository
	interests *repository.InterestRepository
	matches   *repository.MatchRepository
	viewed    *repository.ViewedRepository

	selector *Selector
	resolver *Resolver

	cache   *cache.RedisCache
	events  events.Publisher
	metrics *metrics.Metrics
	log     *slog.Logger
	opts    Options
}

func NewEngine(deps Deps, opts Options) *Engine {
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.CountCacheTTL <= 0 {
		opts.CountCacheTTL = time.Hour
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 5
	}
	if deps.Events == nil {
		deps.Events = events.Discard{}
	}
	if deps.Logger == nil {
		deps.Logger = logger.L()
	}

	e := &Engine{
		db:        deps.DB,
		profiles:  repository.NewProfileRepository(deps.DB),
		interests: repository.NewInterestRepository(deps.DB),
		matches:   repository.NewMatchRepository(deps.DB),
		viewed:    repository.NewViewedRepository(deps.DB),
		cache:     deps.Cache,
		events:    deps.Events,
		metrics:   deps.Metrics,
		log:       deps.Logger.With("component", "matching"),
		opts:      opts,
	}
	e.selector = NewSelector(e.profiles)
	e.resolver = NewResolver(e.interests, e.matches, deps.Metrics)
	return e
}

// RecordInput describes one like/dislike action.
type RecordInput struct {
	FromID   uint64
	ToID     uint64
	Positive bool
	Message  *string
	// MarkViewed also records that FromID reacted to ToID in discovery.
	MarkViewed bool
}

// RecordResult is what the caller renders after a reaction.
type RecordResult struct {
	Interest     *db.Interest
	Deduplicated bool
	Match        MatchResult
}

// RecordInterest appends the reaction and, for likes, resolves the match in
// the same call so the actor never observes a stale "no match".
//
// Behavior:
//   - An identical submission inside the dedupe window returns the first
//     record with Deduplicated set and emits no events.
//   - match_created is published only for the caller that created the match.
//   - incoming_interest is published for unreciprocated likes to non-synthetic
//     recipients, with the recipient's fresh inbox count.
func (e *Engine) RecordInterest(ctx context.Context, in RecordInput) (*RecordResult, error) {
	if in.FromID == in.ToID {
		return nil, svcErr.InvalidState("profile %d cannot react to itself", in.FromID)
	}
	if in.Message != nil && utf8.RuneCountInString(*in.Message) > MaxMessageLength {
		return nil, svcErr.Invalid("message longer than %d characters", MaxMessageLength)
	}

	interest, dup, err := e.appendInterest(ctx, in)
	if err != nil {
		return nil, err
	}
	if e.metrics != nil {
		e.metrics.ObserveInterest(in.Positive, dup)
	}

	result := &RecordResult{Interest: interest, Deduplicated: dup}
	if dup {
		if in.Positive {
			if result.Match, err = e.resolver.TryMatch(ctx, in.FromID, in.ToID); err != nil {
				return nil, err
			}
		}
		return result, nil
	}

	if err := e.profiles.TouchActivity(ctx, in.FromID, e.opts.Now()); err != nil {
		e.log.Warn("touch activity failed", "profile", in.FromID, "err", err)
	}
	if in.MarkViewed {
		if _, err := e.viewed.MarkViewed(ctx, in.FromID, in.ToID); err != nil {
			return nil, fmt.Errorf("mark viewed: %w", err)
		}
	}
	e.invalidateCounts(ctx, in.FromID, in.ToID)

	if !in.Positive {
		return result, nil
	}

	result.Match, err = e.resolver.TryMatch(ctx, in.FromID, in.ToID)
	if err != nil {
		return nil, err
	}

	switch {
	case result.Match.Created:
		e.log.Info("match created", "match", result.Match.Match.ID, "a", in.FromID, "b", in.ToID)
		e.publish(ctx, events.Event{
			Type:    events.MatchCreated,
			UserIDs: []uint64{in.FromID, in.ToID},
		})
	case !result.Match.Matched:
		e.notifyIncoming(ctx, in.ToID)
	}
	return result, nil
}

// appendInterest inserts the row unless an identical submission already did
// inside the dedupe window.
func (e *Engine) appendInterest(ctx context.Context, in RecordInput) (*db.Interest, bool, error) {
	if e.cache == nil || e.opts.DedupeWindow <= 0 {
		i, err := e.interests.Create(ctx, in.FromID, in.ToID, in.Positive, in.Message)
		return i, false, err
	}

	key := e.cache.KeyForDedupe(in.FromID, in.ToID, in.Positive)
	first, err := e.cache.AcquireDedupe(ctx, key, e.opts.DedupeWindow)
	if err != nil {
		e.log.Warn("dedupe unavailable, recording without it", "err", err)
		i, err := e.interests.Create(ctx, in.FromID, in.ToID, in.Positive, in.Message)
		return i, false, err
	}

	if !first {
		id, ok, err := e.cache.WaitDedupe(ctx, key, e.opts.DedupeWindow)
		if err != nil {
			e.log.Warn("dedupe wait failed", "key", key, "err", err)
		}
		if ok {
			i, err := e.interests.Get(ctx, id)
			if err == nil {
				return i, true, nil
			}
			e.log.Warn("deduplicated interest vanished", "interest", id, "err", err)
		}
		// the first writer never finished; record this one on its own
		i, err := e.interests.Create(ctx, in.FromID, in.ToID, in.Positive, in.Message)
		return i, false, err
	}

	i, err := e.interests.Create(ctx, in.FromID, in.ToID, in.Positive, in.Message)
	if err != nil {
		// free the claim so a retry is not swallowed
		if rerr := e.cache.ReleaseDedupe(context.WithoutCancel(ctx), key); rerr != nil {
			e.log.Warn("dedupe release failed", "key", key, "err", rerr)
		}
		return nil, false, err
	}
	if err := e.cache.StoreDedupe(ctx, key, i.ID); err != nil {
		e.log.Warn("dedupe store failed", "key", key, "err", err)
	}
	return i, false, nil
}

func (e *Engine) notifyIncoming(ctx context.Context, recipientID uint64) {
	recipient, err := e.profiles.Get(ctx, recipientID)
	if err != nil {
		e.log.Warn("load recipient for notification", "profile", recipientID, "err", err)
		return
	}
	if recipient.Synthetic {
		return
	}
	count, err := e.CountIncoming(ctx, recipientID)
	if err != nil {
		e.log.Warn("count incoming for notification", "profile", recipientID, "err", err)
		return
	}
	e.publish(ctx, events.Event{
		Type:    events.IncomingInterest,
		UserIDs: []uint64{recipientID},
		Count:   count,
	})
}

func (e *Engine) publish(ctx context.Context, ev events.Event) {
	if ev.At.IsZero() {
		ev.At = e.opts.Now()
	}
	err := e.events.Publish(ctx, ev)
	if err != nil {
		e.log.Warn("publish event failed", "type", ev.Type, "err", err)
	}
	if e.metrics != nil {
		e.metrics.ObserveEvent(string(ev.Type), err)
	}
}

func (e *Engine) invalidateCounts(ctx context.Context, ids ...uint64) {
	if e.cache == nil {
		return
	}
	if err := e.cache.InvalidateIncomingCount(ctx, ids...); err != nil {
		e.log.Warn("invalidate incoming counts", "profiles", ids, "err", err)
	}
}

// TryMatch exposes the resolver for callers that record interests elsewhere.
func (e *Engine) TryMatch(ctx context.Context, a, b uint64) (MatchResult, error) {
	if a == b {
		return MatchResult{}, svcErr.InvalidState("profile %d cannot match itself", a)
	}
	return e.resolver.TryMatch(ctx, a, b)
}

// NextCandidate returns the next profile for the viewer, or nil when exhausted.
func (e *Engine) NextCandidate(ctx context.Context, viewerID uint64) (*db.Profile, error) {
	p, err := e.selector.NextCandidate(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if e.metrics != nil {
		e.metrics.ObserveCandidate(p != nil)
	}
	return p, nil
}

// MarkViewed records an explicit reaction to a shown profile outside RecordInterest.
func (e *Engine) MarkViewed(ctx context.Context, viewerID, viewedID uint64) error {
	if _, err := e.profiles.Get(ctx, viewerID); err != nil {
		return err
	}
	_, err := e.viewed.MarkViewed(ctx, viewerID, viewedID)
	return err
}

// ResetViews re-admits everything the viewer has seen. It returns the number of marks cleared.
func (e *Engine) ResetViews(ctx context.Context, viewerID uint64) (int64, error) {
	if _, err := e.profiles.Get(ctx, viewerID); err != nil {
		return 0, err
	}
	return e.viewed.Reset(ctx, viewerID)
}

// ViewedProfiles lists the profiles hidden from the viewer's candidate stream.
func (e *Engine) ViewedProfiles(ctx context.Context, viewerID uint64) ([]uint64, error) {
	if _, err := e.profiles.Get(ctx, viewerID); err != nil {
		return nil, err
	}
	return e.viewed.ViewedIDs(ctx, viewerID)
}

// ResetViewsBetween lets a and b see each other again.
func (e *Engine) ResetViewsBetween(ctx context.Context, a, b uint64) (int64, error) {
	if a == b {
		return 0, svcErr.InvalidState("profile %d cannot reset views with itself", a)
	}
	return e.viewed.ResetBetween(ctx, a, b)
}

// IsOperable reports whether the profile exists and is not banned.
func (e *Engine) IsOperable(ctx context.Context, userID uint64) (bool, error) {
	return e.profiles.IsOperable(ctx, userID)
}

// MatchView is an active match seen from one participant.
type MatchView struct {
	Match     db.Match
	PartnerID uint64
}

// GetMatches lists the user's active matches, newest first.
func (e *Engine) GetMatches(ctx context.Context, userID uint64) ([]MatchView, error) {
	if _, err := e.profiles.Get(ctx, userID); err != nil {
		return nil, err
	}
	rows, err := e.matches.ListActiveFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]MatchView, 0, len(rows))
	for _, m := range rows {
		out = append(out, MatchView{Match: m, PartnerID: m.PartnerOf(userID)})
	}
	return out, nil
}

// Unmatch ends the active match between a and b and wipes their shared
// history so both re-enter each other's pools.
//
// Behavior:
//   - No active match → NotFound.
//   - Deactivation, interest deletion and view reset commit together.
//   - A later mutual like reactivates the same match row.
func (e *Engine) Unmatch(ctx context.Context, a, b uint64) error {
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := e.matches.WithTx(tx).Deactivate(ctx, a, b)
		if err != nil {
			return err
		}
		if !ok {
			return svcErr.NotFound("active match between %d and %d", a, b)
		}
		if _, err := e.interests.WithTx(tx).DeleteBetween(ctx, a, b); err != nil {
			return err
		}
		_, err = e.viewed.WithTx(tx).ResetBetween(ctx, a, b)
		return err
	})
	if err != nil {
		return err
	}
	e.invalidateCounts(ctx, a, b)
	e.log.Info("unmatched", "a", a, "b", b)
	return nil
}

// ListIncoming returns a page of likes addressed to the user. limit <= 0 uses the default page size.
func (e *Engine) ListIncoming(ctx context.Context, userID uint64, token *string, limit int) ([]db.Interest, *string, error) {
	if limit <= 0 {
		limit = e.opts.PageSize
	}
	if _, err := e.profiles.Get(ctx, userID); err != nil {
		return nil, nil, err
	}
	return e.interests.ListIncoming(ctx, userID, token, limit)
}

// CountIncoming returns the inbox size.
// Cache-first strategy:
//  1. Attempts to read from Redis (interests:incoming:userID), refreshing the TTL on a hit.
//  2. On a miss or Redis error, falls back to the DB.
//  3. On DB fetch, stores the count with the configured TTL.
func (e *Engine) CountIncoming(ctx context.Context, userID uint64) (int64, error) {
	if e.cache != nil {
		n, ok, err := e.cache.GetIncomingCount(ctx, userID, e.opts.CountCacheTTL)
		if err != nil {
			e.log.Warn("incoming count cache read failed", "profile", userID, "err", err)
		}
		if ok {
			return n, nil
		}
	}

	n, err := e.interests.CountIncoming(ctx, userID)
	if err != nil {
		return 0, err
	}

	if e.cache != nil {
		if err := e.cache.SetIncomingCount(ctx, userID, n, e.opts.CountCacheTTL); err != nil {
			e.log.Warn("incoming count cache write failed", "profile", userID, "err", err)
		}
	}
	return n, nil
}

// SetBanned moves a profile in or out of the banned state.
// A fresh ban publishes user_banned and drops cached counts the profile's
// likes contributed to.
func (e *Engine) SetBanned(ctx context.Context, userID uint64, banned bool) (bool, error) {
	changed, err := e.profiles.SetBanned(ctx, userID, banned)
	if err != nil || !changed {
		return changed, err
	}

	recipients, err := e.interests.RecipientsOf(ctx, userID)
	if err != nil {
		e.log.Warn("list recipients for invalidation", "profile", userID, "err", err)
	}
	e.invalidateCounts(ctx, append(recipients, userID)...)

	if banned {
		e.log.Info("profile banned", "profile", userID)
		if e.metrics != nil {
			e.metrics.Bans.Inc()
		}
		e.publish(ctx, events.Event{Type: events.UserBanned, UserIDs: []uint64{userID}})
	}
	return true, nil
}

// ReplaySynthetic returns synthetic profiles seen before cutoff to every pool.
func (e *Engine) ReplaySynthetic(ctx context.Context, olderThan time.Duration) (int64, error) {
	return e.viewed.ReplaySynthetic(ctx, e.opts.Now().Add(-olderThan))
}

// Profiles exposes the profile repository to sibling services.
func (e *Engine) Profiles() *repository.ProfileRepository { return e.profiles }
