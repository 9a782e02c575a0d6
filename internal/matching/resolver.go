package matching

import (
	"context"
	"fmt"

	"github.com/oggyb/campus-match/internal/db"
	"github.com/oggyb/campus-match/internal/metrics"
	"github.com/oggyb/campus-match/internal/repository"
)

// MatchResult is the outcome of a TryMatch call.
//
// Matched is true whenever the pair has an active match. Created is true for
// exactly one caller per match lifetime: the one that inserted the row or
// reactivated it after an unmatch.
type MatchResult struct {
	Matched bool
	Created bool
	Match   *db.Match
}

// Resolver turns reciprocated likes into matches.
type Resolver struct {
	interests *repository.InterestRepository
	matches   *repository.MatchRepository
	metrics   *metrics.Metrics
}

func NewResolver(interests *repository.InterestRepository, matches *repository.MatchRepository, m *metrics.Metrics) *Resolver {
	return &Resolver{interests: interests, matches: matches, metrics: m}
}

// TryMatch checks whether a and b currently like each other and, if so,
// creates the match for the pair unless it already exists.
//
// Behavior:
//   - An active match between two non-banned profiles is returned as is
//     (Matched, not Created), even when one side disliked the other later.
//   - Otherwise both directions must hold a positive row not superseded by a later
//     dislike from the same side; any number of qualifying rows is fine.
//   - Banned profiles never reciprocate.
//   - The pair is stored in canonical order behind a unique index; a concurrent
//     insert is detected and the winner's row is returned.
//   - An inactive row (after unmatch) is reactivated; only one concurrent
//     caller observes Created.
func (r *Resolver) TryMatch(ctx context.Context, a, b uint64) (MatchResult, error) {
	if m, ok, err := r.matches.ActiveBetween(ctx, a, b); err != nil {
		return MatchResult{}, fmt.Errorf("load match %d-%d: %w", a, b, err)
	} else if ok {
		return MatchResult{Matched: true, Match: m}, nil
	}

	back, err := r.interests.HasReciprocal(ctx, b, a)
	if err != nil {
		return MatchResult{}, fmt.Errorf("reciprocation %d->%d: %w", b, a, err)
	}
	if !back {
		return MatchResult{}, nil
	}
	forth, err := r.interests.HasReciprocal(ctx, a, b)
	if err != nil {
		return MatchResult{}, fmt.Errorf("reciprocation %d->%d: %w", a, b, err)
	}
	if !forth {
		return MatchResult{}, nil
	}

	m, created, race, err := r.matches.CreateIfAbsent(ctx, a, b)
	if err != nil {
		return MatchResult{}, fmt.Errorf("create match %d-%d: %w", a, b, err)
	}
	if race && r.metrics != nil {
		r.metrics.MatchRaces.Inc()
	}

	if !m.Active {
		won, err := r.matches.Reactivate(ctx, m.ID)
		if err != nil {
			return MatchResult{}, fmt.Errorf("reactivate match %d: %w", m.ID, err)
		}
		created = won
		m.Active = true
	}

	if created && r.metrics != nil {
		r.metrics.MatchesCreated.Inc()
	}
	return MatchResult{Matched: true, Created: created, Match: m}, nil
}
