package session

import (
	"context"
	"fmt"
	"time"

	"github.com/oggyb/campus-match/internal/cache"
	svcErr "github.com/oggyb/campus-match/internal/errors"
)

// Patch mutates the payload during a transition.
type Patch func(*Session)

// WithCandidate sets the profile on screen.
func WithCandidate(id uint64) Patch { return func(s *Session) { s.CandidateID = id } }

// WithQueue replaces the pending queue.
func WithQueue(ids []uint64) Patch {
	return func(s *Session) { s.Queue = append([]uint64(nil), ids...) }
}

// Store persists sessions in Redis as JSON with a sliding TTL.
type Store struct {
	cache *cache.RedisCache
	ttl   time.Duration
	now   func() time.Time
}

func NewStore(rc *cache.RedisCache, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{cache: rc, ttl: ttl, now: func() time.Time { return time.Now().UTC() }}
}

// Get returns the stored session or a fresh idle one.
func (s *Store) Get(ctx context.Context, userID uint64) (Session, error) {
	sess := Fresh(userID)
	found, err := s.cache.GetJSON(ctx, s.cache.KeyForSession(userID), &sess)
	if err != nil {
		return Session{}, fmt.Errorf("load session %d: %w", userID, err)
	}
	if !found || !sess.State.Valid() {
		return Fresh(userID), nil
	}
	return sess, nil
}

// Transition moves the user's session to next and applies patches.
//
// Behavior:
//   - Moves not in the transition table → InvalidState; nothing is written.
//   - Entering Reporting remembers the state to return to.
//   - Entering Idle clears the payload.
func (s *Store) Transition(ctx context.Context, userID uint64, next State, patches ...Patch) (Session, error) {
	sess, err := s.Get(ctx, userID)
	if err != nil {
		return Session{}, err
	}
	if !sess.State.CanTransition(next) {
		return Session{}, svcErr.InvalidState("session %d cannot move from %s to %s", userID, sess.State, next)
	}

	switch next {
	case Idle:
		sess = Fresh(userID)
	case Reporting:
		sess.Previous = sess.State
	default:
		if sess.State == Reporting {
			sess.Previous = ""
		}
	}
	sess.State = next
	for _, p := range patches {
		p(&sess)
	}
	sess.UpdatedAt = s.now()

	if err := s.cache.SetJSON(ctx, s.cache.KeyForSession(userID), sess, s.ttl); err != nil {
		return Session{}, fmt.Errorf("save session %d: %w", userID, err)
	}
	return sess, nil
}

// Reset drops stored state; the next Get is idle.
func (s *Store) Reset(ctx context.Context, userID uint64) error {
	return s.cache.Del(ctx, s.cache.KeyForSession(userID))
}
