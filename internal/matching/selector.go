package matching

import (
	"context"

	"github.com/oggyb/campus-match/internal/db"
	svcErr "github.com/oggyb/campus-match/internal/errors"
	"github.com/oggyb/campus-match/internal/repository"
)

// Selector picks the next profile to show a viewer.
type Selector struct {
	profiles *repository.ProfileRepository
}

func NewSelector(profiles *repository.ProfileRepository) *Selector {
	return &Selector{profiles: profiles}
}

// NextCandidate returns the most recently active eligible profile the viewer
// has not reacted to yet, or nil when the pool is exhausted. It never writes.
//
// Behavior:
//   - Unknown viewer → NotFound.
//   - Banned or unregistered viewer → InvalidState.
//   - Exhaustion is (nil, nil), never an error.
func (s *Selector) NextCandidate(ctx context.Context, viewerID uint64) (*db.Profile, error) {
	viewer, err := s.profiles.Get(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if viewer.Banned {
		return nil, svcErr.InvalidState("profile %d is banned", viewerID)
	}
	if !viewer.Registered {
		return nil, svcErr.InvalidState("profile %d has not finished registration", viewerID)
	}
	return s.profiles.NextCandidate(ctx, viewer)
}
