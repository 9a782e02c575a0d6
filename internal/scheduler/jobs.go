package scheduler

import (
	"context"
	"time"

	"github.com/oggyb/campus-match/internal/config"
)

// SyntheticReplayJob is the name of the decoy replay job.
const SyntheticReplayJob = "synthetic-replay"

// Replayer clears viewed marks on synthetic profiles older than a threshold.
type Replayer interface {
	ReplaySynthetic(ctx context.Context, olderThan time.Duration) (int64, error)
}

// RegisterDefaults adds the jobs enabled in cfg.
func (s *Scheduler) RegisterDefaults(cfg *config.Config, r Replayer) error {
	after := cfg.Scheduler.SyntheticReplayAfter
	return s.AddJob(SyntheticReplayJob, cfg.Scheduler.SyntheticReplayCron, func(ctx context.Context) error {
		n, err := r.ReplaySynthetic(ctx, after)
		if err != nil {
			return err
		}
		if n > 0 {
			s.log.Info("synthetic profiles replayed", "marks_cleared", n, "older_than", after)
		}
		return nil
	})
}
