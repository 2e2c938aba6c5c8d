package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/edubridge/tutor/backend/pkg/log"
)

// Reaper is anything that can end sessions idle for longer than a duration.
type Reaper interface {
	Reap(idle time.Duration) int
}

// Scheduler runs the session housekeeping jobs.
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler registers the idle-session reaper on schedule, a cron expression
// or descriptor such as "@every 1m".
func NewScheduler(reaper Reaper, schedule string, idle time.Duration) (*Scheduler, error) {
	s := &Scheduler{cron: cron.New()}

	_, err := s.cron.AddFunc(schedule, func() {
		if n := reaper.Reap(idle); n > 0 {
			log.Infow("reaped idle sessions", "count", n, "idle", idle)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid reap schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
