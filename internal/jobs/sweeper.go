// Package jobs hosts background maintenance tasks scheduled with cron.
package jobs

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/beatplayr/backend/internal/logger"
)

// Sweepable is any tracker that can evict expired state and report how many
// entries it removed.
type Sweepable interface {
	Sweep() int
}

// Sweeper periodically evicts expired suspicion records, lifted blocks and
// stale rate-limit windows so long-idle identities do not pin memory.
type Sweeper struct {
	cron     *cron.Cron
	interval time.Duration
	targets  map[string]Sweepable
}

// NewSweeper creates a sweeper that runs every interval over the named
// targets. The name only appears in logs.
func NewSweeper(interval time.Duration, targets map[string]Sweepable) *Sweeper {
	return &Sweeper{
		cron:     cron.New(),
		interval: interval,
		targets:  targets,
	}
}

// Start schedules the sweep job. Returns an error if the interval cannot be
// expressed as a cron schedule.
func (s *Sweeper) Start() error {
	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return fmt.Errorf("failed to schedule sweep job: %w", err)
	}

	s.cron.Start()
	logger.Log().WithField("interval", s.interval.String()).Info("Eviction sweeper started")
	return nil
}

// Stop halts the schedule and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Log().Info("Eviction sweeper stopped")
}

func (s *Sweeper) run() {
	fields := logrus.Fields{}
	total := 0
	for name, target := range s.targets {
		removed := target.Sweep()
		fields[name] = removed
		total += removed
	}

	if total > 0 {
		logger.WithFields(fields).Debug("Swept expired tracker state")
	}
}
