// -----------------------------------------------------------------------
// Scheduler Service - cron-driven rebuilds for watch mode
// -----------------------------------------------------------------------

package scheduler

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quarry/internal/common"
)

// Service triggers pipeline runs on a cron schedule. Overlapping
// triggers are skipped rather than queued: the prefix lock would reject
// the second run anyway, so skipping keeps the log clean.
type Service struct {
	cron    *cron.Cron
	logger  arbor.ILogger
	runFn   func()
	running atomic.Bool
	wg      sync.WaitGroup
}

// NewService creates a scheduler that invokes runFn per the cron
// expression (standard 5-field format)
func NewService(logger arbor.ILogger, cronExpr string, runFn func()) (*Service, error) {
	s := &Service{
		cron:   cron.New(),
		logger: logger,
		runFn:  runFn,
	}

	if _, err := s.cron.AddFunc(cronExpr, s.trigger); err != nil {
		return nil, fmt.Errorf("invalid cron schedule '%s': %w", cronExpr, err)
	}

	return s, nil
}

// Start begins the schedule
func (s *Service) Start() {
	s.cron.Start()
	s.logger.Info().Msg("Rebuild scheduler started")
}

// Stop halts the schedule and waits for a running rebuild to finish
func (s *Service) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.wg.Wait()
	s.logger.Info().Msg("Rebuild scheduler stopped")
}

// trigger hands the rebuild to a panic-protected goroutine. A panicking
// run must not take down watch mode; the running flag is held until the
// rebuild finishes so overlapping triggers keep being skipped.
func (s *Service) trigger() {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn().Msg("Previous scheduled rebuild still running, skipping this trigger")
		return
	}

	s.logger.Info().Msg("Scheduled rebuild triggered")

	s.wg.Add(1)
	common.SafeGo(s.logger, "scheduled-rebuild", func() {
		defer s.wg.Done()
		defer s.running.Store(false)
		s.runFn()
	})
}
