package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"hiringhall-backend/internal/config"
	"hiringhall-backend/internal/jobs"
	"hiringhall-backend/internal/logger"
)

// Scheduler drives the daily enforcement pass off cron schedules.
type Scheduler struct {
	cron   *cron.Cron
	runner *jobs.Runner
}

// NewScheduler creates a scheduler wired to the enforcement runner.
func NewScheduler(runner *jobs.Runner, cfg config.SchedulerConfig) *Scheduler {
	// UTC with seconds precision; schedules are staggered so restrictions
	// clear before the ledger rules fire.
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
	)

	s := &Scheduler{
		cron:   c,
		runner: runner,
	}

	s.registerRules(cfg)
	return s
}

func (s *Scheduler) registerRules(cfg config.SchedulerConfig) {
	rules := []struct {
		spec string
		name string
		fn   func(context.Context)
	}{
		{cfg.ExpireBlackouts, jobs.RuleBlackouts, s.runner.ExpireBlackouts},
		{cfg.ExpireSuspensions, jobs.RuleSuspensions, s.runner.ExpireSuspensions},
		{cfg.ExpireReSigns, jobs.RuleReSigns, s.runner.ExpireReSigns},
		{cfg.ExpireTimeLimits, jobs.RuleTimeLimits, s.runner.ExpireTimeLimits},
		{cfg.ExpireExemptions, jobs.RuleExemptions, s.runner.ExpireExemptions},
		{cfg.ExpireRequests, jobs.RuleRequests, s.runner.ExpireRequests},
	}

	for _, rule := range rules {
		fn := rule.fn
		if _, err := s.cron.AddFunc(rule.spec, func() { fn(context.Background()) }); err != nil {
			logger.Error("failed to register enforcement rule", "rule", rule.name, "spec", rule.spec, "error", err)
			continue
		}
		logger.Debug("enforcement rule registered", "rule", rule.name, "spec", rule.spec)
	}

	logger.Info("enforcement schedule registered", "rules", len(rules))
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	logger.Info("Starting cron scheduler...")
	s.cron.Start()
	logger.Info("Cron scheduler started successfully")
}

// Stop gracefully stops the cron scheduler
func (s *Scheduler) Stop() {
	logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron scheduler stopped")
}

// IsRunning returns true if the scheduler is running
func (s *Scheduler) IsRunning() bool {
	return len(s.cron.Entries()) > 0
}
