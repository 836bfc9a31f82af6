// Package jobs holds the daily enforcement pass: the scheduled rules that
// expire lapsed re-signs, lapsed exemptions, over-stayed registrations,
// finished restrictions and stale labor requests.
package jobs

import (
	"context"
	"fmt"

	"hiringhall-backend/internal/logger"
	"hiringhall-backend/internal/repository"
	"hiringhall-backend/internal/service"
)

// Rule names accepted by RunRule and reported by PendingCounts.
const (
	RuleReSigns     = "re_signs"
	RuleTimeLimits  = "time_limits"
	RuleExemptions  = "exemptions"
	RuleBlackouts   = "blackouts"
	RuleSuspensions = "suspensions"
	RuleRequests    = "requests"
)

// Runner coordinates the enforcement rules. With DryRun set, rules report
// what they would act on without writing anything.
type Runner struct {
	regRepo        repository.RegistrationRepository
	requestRepo    repository.RequestRepository
	dispatchRepo   repository.DispatchRepository
	blackoutRepo   repository.BlackoutRepository
	suspensionRepo repository.SuspensionRepository
	ledger         service.LedgerService
	intake         service.IntakeService
	notifier       service.Notifier

	BatchSize int32
	DryRun    bool
}

// Repos bundles the repositories the enforcement rules scan and mutate.
type Repos struct {
	Registrations repository.RegistrationRepository
	Requests      repository.RequestRepository
	Dispatches    repository.DispatchRepository
	Blackouts     repository.BlackoutRepository
	Suspensions   repository.SuspensionRepository
}

func NewRunner(repos Repos, ledger service.LedgerService, intake service.IntakeService, notifier service.Notifier, batchSize int32) *Runner {
	if batchSize <= 0 {
		batchSize = 200
	}
	return &Runner{
		regRepo:        repos.Registrations,
		requestRepo:    repos.Requests,
		dispatchRepo:   repos.Dispatches,
		blackoutRepo:   repos.Blackouts,
		suspensionRepo: repos.Suspensions,
		ledger:         ledger,
		intake:         intake,
		notifier:       notifier,
		BatchSize:      batchSize,
	}
}

// runWithRecovery wraps rule execution with panic recovery so one bad rule
// never takes down the scheduler.
func (r *Runner) runWithRecovery(rule string, fn func()) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error("enforcement rule panicked", "rule", rule, "panic", p)
		}
	}()

	logger.Info("starting enforcement rule", "rule", rule, "dry_run", r.DryRun)
	fn()
	logger.Info("enforcement rule completed", "rule", rule)
}

// RunAll executes every enforcement rule once, in restriction-clearing order:
// restrictions lift before the ledger rules run so a freshly clear member is
// not rolled off on stale state.
func (r *Runner) RunAll(ctx context.Context) {
	r.ExpireBlackouts(ctx)
	r.ExpireSuspensions(ctx)
	r.ExpireReSigns(ctx)
	r.ExpireTimeLimits(ctx)
	r.ExpireExemptions(ctx)
	r.ExpireRequests(ctx)
}

// RunRule executes a single enforcement rule by name.
func (r *Runner) RunRule(ctx context.Context, rule string) error {
	switch rule {
	case RuleReSigns:
		r.ExpireReSigns(ctx)
	case RuleTimeLimits:
		r.ExpireTimeLimits(ctx)
	case RuleExemptions:
		r.ExpireExemptions(ctx)
	case RuleBlackouts:
		r.ExpireBlackouts(ctx)
	case RuleSuspensions:
		r.ExpireSuspensions(ctx)
	case RuleRequests:
		r.ExpireRequests(ctx)
	default:
		return fmt.Errorf("unknown enforcement rule %q", rule)
	}
	return nil
}

// PendingCounts reports how many rows each rule would act on right now,
// plus the missed check-in count surfaced for admin review.
func (r *Runner) PendingCounts(ctx context.Context) (map[string]int32, error) {
	now := nowFunc()
	counts := map[string]int32{}

	var err error
	if counts[RuleReSigns], err = r.regRepo.CountReSignExpired(ctx, now); err != nil {
		return nil, err
	}
	if counts[RuleTimeLimits], err = r.regRepo.CountPastBookTimeLimit(ctx, now); err != nil {
		return nil, err
	}
	if counts[RuleExemptions], err = r.regRepo.CountExemptExpired(ctx, now); err != nil {
		return nil, err
	}
	if counts[RuleBlackouts], err = r.blackoutRepo.CountExpired(ctx, now); err != nil {
		return nil, err
	}
	if counts[RuleSuspensions], err = r.suspensionRepo.CountExpired(ctx, now); err != nil {
		return nil, err
	}
	if counts[RuleRequests], err = r.requestRepo.CountExpireCandidates(ctx, now); err != nil {
		return nil, err
	}
	if counts["missed_check_ins"], err = r.dispatchRepo.CountMissedCheckIns(ctx, now); err != nil {
		return nil, err
	}
	return counts, nil
}
