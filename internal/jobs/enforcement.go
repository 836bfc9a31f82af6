package jobs

import (
	"context"
	"fmt"
	"time"

	"hiringhall-backend/internal/domain"
	"hiringhall-backend/internal/logger"
	"hiringhall-backend/internal/metrics"
)

// nowFunc is swapped in tests.
var nowFunc = time.Now

// ExpireReSigns rolls off REGISTERED rows whose re-sign deadline plus grace
// period has passed.
func (r *Runner) ExpireReSigns(ctx context.Context) {
	r.runWithRecovery(RuleReSigns, func() {
		now := nowFunc()
		acted := 0
		for {
			regs, err := r.regRepo.ListReSignExpired(ctx, now, r.BatchSize)
			if err != nil {
				logger.Error("failed to list lapsed re-signs", "error", err)
				return
			}
			if len(regs) == 0 {
				break
			}
			// Failed rows stay in candidate state and would be re-listed, so a
			// batch that makes no progress ends the pass until the next tick.
			batchActed := 0
			for i := range regs {
				reg := &regs[i]
				if r.DryRun {
					logger.Info("would roll off lapsed re-sign", "registration_id", reg.ID,
						"member_id", reg.MemberID, "deadline", reg.ReSignDeadline.Format("2006-01-02"))
					continue
				}
				if err := r.ledger.RollOff(ctx, reg.ID, domain.RollOffReSignExpired); err != nil {
					logger.Error("failed to roll off lapsed re-sign", "registration_id", reg.ID, "error", err)
					continue
				}
				acted++
				batchActed++
			}
			if r.DryRun || batchActed == 0 || int32(len(regs)) < r.BatchSize {
				break
			}
		}
		metrics.EnforcementActions(RuleReSigns, acted)
		logger.Info("lapsed re-signs rolled off", "count", acted)
	})
}

// ExpireTimeLimits rolls off registrations that have outlived their book's
// maximum days on book.
func (r *Runner) ExpireTimeLimits(ctx context.Context) {
	r.runWithRecovery(RuleTimeLimits, func() {
		now := nowFunc()
		acted := 0
		for {
			regs, err := r.regRepo.ListPastBookTimeLimit(ctx, now, r.BatchSize)
			if err != nil {
				logger.Error("failed to list over-limit registrations", "error", err)
				return
			}
			if len(regs) == 0 {
				break
			}
			batchActed := 0
			for i := range regs {
				reg := &regs[i]
				if r.DryRun {
					logger.Info("would roll off over-limit registration", "registration_id", reg.ID, "member_id", reg.MemberID)
					continue
				}
				if err := r.ledger.RollOff(ctx, reg.ID, domain.RollOffTimeLimit); err != nil {
					logger.Error("failed to roll off over-limit registration", "registration_id", reg.ID, "error", err)
					continue
				}
				acted++
				batchActed++
			}
			if r.DryRun || batchActed == 0 || int32(len(regs)) < r.BatchSize {
				break
			}
		}
		metrics.EnforcementActions(RuleTimeLimits, acted)
		logger.Info("over-limit registrations rolled off", "count", acted)
	})
}

// ExpireExemptions clears exempt status whose end date has passed, returning
// those members to the dispatchable pool at their held positions.
func (r *Runner) ExpireExemptions(ctx context.Context) {
	r.runWithRecovery(RuleExemptions, func() {
		now := nowFunc()
		acted := 0
		for {
			regs, err := r.regRepo.ListExemptExpired(ctx, now, r.BatchSize)
			if err != nil {
				logger.Error("failed to list lapsed exemptions", "error", err)
				return
			}
			if len(regs) == 0 {
				break
			}
			batchActed := 0
			for i := range regs {
				reg := &regs[i]
				if r.DryRun {
					logger.Info("would clear lapsed exemption", "registration_id", reg.ID, "member_id", reg.MemberID)
					continue
				}
				if _, err := r.ledger.RevokeExempt(ctx, reg.ID); err != nil {
					logger.Error("failed to clear lapsed exemption", "registration_id", reg.ID, "error", err)
					continue
				}
				acted++
				batchActed++
			}
			if r.DryRun || batchActed == 0 || int32(len(regs)) < r.BatchSize {
				break
			}
		}
		metrics.EnforcementActions(RuleExemptions, acted)
		logger.Info("lapsed exemptions cleared", "count", acted)
	})
}

// ExpireBlackouts lifts employer blackouts whose window has ended.
func (r *Runner) ExpireBlackouts(ctx context.Context) {
	r.runWithRecovery(RuleBlackouts, func() {
		now := nowFunc()
		acted := 0
		for {
			blackouts, err := r.blackoutRepo.ListExpired(ctx, now, r.BatchSize)
			if err != nil {
				logger.Error("failed to list finished blackouts", "error", err)
				return
			}
			if len(blackouts) == 0 {
				break
			}
			batchActed := 0
			for i := range blackouts {
				b := &blackouts[i]
				if r.DryRun {
					logger.Info("would lift blackout", "blackout_id", b.ID, "member_id", b.MemberID, "employer", b.Employer)
					continue
				}
				if err := r.blackoutRepo.Lift(ctx, b.ID); err != nil {
					logger.Error("failed to lift blackout", "blackout_id", b.ID, "error", err)
					continue
				}
				acted++
				batchActed++
			}
			if r.DryRun || batchActed == 0 || int32(len(blackouts)) < r.BatchSize {
				break
			}
		}
		metrics.EnforcementActions(RuleBlackouts, acted)
		logger.Info("finished blackouts lifted", "count", acted)
	})
}

// ExpireSuspensions lifts bidding suspensions whose term has ended.
func (r *Runner) ExpireSuspensions(ctx context.Context) {
	r.runWithRecovery(RuleSuspensions, func() {
		now := nowFunc()
		acted := 0
		for {
			suspensions, err := r.suspensionRepo.ListExpired(ctx, now, r.BatchSize)
			if err != nil {
				logger.Error("failed to list finished suspensions", "error", err)
				return
			}
			if len(suspensions) == 0 {
				break
			}
			batchActed := 0
			for i := range suspensions {
				s := &suspensions[i]
				if r.DryRun {
					logger.Info("would lift bidding suspension", "suspension_id", s.ID, "member_id", s.MemberID)
					continue
				}
				if err := r.suspensionRepo.Lift(ctx, s.ID); err != nil {
					logger.Error("failed to lift bidding suspension", "suspension_id", s.ID, "error", err)
					continue
				}
				acted++
				batchActed++
			}
			if r.DryRun || batchActed == 0 || int32(len(suspensions)) < r.BatchSize {
				break
			}
		}
		metrics.EnforcementActions(RuleSuspensions, acted)
		logger.Info("finished suspensions lifted", "count", acted)
	})
}

// ExpireRequests expires OPEN requests whose start date has passed while
// still unfilled, and tells the admin which employers went short.
func (r *Runner) ExpireRequests(ctx context.Context) {
	r.runWithRecovery(RuleRequests, func() {
		now := nowFunc()
		acted := 0
		for {
			reqs, err := r.requestRepo.ListExpireCandidates(ctx, now, r.BatchSize)
			if err != nil {
				logger.Error("failed to list stale requests", "error", err)
				return
			}
			if len(reqs) == 0 {
				break
			}
			batchActed := 0
			for i := range reqs {
				req := &reqs[i]
				if r.DryRun {
					logger.Info("would expire stale request", "reference", req.Reference, "employer", req.Employer,
						"dispatched", req.WorkersDispatched, "requested", req.WorkersRequested)
					continue
				}
				if err := r.intake.ExpireRequest(ctx, req.ID); err != nil {
					logger.Error("failed to expire stale request", "reference", req.Reference, "error", err)
					continue
				}
				acted++
				batchActed++
				r.notifyShortFill(ctx, req.Employer, req.Reference, req.WorkersDispatched, req.WorkersRequested)
			}
			if r.DryRun || batchActed == 0 || int32(len(reqs)) < r.BatchSize {
				break
			}
		}
		metrics.EnforcementActions(RuleRequests, acted)
		logger.Info("stale requests expired", "count", acted)
	})
}

func (r *Runner) notifyShortFill(ctx context.Context, employer, reference string, dispatched, requested int32) {
	if r.notifier == nil {
		return
	}
	msg := fmt.Sprintf("Request %s from %q expired with %d of %d workers dispatched.", reference, employer, dispatched, requested)
	if err := r.notifier.NotifyAdmin(ctx, "Labor request expired unfilled", msg); err != nil {
		logger.Error("admin notification failed", "reference", reference, "error", err)
	}
}
