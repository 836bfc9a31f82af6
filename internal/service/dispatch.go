package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"hiringhall-backend/internal/config"
	"hiringhall-backend/internal/domain"
	"hiringhall-backend/internal/logger"
	"hiringhall-backend/internal/metrics"
	"hiringhall-backend/internal/repository"
)

type dispatchService struct {
	claims       repository.ClaimRepository
	dispatchRepo repository.DispatchRepository
	requestRepo  repository.RequestRepository
	blackoutRepo repository.BlackoutRepository
	notifier     Notifier
	cfg          config.ReferralConfig
}

func NewDispatchService(
	claims repository.ClaimRepository,
	dispatchRepo repository.DispatchRepository,
	requestRepo repository.RequestRepository,
	blackoutRepo repository.BlackoutRepository,
	notifier Notifier,
	cfg config.ReferralConfig,
) DispatchService {
	return &dispatchService{
		claims:       claims,
		dispatchRepo: dispatchRepo,
		requestRepo:  requestRepo,
		blackoutRepo: blackoutRepo,
		notifier:     notifier,
		cfg:          cfg,
	}
}

func (s *dispatchService) DispatchFromQueue(ctx context.Context, requestID int32) (*domain.Dispatch, error) {
	d, err := s.claims.ClaimNext(ctx, requestID, domain.DispatchMethodMorningReferral)
	if err != nil {
		return nil, err
	}
	metrics.DispatchCreated(string(d.Method))
	logger.Info("dispatched from queue", "dispatch", d.Reference, "member_id", d.MemberID, "request_id", d.RequestID)
	return d, nil
}

func (s *dispatchService) DispatchByName(ctx context.Context, requestID, memberID int32, antiCollusionVerified bool) (*domain.Dispatch, error) {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundf("request", requestID)
		}
		return nil, err
	}

	active, err := s.blackoutRepo.HasActive(ctx, memberID, req.Employer, time.Now())
	if err != nil {
		return nil, err
	}
	if active {
		return nil, domain.BlackoutActive(memberID, req.Employer)
	}

	// An employer repeatedly requesting the same member by name needs an
	// explicit anti-collusion verification on file.
	if !antiCollusionVerified {
		since := time.Now().AddDate(0, 0, -s.cfg.ByNameWindowDays)
		n, err := s.dispatchRepo.CountByNameSince(ctx, memberID, req.Employer, since)
		if err != nil {
			return nil, err
		}
		if int(n) >= s.cfg.ByNameLimit {
			s.notify(ctx, "Anti-collusion review required",
				fmt.Sprintf("Employer %q has dispatched member %d by name %d times in the last %d days.",
					req.Employer, memberID, n, s.cfg.ByNameWindowDays))
			return nil, domain.AntiCollusion(memberID, req.Employer)
		}
	}

	d, err := s.claims.ClaimByName(ctx, requestID, memberID)
	if err != nil {
		return nil, err
	}
	metrics.DispatchCreated(string(d.Method))
	logger.Info("dispatched by name", "dispatch", d.Reference, "member_id", memberID, "employer", req.Employer)
	return d, nil
}

func (s *dispatchService) RecordCheckIn(ctx context.Context, dispatchID int32) (*domain.Dispatch, error) {
	d, err := s.getDispatch(ctx, dispatchID)
	if err != nil {
		return nil, err
	}
	if d.Status != domain.DispatchStatusWorking {
		return nil, domain.StateConflictf("dispatch", d.ID, "dispatch is %s, not WORKING", d.Status)
	}
	if d.CheckInDeadline != nil && time.Now().After(*d.CheckInDeadline) {
		return nil, domain.StateConflictf("dispatch", d.ID, "check-in deadline passed")
	}
	d.CheckedIn = true
	if err := s.dispatchRepo.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *dispatchService) TerminateDispatch(ctx context.Context, dispatchID int32, reason domain.TermReason, daysWorked int32, hoursWorked float64) (*domain.Dispatch, error) {
	d, err := s.getDispatch(ctx, dispatchID)
	if err != nil {
		return nil, err
	}

	outcome, err := domain.TerminationOutcomeFor(reason, d.IsShortCall, int32(s.cfg.BlackoutDays))
	if err != nil {
		return nil, err
	}
	if daysWorked == 0 {
		daysWorked = int32(time.Since(d.CreatedOn).Hours()/24) + 1
	}

	terminated, err := s.claims.Terminate(ctx, dispatchID, outcome, daysWorked, hoursWorked)
	if err != nil {
		return nil, err
	}
	metrics.TerminationRecorded(string(reason))
	logger.Info("dispatch terminated", "dispatch", terminated.Reference, "reason", reason,
		"member_id", terminated.MemberID, "days_worked", daysWorked)

	if outcome.RollOffAllBooks {
		s.notify(ctx, "Member rolled off all books",
			fmt.Sprintf("Member %d terminated (%s) by employer %q; rolled off all books, %d-day blackout opened.",
				terminated.MemberID, reason, terminated.Employer, outcome.BlackoutDays))
	}
	return terminated, nil
}

func (s *dispatchService) HasActiveBlackout(ctx context.Context, memberID int32, employer string) (bool, error) {
	return s.blackoutRepo.HasActive(ctx, memberID, employer, time.Now())
}

func (s *dispatchService) getDispatch(ctx context.Context, id int32) (*domain.Dispatch, error) {
	d, err := s.dispatchRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundf("dispatch", id)
		}
		return nil, err
	}
	return d, nil
}

func (s *dispatchService) notify(ctx context.Context, subject, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyAdmin(ctx, subject, message); err != nil {
		logger.Error("admin notification failed", "subject", subject, "error", err)
	}
}
