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

type bidService struct {
	bidRepo        repository.BidRepository
	requestRepo    repository.RequestRepository
	regRepo        repository.RegistrationRepository
	suspensionRepo repository.SuspensionRepository
	blackoutRepo   repository.BlackoutRepository
	activityRepo   repository.ActivityRepository
	claims         repository.ClaimRepository
	intake         IntakeService
	notifier       Notifier
	cfg            config.ReferralConfig
}

func NewBidService(
	bidRepo repository.BidRepository,
	requestRepo repository.RequestRepository,
	regRepo repository.RegistrationRepository,
	suspensionRepo repository.SuspensionRepository,
	blackoutRepo repository.BlackoutRepository,
	activityRepo repository.ActivityRepository,
	claims repository.ClaimRepository,
	intake IntakeService,
	notifier Notifier,
	cfg config.ReferralConfig,
) BidService {
	return &bidService{
		bidRepo:        bidRepo,
		requestRepo:    requestRepo,
		regRepo:        regRepo,
		suspensionRepo: suspensionRepo,
		blackoutRepo:   blackoutRepo,
		activityRepo:   activityRepo,
		claims:         claims,
		intake:         intake,
		notifier:       notifier,
		cfg:            cfg,
	}
}

func (s *bidService) PlaceBid(ctx context.Context, memberID, requestID int32) (*domain.JobBid, error) {
	req, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if err := s.intake.ValidateBiddingWindow(req, now); err != nil {
		return nil, err
	}

	if susp, err := s.CheckSuspension(ctx, memberID); err != nil {
		return nil, err
	} else if susp != nil {
		return nil, domain.BiddingSuspended(memberID)
	}

	reg, err := s.regRepo.GetActive(ctx, memberID, req.BookID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.Eligibilityf("member", memberID, "not registered on book %d", req.BookID)
		}
		return nil, err
	}
	if !reg.Dispatchable() {
		return nil, domain.NotEligible(reg.ID, reg.Status)
	}

	blocked, err := s.blackoutRepo.HasActive(ctx, memberID, req.Employer, now)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, domain.BlackoutActive(memberID, req.Employer)
	}

	if existing, err := s.bidRepo.GetActiveBid(ctx, memberID, requestID); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	} else if existing != nil {
		return nil, domain.StateConflictf("bid", existing.ID, "member %d already bid on request %d", memberID, requestID)
	}

	bid := &domain.JobBid{
		RequestID:          requestID,
		MemberID:           memberID,
		RegistrationID:     reg.ID,
		QueuePositionAtBid: reg.RegistrationNumber,
		Status:             domain.BidStatusPending,
	}
	if err := s.bidRepo.Create(ctx, bid); err != nil {
		return nil, err
	}

	pos := reg.RegistrationNumber
	s.recordActivity(ctx, &domain.RegistrationActivity{
		RegistrationID: &reg.ID,
		MemberID:       memberID,
		BookID:         &reg.BookID,
		Action:         domain.ActivityBidPlaced,
		PrevPosition:   &pos,
		Note:           fmt.Sprintf("request %s", req.Reference),
	})
	logger.Info("bid placed", "member_id", memberID, "request", req.Reference, "apn", reg.RegistrationNumber.String())
	return bid, nil
}

func (s *bidService) WithdrawBid(ctx context.Context, bidID int32) error {
	bid, err := s.getBid(ctx, bidID)
	if err != nil {
		return err
	}
	if bid.Terminal() {
		return domain.StateConflictf("bid", bid.ID, "bid is %s", bid.Status)
	}
	bid.Status = domain.BidStatusWithdrawn
	if err := s.bidRepo.Update(ctx, bid); err != nil {
		return err
	}
	metrics.BidResolved(string(bid.Status))
	s.recordActivity(ctx, &domain.RegistrationActivity{
		RegistrationID: &bid.RegistrationID,
		MemberID:       bid.MemberID,
		Action:         domain.ActivityBidWithdrawn,
	})
	return nil
}

// ProcessBids resolves pending bids on a request after its bidding window
// closes, lowest queue-position snapshot first. Bids that cannot be honored
// are rejected without charging the member.
func (s *bidService) ProcessBids(ctx context.Context, requestID int32) ([]domain.JobBid, error) {
	req, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !req.AllowsOnlineBidding {
		return nil, domain.Eligibilityf("request", req.ID, "online bidding not enabled")
	}
	if req.BiddingClosesAt != nil && time.Now().Before(*req.BiddingClosesAt) {
		return nil, domain.StateConflictf("request", req.ID, "bidding window still open")
	}

	pending, err := s.bidRepo.ListPendingByRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	processed := make([]domain.JobBid, 0, len(pending))
	for i := range pending {
		bid := &pending[i]
		if err := s.resolveBid(ctx, req, bid); err != nil {
			return processed, err
		}
		processed = append(processed, *bid)
	}
	logger.Info("bids processed", "request", req.Reference, "count", len(processed))
	return processed, nil
}

// resolveBid attempts the claim for one pending bid and records the outcome.
// Domain refusals (queue position lost, roll-off since bidding, request
// filled) become non-member rejections; infrastructure errors propagate.
func (s *bidService) resolveBid(ctx context.Context, req *domain.LaborRequest, bid *domain.JobBid) error {
	d, err := s.claims.ClaimRegistration(ctx, req.ID, bid.RegistrationID)
	if err != nil {
		var de *domain.Error
		if !errors.As(err, &de) {
			return err
		}
		bid.Status = domain.BidStatusRejected
		bid.RejectedByMember = false
		bid.RejectionNote = de.Msg
		now := time.Now()
		bid.RejectionDate = &now
	} else {
		bid.Status = domain.BidStatusAccepted
		bid.WasDispatched = true
		s.recordActivity(ctx, &domain.RegistrationActivity{
			RegistrationID: &bid.RegistrationID,
			MemberID:       bid.MemberID,
			Action:         domain.ActivityBidAccepted,
			Note:           fmt.Sprintf("dispatch %s", d.Reference),
		})
	}
	if err := s.bidRepo.Update(ctx, bid); err != nil {
		return err
	}
	metrics.BidResolved(string(bid.Status))
	return nil
}

func (s *bidService) AcceptBid(ctx context.Context, bidID int32) (*domain.Dispatch, error) {
	bid, err := s.getBid(ctx, bidID)
	if err != nil {
		return nil, err
	}
	if bid.Terminal() {
		return nil, domain.StateConflictf("bid", bid.ID, "bid is %s", bid.Status)
	}

	d, err := s.claims.ClaimRegistration(ctx, bid.RequestID, bid.RegistrationID)
	if err != nil {
		return nil, err
	}
	bid.Status = domain.BidStatusAccepted
	bid.WasDispatched = true
	if err := s.bidRepo.Update(ctx, bid); err != nil {
		return nil, err
	}
	metrics.BidResolved(string(bid.Status))
	s.recordActivity(ctx, &domain.RegistrationActivity{
		RegistrationID: &bid.RegistrationID,
		MemberID:       bid.MemberID,
		Action:         domain.ActivityBidAccepted,
		Note:           fmt.Sprintf("dispatch %s", d.Reference),
	})
	return d, nil
}

// RejectBid records a member-initiated rejection. A second member-caused
// rejection inside the trailing window suspends the member from bidding.
func (s *bidService) RejectBid(ctx context.Context, bidID int32, note string) (*domain.JobBid, error) {
	bid, err := s.getBid(ctx, bidID)
	if err != nil {
		return nil, err
	}
	if bid.Terminal() {
		return nil, domain.StateConflictf("bid", bid.ID, "bid is %s", bid.Status)
	}

	now := time.Now()
	bid.Status = domain.BidStatusRejected
	bid.RejectedByMember = true
	bid.RejectionDate = &now
	bid.RejectionNote = note
	if err := s.bidRepo.Update(ctx, bid); err != nil {
		return nil, err
	}
	metrics.BidResolved(string(bid.Status))
	s.recordActivity(ctx, &domain.RegistrationActivity{
		RegistrationID: &bid.RegistrationID,
		MemberID:       bid.MemberID,
		Action:         domain.ActivityBidRejected,
		Note:           note,
	})

	since := now.AddDate(0, -s.cfg.RejectionWindowMonths, 0)
	n, err := s.bidRepo.CountRejectionsSince(ctx, bid.MemberID, since)
	if err != nil {
		return nil, err
	}
	if int(n) >= s.cfg.RejectionLimit {
		if err := s.suspendBidding(ctx, bid, now, n); err != nil {
			return nil, err
		}
	}
	return bid, nil
}

// suspendBidding opens a bidding suspension unless one is already in force.
func (s *bidService) suspendBidding(ctx context.Context, bid *domain.JobBid, now time.Time, rejections int32) error {
	if existing, err := s.suspensionRepo.GetActive(ctx, bid.MemberID, now); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	} else if existing != nil {
		return nil
	}

	susp := &domain.BiddingSuspension{
		MemberID:        bid.MemberID,
		TriggeringBidID: &bid.ID,
		StartsAt:        now,
		EndsAt:          now.AddDate(0, s.cfg.SuspensionMonths, 0),
	}
	if err := s.suspensionRepo.Create(ctx, susp); err != nil {
		return err
	}
	logger.Warn("bidding suspension opened", "member_id", bid.MemberID, "ends_at", susp.EndsAt.Format("2006-01-02"))
	s.notify(ctx, "Bidding suspension opened",
		fmt.Sprintf("Member %d suspended from online bidding until %s after %d rejections.",
			bid.MemberID, susp.EndsAt.Format("2006-01-02"), rejections))
	return nil
}

func (s *bidService) CheckSuspension(ctx context.Context, memberID int32) (*domain.BiddingSuspension, error) {
	susp, err := s.suspensionRepo.GetActive(ctx, memberID, time.Now())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return susp, nil
}

func (s *bidService) getRequest(ctx context.Context, id int32) (*domain.LaborRequest, error) {
	req, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundf("request", id)
		}
		return nil, err
	}
	return req, nil
}

func (s *bidService) getBid(ctx context.Context, id int32) (*domain.JobBid, error) {
	bid, err := s.bidRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundf("bid", id)
		}
		return nil, err
	}
	return bid, nil
}

func (s *bidService) recordActivity(ctx context.Context, a *domain.RegistrationActivity) {
	if err := s.activityRepo.Create(ctx, a); err != nil {
		logger.Error("failed to write activity record", "action", a.Action, "member_id", a.MemberID, "error", err)
	}
}

func (s *bidService) notify(ctx context.Context, subject, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyAdmin(ctx, subject, message); err != nil {
		logger.Error("admin notification failed", "subject", subject, "error", err)
	}
}
