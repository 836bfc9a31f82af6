package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"hiringhall-backend/internal/config"
	"hiringhall-backend/internal/domain"
	"hiringhall-backend/internal/logger"
	"hiringhall-backend/internal/repository"

	"github.com/google/uuid"
)

type intakeService struct {
	requestRepo  repository.RequestRepository
	bookRepo     repository.BookRepository
	activityRepo repository.ActivityRepository
	cfg          config.ReferralConfig
}

func NewIntakeService(
	requestRepo repository.RequestRepository,
	bookRepo repository.BookRepository,
	activityRepo repository.ActivityRepository,
	cfg config.ReferralConfig,
) IntakeService {
	return &intakeService{
		requestRepo:  requestRepo,
		bookRepo:     bookRepo,
		activityRepo: activityRepo,
		cfg:          cfg,
	}
}

func (s *intakeService) CreateRequest(ctx context.Context, in CreateRequestInput) (*domain.LaborRequest, error) {
	if in.WorkersRequested <= 0 {
		return nil, domain.Eligibilityf("request", 0, "workers_requested must be positive")
	}
	if in.IsShortCall && (in.ShortCallDays < 1 || in.ShortCallDays > domain.ShortCallMaxDays) {
		return nil, domain.Eligibilityf("request", 0, "short_call_days must be between 1 and %d", domain.ShortCallMaxDays)
	}
	if in.IsForepersonByName && in.ForepersonMemberID == nil {
		return nil, domain.Eligibilityf("request", 0, "foreperson-by-name request must name a member")
	}

	book, err := s.resolveBook(ctx, in)
	if err != nil {
		return nil, err
	}

	submitted := in.SubmittedAt
	if submitted.IsZero() {
		submitted = time.Now()
	}
	// Requests submitted after the cutoff belong to the next business day's
	// morning referral, not today's.
	requestDate := submitted
	if submitted.Hour() >= s.cfg.CutoffHour {
		requestDate = nextBusinessDay(submitted)
	}

	req := &domain.LaborRequest{
		Reference:           uuid.NewString(),
		Employer:            in.Employer,
		BookID:              book.ID,
		Classification:      book.Classification,
		Region:              book.Region,
		WorkersRequested:    in.WorkersRequested,
		RequestDate:         requestDate,
		StartDate:           in.StartDate,
		StartTime:           in.StartTime,
		IsShortCall:         in.IsShortCall,
		ShortCallDays:       in.ShortCallDays,
		IsForepersonByName:  in.IsForepersonByName,
		ForepersonMemberID:  in.ForepersonMemberID,
		AllowsOnlineBidding: in.AllowsOnlineBidding && book.InternetBiddingEnabled,
		Status:              domain.RequestStatusOpen,
	}

	req.GeneratesCheckMark = true
	switch {
	case in.IsForepersonByName:
		req.GeneratesCheckMark = false
		req.NoCheckMarkReason = domain.NoCheckMarkForeperson
	case in.IsShortCall:
		req.GeneratesCheckMark = false
		req.NoCheckMarkReason = domain.NoCheckMarkShortCall
	}

	if req.AllowsOnlineBidding {
		opens, closes := s.biddingWindow(in.StartDate)
		req.BiddingOpensAt = &opens
		req.BiddingClosesAt = &closes
	}

	if err := s.requestRepo.Create(ctx, req); err != nil {
		return nil, err
	}

	s.recordActivity(ctx, req, domain.ActivityRequestCreated, "")
	logger.Info("labor request created", "reference", req.Reference, "employer", req.Employer,
		"book", book.Code(), "workers", req.WorkersRequested, "request_date", requestDate.Format("2006-01-02"))
	return req, nil
}

// resolveBook finds the target book: explicit id, or the highest-priority
// (lowest book number) active book for the classification/region.
func (s *intakeService) resolveBook(ctx context.Context, in CreateRequestInput) (*domain.ReferralBook, error) {
	if in.BookID != 0 {
		book, err := s.bookRepo.GetByID(ctx, in.BookID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, domain.NotFoundf("book", in.BookID)
			}
			return nil, err
		}
		return book, nil
	}
	books, err := s.bookRepo.ListForClassification(ctx, in.Classification, in.Region)
	if err != nil {
		return nil, err
	}
	if len(books) == 0 {
		return nil, domain.NotFoundf("book", 0)
	}
	return &books[0], nil
}

// biddingWindow spans 5:30 PM the evening before the start date through
// 7:00 AM of the start date.
func (s *intakeService) biddingWindow(startDate time.Time) (time.Time, time.Time) {
	eve := startDate.AddDate(0, 0, -1)
	opens := time.Date(eve.Year(), eve.Month(), eve.Day(), s.cfg.BidOpenHour, s.cfg.BidOpenMinute, 0, 0, startDate.Location())
	closes := time.Date(startDate.Year(), startDate.Month(), startDate.Day(), s.cfg.BidCloseHour, s.cfg.BidCloseMinute, 0, 0, startDate.Location())
	return opens, closes
}

// nextBusinessDay returns the next weekday after t's date.
func nextBusinessDay(t time.Time) time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, t.Location())
	for {
		d = d.AddDate(0, 0, 1)
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			return d
		}
	}
}

func (s *intakeService) CancelRequest(ctx context.Context, requestID int32) error {
	req, err := s.getRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if req.Terminal() {
		return domain.StateConflictf("request", req.ID, "request is %s", req.Status)
	}
	req.Status = domain.RequestStatusCancelled
	if err := s.requestRepo.Update(ctx, req); err != nil {
		return err
	}
	s.recordActivity(ctx, req, domain.ActivityRequestCancelled, "")
	return nil
}

func (s *intakeService) ExpireRequest(ctx context.Context, requestID int32) error {
	req, err := s.getRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if req.Terminal() {
		return domain.StateConflictf("request", req.ID, "request is %s", req.Status)
	}
	if !dateBefore(req.StartDate, time.Now()) {
		return domain.StateConflictf("request", req.ID, "start date has not passed")
	}
	req.Status = domain.RequestStatusExpired
	if err := s.requestRepo.Update(ctx, req); err != nil {
		return err
	}
	s.recordActivity(ctx, req, domain.ActivityRequestExpired, "")
	logger.Info("labor request expired unfilled", "reference", req.Reference,
		"dispatched", req.WorkersDispatched, "requested", req.WorkersRequested)
	return nil
}

// dateBefore reports whether a's calendar date is strictly before b's.
func dateBefore(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC).Before(time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC))
}

func (s *intakeService) RequestsForMorning(ctx context.Context, date time.Time) ([]domain.LaborRequest, error) {
	return s.requestRepo.ListOpenForMorning(ctx, date)
}

func (s *intakeService) ValidateBiddingWindow(req *domain.LaborRequest, now time.Time) error {
	if !req.AllowsOnlineBidding {
		return domain.Eligibilityf("request", req.ID, "online bidding not enabled")
	}
	if req.Status != domain.RequestStatusOpen {
		return domain.StateConflictf("request", req.ID, "request is %s, not OPEN", req.Status)
	}
	if !req.BiddingWindowOpen(now) {
		return domain.Eligibilityf("request", req.ID, "outside bidding window")
	}
	return nil
}

func (s *intakeService) getRequest(ctx context.Context, id int32) (*domain.LaborRequest, error) {
	req, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundf("request", id)
		}
		return nil, err
	}
	return req, nil
}

func (s *intakeService) recordActivity(ctx context.Context, req *domain.LaborRequest, action domain.ActivityAction, note string) {
	if note == "" {
		note = "request " + req.Reference
	}
	a := &domain.RegistrationActivity{
		BookID: &req.BookID,
		Action: action,
		Note:   note,
	}
	if err := s.activityRepo.Create(ctx, a); err != nil {
		logger.Error("failed to write activity record", "action", action, "request", req.Reference, "error", err)
	}
}
