package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"hiringhall-backend/internal/domain"
	"hiringhall-backend/internal/metrics"
	"hiringhall-backend/internal/repository"
)

// recentWaitSample bounds how many dispatches feed the wait estimate.
const recentWaitSample = 50

type analyticsService struct {
	bookRepo     repository.BookRepository
	regRepo      repository.RegistrationRepository
	dispatchRepo repository.DispatchRepository
}

func NewAnalyticsService(
	bookRepo repository.BookRepository,
	regRepo repository.RegistrationRepository,
	dispatchRepo repository.DispatchRepository,
) AnalyticsService {
	return &analyticsService{
		bookRepo:     bookRepo,
		regRepo:      regRepo,
		dispatchRepo: dispatchRepo,
	}
}

func (s *analyticsService) Snapshot(ctx context.Context, bookID int32) ([]domain.BookRegistration, error) {
	if _, err := s.getBook(ctx, bookID); err != nil {
		return nil, err
	}
	return s.regRepo.ListByBook(ctx, bookID, true)
}

func (s *analyticsService) Depth(ctx context.Context, bookID int32) (int32, error) {
	book, err := s.getBook(ctx, bookID)
	if err != nil {
		return 0, err
	}
	depth, err := s.regRepo.CountByBook(ctx, bookID)
	if err != nil {
		return 0, err
	}
	metrics.SetQueueDepth(book.Code(), depth)
	return depth, nil
}

func (s *analyticsService) DispatchRate(ctx context.Context, bookID int32, window time.Duration) (float64, error) {
	if _, err := s.getBook(ctx, bookID); err != nil {
		return 0, err
	}
	if window <= 0 {
		window = 30 * 24 * time.Hour
	}
	n, err := s.dispatchRepo.CountDispatchedSince(ctx, bookID, time.Now().Add(-window))
	if err != nil {
		return 0, err
	}
	return float64(n) / window.Hours() * 24, nil
}

// EstimatedWait is the median register-to-dispatch interval over recent
// dispatches. Zero with no error when the book has no dispatch history.
func (s *analyticsService) EstimatedWait(ctx context.Context, bookID int32) (time.Duration, error) {
	if _, err := s.getBook(ctx, bookID); err != nil {
		return 0, err
	}
	waits, err := s.dispatchRepo.RecentWaitSeconds(ctx, bookID, recentWaitSample)
	if err != nil {
		return 0, err
	}
	if len(waits) == 0 {
		return 0, nil
	}
	sort.Float64s(waits)
	mid := len(waits) / 2
	median := waits[mid]
	if len(waits)%2 == 0 {
		median = (waits[mid-1] + waits[mid]) / 2
	}
	return time.Duration(median * float64(time.Second)), nil
}

func (s *analyticsService) getBook(ctx context.Context, id int32) (*domain.ReferralBook, error) {
	book, err := s.bookRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundf("book", id)
		}
		return nil, err
	}
	return book, nil
}
