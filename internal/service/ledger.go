package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"hiringhall-backend/internal/domain"
	"hiringhall-backend/internal/logger"
	"hiringhall-backend/internal/repository"
)

type ledgerService struct {
	bookRepo     repository.BookRepository
	regRepo      repository.RegistrationRepository
	activityRepo repository.ActivityRepository
	notifier     Notifier
}

func NewLedgerService(
	bookRepo repository.BookRepository,
	regRepo repository.RegistrationRepository,
	activityRepo repository.ActivityRepository,
	notifier Notifier,
) LedgerService {
	return &ledgerService{
		bookRepo:     bookRepo,
		regRepo:      regRepo,
		activityRepo: activityRepo,
		notifier:     notifier,
	}
}

func (s *ledgerService) Register(ctx context.Context, memberID, bookID int32) (*domain.BookRegistration, error) {
	book, err := s.bookRepo.GetByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundf("book", bookID)
		}
		return nil, err
	}
	if !book.IsActive {
		return nil, domain.StateConflictf("book", bookID, "book is not active")
	}

	existing, err := s.regRepo.GetActive(ctx, memberID, bookID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if existing != nil {
		return nil, domain.AlreadyRegistered(memberID, bookID)
	}

	now := time.Now()
	reg := &domain.BookRegistration{
		MemberID:       memberID,
		BookID:         bookID,
		Status:         domain.RegistrationStatusRegistered,
		LastReSignDate: now,
		ReSignDeadline: now.AddDate(0, 0, int(book.ReSignDays)),
	}
	if err := s.regRepo.Create(ctx, reg); err != nil {
		return nil, err
	}

	pos := reg.RegistrationNumber
	s.recordActivity(ctx, &domain.RegistrationActivity{
		RegistrationID: &reg.ID,
		MemberID:       memberID,
		BookID:         &bookID,
		Action:         domain.ActivityRegister,
		NewStatus:      string(reg.Status),
		NewPosition:    &pos,
	})
	logger.Info("member registered", "member_id", memberID, "book", book.Code(), "apn", reg.RegistrationNumber.String())
	return reg, nil
}

func (s *ledgerService) ReSign(ctx context.Context, registrationID int32) (*domain.BookRegistration, error) {
	reg, err := s.getRegistration(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if reg.Status != domain.RegistrationStatusRegistered {
		return nil, domain.NotEligible(reg.ID, reg.Status)
	}
	book, err := s.bookRepo.GetByID(ctx, reg.BookID)
	if err != nil {
		return nil, err
	}

	reg.ApplyReSign(time.Now(), book.ReSignDays)
	if err := s.regRepo.Update(ctx, reg); err != nil {
		return nil, err
	}

	s.recordActivity(ctx, &domain.RegistrationActivity{
		RegistrationID: &reg.ID,
		MemberID:       reg.MemberID,
		BookID:         &reg.BookID,
		Action:         domain.ActivityReSign,
		PrevStatus:     string(reg.Status),
		NewStatus:      string(reg.Status),
	})
	return reg, nil
}

func (s *ledgerService) GrantExempt(ctx context.Context, registrationID int32, reason string, endDate *time.Time) (*domain.BookRegistration, error) {
	reg, err := s.getRegistration(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if reg.Status != domain.RegistrationStatusRegistered {
		return nil, domain.NotEligible(reg.ID, reg.Status)
	}
	if reg.IsExempt {
		return nil, domain.StateConflictf("registration", reg.ID, "already exempt")
	}

	reg.ApplyExempt(reason, time.Now(), endDate)
	if err := s.regRepo.Update(ctx, reg); err != nil {
		return nil, err
	}

	s.recordActivity(ctx, &domain.RegistrationActivity{
		RegistrationID: &reg.ID,
		MemberID:       reg.MemberID,
		BookID:         &reg.BookID,
		Action:         domain.ActivityExemptGranted,
		PrevStatus:     string(reg.Status),
		NewStatus:      string(reg.Status),
		Note:           reason,
	})
	return reg, nil
}

func (s *ledgerService) RevokeExempt(ctx context.Context, registrationID int32) (*domain.BookRegistration, error) {
	reg, err := s.getRegistration(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if !reg.IsExempt {
		return nil, domain.StateConflictf("registration", reg.ID, "not exempt")
	}

	reason := reg.ExemptReason
	reg.ClearExempt()
	if err := s.regRepo.Update(ctx, reg); err != nil {
		return nil, err
	}

	s.recordActivity(ctx, &domain.RegistrationActivity{
		RegistrationID: &reg.ID,
		MemberID:       reg.MemberID,
		BookID:         &reg.BookID,
		Action:         domain.ActivityExemptRevoked,
		PrevStatus:     string(reg.Status),
		NewStatus:      string(reg.Status),
		Note:           reason,
	})
	return reg, nil
}

func (s *ledgerService) RecordCheckMark(ctx context.Context, registrationID int32) (*domain.BookRegistration, error) {
	reg, err := s.getRegistration(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if reg.Status != domain.RegistrationStatusRegistered {
		return nil, domain.NotEligible(reg.ID, reg.Status)
	}
	book, err := s.bookRepo.GetByID(ctx, reg.BookID)
	if err != nil {
		return nil, err
	}

	rolledOff := reg.ApplyCheckMark(book.MaxCheckMarks, time.Now())
	if err := s.regRepo.Update(ctx, reg); err != nil {
		return nil, err
	}

	if rolledOff {
		pos := reg.RegistrationNumber
		s.recordActivity(ctx, &domain.RegistrationActivity{
			RegistrationID: &reg.ID,
			MemberID:       reg.MemberID,
			BookID:         &reg.BookID,
			Action:         domain.ActivityRollOff,
			PrevStatus:     string(domain.RegistrationStatusRegistered),
			NewStatus:      string(reg.Status),
			PrevPosition:   &pos,
			Note:           string(domain.RollOffCheckMarkLimit),
		})
		s.notify(ctx, "Check-mark roll-off",
			fmt.Sprintf("Member %d rolled off book %s after exceeding %d check marks.", reg.MemberID, book.Code(), book.MaxCheckMarks))
		logger.Info("check mark limit exceeded, member rolled off", "member_id", reg.MemberID, "book", book.Code())
	} else {
		s.recordActivity(ctx, &domain.RegistrationActivity{
			RegistrationID: &reg.ID,
			MemberID:       reg.MemberID,
			BookID:         &reg.BookID,
			Action:         domain.ActivityCheckMark,
			PrevStatus:     string(reg.Status),
			NewStatus:      string(reg.Status),
			Note:           fmt.Sprintf("check marks: %d of %d", reg.CheckMarks, book.MaxCheckMarks),
		})
	}
	return reg, nil
}

func (s *ledgerService) RollOff(ctx context.Context, registrationID int32, reason domain.RollOffReason) error {
	reg, err := s.getRegistration(ctx, registrationID)
	if err != nil {
		return err
	}
	// Idempotent: rolling off an already-terminal registration is a no-op.
	if reg.Terminal() {
		return nil
	}

	prevStatus := reg.Status
	reg.ApplyRollOff(reason, time.Now())
	if err := s.regRepo.Update(ctx, reg); err != nil {
		return err
	}

	pos := reg.RegistrationNumber
	s.recordActivity(ctx, &domain.RegistrationActivity{
		RegistrationID: &reg.ID,
		MemberID:       reg.MemberID,
		BookID:         &reg.BookID,
		Action:         domain.ActivityRollOff,
		PrevStatus:     string(prevStatus),
		NewStatus:      string(reg.Status),
		PrevPosition:   &pos,
		Note:           string(reason),
	})
	return nil
}

func (s *ledgerService) Snapshot(ctx context.Context, bookID int32, includeExempt bool) ([]domain.BookRegistration, error) {
	if _, err := s.bookRepo.GetByID(ctx, bookID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundf("book", bookID)
		}
		return nil, err
	}
	return s.regRepo.ListByBook(ctx, bookID, includeExempt)
}

func (s *ledgerService) History(ctx context.Context, registrationID int32, limit int32) ([]domain.RegistrationActivity, error) {
	if limit <= 0 {
		limit = 100
	}
	if _, err := s.getRegistration(ctx, registrationID); err != nil {
		return nil, err
	}
	return s.activityRepo.ListByRegistration(ctx, registrationID, limit)
}

func (s *ledgerService) getRegistration(ctx context.Context, id int32) (*domain.BookRegistration, error) {
	reg, err := s.regRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundf("registration", id)
		}
		return nil, err
	}
	return reg, nil
}

// recordActivity writes the audit record; audit failures never fail the
// operation that produced them.
func (s *ledgerService) recordActivity(ctx context.Context, a *domain.RegistrationActivity) {
	if err := s.activityRepo.Create(ctx, a); err != nil {
		logger.Error("failed to write activity record", "action", a.Action, "member_id", a.MemberID, "error", err)
	}
}

func (s *ledgerService) notify(ctx context.Context, subject, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyAdmin(ctx, subject, message); err != nil {
		logger.Error("admin notification failed", "subject", subject, "error", err)
	}
}
