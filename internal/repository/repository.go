package repository

import (
	"context"
	"time"

	"hiringhall-backend/internal/domain"
)

type BookRepository interface {
	Create(ctx context.Context, book *domain.ReferralBook) error
	GetByID(ctx context.Context, id int32) (*domain.ReferralBook, error)
	GetByKey(ctx context.Context, classification, region string, bookNumber int32) (*domain.ReferralBook, error)
	// ListForClassification returns active books for a classification/region
	// ordered by tier (book_number ascending).
	ListForClassification(ctx context.Context, classification, region string) ([]domain.ReferralBook, error)
	Update(ctx context.Context, book *domain.ReferralBook) error
}

type RegistrationRepository interface {
	// Create assigns the next APN for the book (monotonic, append-only) and
	// inserts the row REGISTERED, all in one transaction.
	Create(ctx context.Context, reg *domain.BookRegistration) error
	GetByID(ctx context.Context, id int32) (*domain.BookRegistration, error)
	// GetActive returns the single non-terminal registration for (member, book),
	// or sql.ErrNoRows.
	GetActive(ctx context.Context, memberID, bookID int32) (*domain.BookRegistration, error)
	Update(ctx context.Context, reg *domain.BookRegistration) error
	// ListByBook returns REGISTERED rows ordered ascending by APN; exempt rows
	// are included only when includeExempt is set.
	ListByBook(ctx context.Context, bookID int32, includeExempt bool) ([]domain.BookRegistration, error)
	// ListRegisteredByMember returns the member's REGISTERED rows across all books.
	ListRegisteredByMember(ctx context.Context, memberID int32) ([]domain.BookRegistration, error)

	// Enforcement candidate scans, bounded by limit, filtered by current state.
	ListReSignExpired(ctx context.Context, asOf time.Time, limit int32) ([]domain.BookRegistration, error)
	CountReSignExpired(ctx context.Context, asOf time.Time) (int32, error)
	ListExemptExpired(ctx context.Context, asOf time.Time, limit int32) ([]domain.BookRegistration, error)
	CountExemptExpired(ctx context.Context, asOf time.Time) (int32, error)
	ListPastBookTimeLimit(ctx context.Context, asOf time.Time, limit int32) ([]domain.BookRegistration, error)
	CountPastBookTimeLimit(ctx context.Context, asOf time.Time) (int32, error)

	// CountByBook returns the dispatchable queue depth.
	CountByBook(ctx context.Context, bookID int32) (int32, error)
}

type RequestRepository interface {
	Create(ctx context.Context, req *domain.LaborRequest) error
	GetByID(ctx context.Context, id int32) (*domain.LaborRequest, error)
	Update(ctx context.Context, req *domain.LaborRequest) error
	// ListOpenForMorning returns OPEN requests attributed to date, ordered by
	// the book's referral_start_time then request_date ascending.
	ListOpenForMorning(ctx context.Context, date time.Time) ([]domain.LaborRequest, error)
	ListExpireCandidates(ctx context.Context, asOf time.Time, limit int32) ([]domain.LaborRequest, error)
	CountExpireCandidates(ctx context.Context, asOf time.Time) (int32, error)
}

type DispatchRepository interface {
	GetByID(ctx context.Context, id int32) (*domain.Dispatch, error)
	Update(ctx context.Context, d *domain.Dispatch) error
	ListWorkingByMember(ctx context.Context, memberID int32) ([]domain.Dispatch, error)
	// CountByNameSince counts by-name dispatches of member by employer with
	// created_on after since (anti-collusion trailing window).
	CountByNameSince(ctx context.Context, memberID int32, employer string, since time.Time) (int32, error)
	CountMissedCheckIns(ctx context.Context, asOf time.Time) (int32, error)
	// CountDispatchedSince counts dispatches created against a book after since.
	CountDispatchedSince(ctx context.Context, bookID int32, since time.Time) (int32, error)
	// RecentWaitSeconds returns register-to-dispatch intervals in seconds for
	// recently dispatched registrations on a book, newest first.
	RecentWaitSeconds(ctx context.Context, bookID int32, limit int32) ([]float64, error)
}

type BidRepository interface {
	Create(ctx context.Context, bid *domain.JobBid) error
	GetByID(ctx context.Context, id int32) (*domain.JobBid, error)
	Update(ctx context.Context, bid *domain.JobBid) error
	// GetActiveBid returns the member's non-withdrawn bid on a request, or
	// sql.ErrNoRows.
	GetActiveBid(ctx context.Context, memberID, requestID int32) (*domain.JobBid, error)
	// ListPendingByRequest returns PENDING bids ordered by queue position
	// snapshot ascending.
	ListPendingByRequest(ctx context.Context, requestID int32) ([]domain.JobBid, error)
	// CountRejectionsSince counts member-caused rejections after since.
	CountRejectionsSince(ctx context.Context, memberID int32, since time.Time) (int32, error)
}

type BlackoutRepository interface {
	Create(ctx context.Context, b *domain.Blackout) error
	HasActive(ctx context.Context, memberID int32, employer string, asOf time.Time) (bool, error)
	ListActiveByMember(ctx context.Context, memberID int32, asOf time.Time) ([]domain.Blackout, error)
	ListExpired(ctx context.Context, asOf time.Time, limit int32) ([]domain.Blackout, error)
	CountExpired(ctx context.Context, asOf time.Time) (int32, error)
	Lift(ctx context.Context, id int32) error
}

type SuspensionRepository interface {
	Create(ctx context.Context, s *domain.BiddingSuspension) error
	// GetActive returns the member's in-force suspension, or sql.ErrNoRows.
	GetActive(ctx context.Context, memberID int32, asOf time.Time) (*domain.BiddingSuspension, error)
	ListExpired(ctx context.Context, asOf time.Time, limit int32) ([]domain.BiddingSuspension, error)
	CountExpired(ctx context.Context, asOf time.Time) (int32, error)
	Lift(ctx context.Context, id int32) error
}

type ActivityRepository interface {
	Create(ctx context.Context, a *domain.RegistrationActivity) error
	ListByRegistration(ctx context.Context, registrationID int32, limit int32) ([]domain.RegistrationActivity, error)
	ListByMember(ctx context.Context, memberID int32, limit int32) ([]domain.RegistrationActivity, error)
}

// ClaimRepository owns the multi-row transactions of the dispatch engine:
// queue claims, by-name claims, bid claims and termination cascades. Each
// method runs as one database transaction with row-level locking; writers
// that lose a race are retried internally with fresh reads up to a small
// bound before a concurrency conflict surfaces.
type ClaimRepository interface {
	// ClaimNext locks the request, selects the lowest-APN eligible REGISTERED
	// registration on its book (skipping rows locked by concurrent claimers),
	// marks it DISPATCHED and bumps the request's fill count, transitioning
	// the request to FILLED when it reaches workers_requested.
	ClaimNext(ctx context.Context, requestID int32, method domain.DispatchMethod) (*domain.Dispatch, error)
	// ClaimRegistration is the bid path: same accounting, but against one
	// specific registration instead of a queue scan. Blackout and bidding
	// suspension eligibility are re-checked inside the transaction.
	ClaimRegistration(ctx context.Context, requestID, registrationID int32) (*domain.Dispatch, error)
	// ClaimByName dispatches a named member bypassing the queue order. If the
	// member holds a REGISTERED row on the request's book it is consumed;
	// otherwise the dispatch stands alone with no registration.
	ClaimByName(ctx context.Context, requestID, memberID int32) (*domain.Dispatch, error)
	// Terminate applies a termination outcome: completes the dispatch, then
	// restores or rolls off registrations and opens a blackout as the outcome
	// dictates.
	Terminate(ctx context.Context, dispatchID int32, outcome domain.TerminationOutcome, daysWorked int32, hoursWorked float64) (*domain.Dispatch, error)
}
