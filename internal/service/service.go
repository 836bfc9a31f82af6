package service

import (
	"context"
	"time"

	"hiringhall-backend/internal/domain"
)

// LedgerService owns book registrations and per-book queue order.
type LedgerService interface {
	Register(ctx context.Context, memberID, bookID int32) (*domain.BookRegistration, error)
	ReSign(ctx context.Context, registrationID int32) (*domain.BookRegistration, error)
	GrantExempt(ctx context.Context, registrationID int32, reason string, endDate *time.Time) (*domain.BookRegistration, error)
	RevokeExempt(ctx context.Context, registrationID int32) (*domain.BookRegistration, error)
	RecordCheckMark(ctx context.Context, registrationID int32) (*domain.BookRegistration, error)
	RollOff(ctx context.Context, registrationID int32, reason domain.RollOffReason) error
	Snapshot(ctx context.Context, bookID int32, includeExempt bool) ([]domain.BookRegistration, error)
	History(ctx context.Context, registrationID int32, limit int32) ([]domain.RegistrationActivity, error)
}

// CreateRequestInput is the employer-facing shape of a new labor request.
type CreateRequestInput struct {
	Employer            string
	BookID              int32 // zero: resolve from classification/region
	Classification      string
	Region              string
	WorkersRequested    int32
	StartDate           time.Time
	StartTime           string
	IsShortCall         bool
	ShortCallDays       int32
	IsForepersonByName  bool
	ForepersonMemberID  *int32
	AllowsOnlineBidding bool
	SubmittedAt         time.Time // zero: now
}

// IntakeService owns labor request lifecycle and cutoff/window computation.
type IntakeService interface {
	CreateRequest(ctx context.Context, in CreateRequestInput) (*domain.LaborRequest, error)
	CancelRequest(ctx context.Context, requestID int32) error
	ExpireRequest(ctx context.Context, requestID int32) error
	RequestsForMorning(ctx context.Context, date time.Time) ([]domain.LaborRequest, error)
	// ValidateBiddingWindow is a pure check that a bid may be placed now.
	ValidateBiddingWindow(req *domain.LaborRequest, now time.Time) error
}

// DispatchService converts queue positions and requests into dispatches and
// owns the termination state machine.
type DispatchService interface {
	DispatchFromQueue(ctx context.Context, requestID int32) (*domain.Dispatch, error)
	DispatchByName(ctx context.Context, requestID, memberID int32, antiCollusionVerified bool) (*domain.Dispatch, error)
	RecordCheckIn(ctx context.Context, dispatchID int32) (*domain.Dispatch, error)
	TerminateDispatch(ctx context.Context, dispatchID int32, reason domain.TermReason, daysWorked int32, hoursWorked float64) (*domain.Dispatch, error)
	HasActiveBlackout(ctx context.Context, memberID int32, employer string) (bool, error)
}

// BidService owns online bids against bidding-enabled requests.
type BidService interface {
	PlaceBid(ctx context.Context, memberID, requestID int32) (*domain.JobBid, error)
	WithdrawBid(ctx context.Context, bidID int32) error
	ProcessBids(ctx context.Context, requestID int32) ([]domain.JobBid, error)
	AcceptBid(ctx context.Context, bidID int32) (*domain.Dispatch, error)
	RejectBid(ctx context.Context, bidID int32, note string) (*domain.JobBid, error)
	CheckSuspension(ctx context.Context, memberID int32) (*domain.BiddingSuspension, error)
}

// AnalyticsService is read-only projections over the ledger and dispatch
// history.
type AnalyticsService interface {
	Snapshot(ctx context.Context, bookID int32) ([]domain.BookRegistration, error)
	Depth(ctx context.Context, bookID int32) (int32, error)
	// DispatchRate returns dispatches per day over the trailing window.
	DispatchRate(ctx context.Context, bookID int32, window time.Duration) (float64, error)
	// EstimatedWait is the median register-to-dispatch interval of recent
	// dispatches on the book.
	EstimatedWait(ctx context.Context, bookID int32) (time.Duration, error)
}

// Notifier hands unusual conditions off to an external admin consumer. It
// receives data, never control: failures are logged and swallowed by callers.
type Notifier interface {
	NotifyAdmin(ctx context.Context, subject, message string) error
}
