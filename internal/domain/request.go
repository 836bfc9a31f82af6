package domain

import "time"

type RequestStatus string

const (
	RequestStatusOpen      RequestStatus = "OPEN"
	RequestStatusFilled    RequestStatus = "FILLED"
	RequestStatusCancelled RequestStatus = "CANCELLED"
	RequestStatusExpired   RequestStatus = "EXPIRED"
)

// Reasons a request does not generate a check mark when declined.
const (
	NoCheckMarkForeperson = "FOREPERSON_BY_NAME"
	NoCheckMarkShortCall  = "SHORT_CALL"
)

// ShortCallMaxDays is the contractual ceiling on a short call.
const ShortCallMaxDays = 10

// LaborRequest is an employer's ask for workers against one book.
type LaborRequest struct {
	ID                 int32         `json:"id"`
	Reference          string        `json:"reference"` // employer-facing correlation id
	Employer           string        `json:"employer"`
	BookID             int32         `json:"book_id"`
	Classification     string        `json:"classification"`
	Region             string        `json:"region"`
	WorkersRequested   int32         `json:"workers_requested"`
	WorkersDispatched  int32         `json:"workers_dispatched"`
	RequestDate        time.Time     `json:"request_date"` // attribution date after cutoff routing
	StartDate          time.Time     `json:"start_date"`
	StartTime          string        `json:"start_time"`
	IsShortCall        bool          `json:"is_short_call"`
	ShortCallDays      int32         `json:"short_call_days"`
	IsForepersonByName bool          `json:"is_foreperson_by_name"`
	ForepersonMemberID *int32        `json:"foreperson_member_id,omitempty"`
	GeneratesCheckMark bool          `json:"generates_check_mark"`
	NoCheckMarkReason  string        `json:"no_check_mark_reason,omitempty"`
	AllowsOnlineBidding bool         `json:"allows_online_bidding"`
	BiddingOpensAt     *time.Time    `json:"bidding_opens_at,omitempty"`
	BiddingClosesAt    *time.Time    `json:"bidding_closes_at,omitempty"`
	Status             RequestStatus `json:"status"`
	CreatedOn          time.Time     `json:"created_on"`
	UpdatedOn          time.Time     `json:"updated_on"`
}

// Remaining reports how many openings are still unfilled.
func (r *LaborRequest) Remaining() int32 {
	if r.WorkersDispatched >= r.WorkersRequested {
		return 0
	}
	return r.WorkersRequested - r.WorkersDispatched
}

// Terminal reports whether the request can no longer accept dispatches.
func (r *LaborRequest) Terminal() bool {
	return r.Status != RequestStatusOpen
}

// BiddingWindowOpen reports whether now falls inside the online bidding
// window. False when bidding is disabled or the request is not OPEN.
func (r *LaborRequest) BiddingWindowOpen(now time.Time) bool {
	if !r.AllowsOnlineBidding || r.Status != RequestStatusOpen {
		return false
	}
	if r.BiddingOpensAt == nil || r.BiddingClosesAt == nil {
		return false
	}
	return !now.Before(*r.BiddingOpensAt) && !now.After(*r.BiddingClosesAt)
}
