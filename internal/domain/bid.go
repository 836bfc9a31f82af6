package domain

import "time"

type BidStatus string

const (
	BidStatusPending   BidStatus = "PENDING"
	BidStatusAccepted  BidStatus = "ACCEPTED"
	BidStatusRejected  BidStatus = "REJECTED"
	BidStatusWithdrawn BidStatus = "WITHDRAWN"
)

// JobBid is an online bid against an OPEN, bidding-enabled labor request.
// At most one non-withdrawn bid may exist per (member, request).
type JobBid struct {
	ID                 int32      `json:"id"`
	RequestID          int32      `json:"request_id"`
	MemberID           int32      `json:"member_id"`
	RegistrationID     int32      `json:"registration_id"`
	QueuePositionAtBid APN        `json:"queue_position_at_bid"`
	Status             BidStatus  `json:"bid_status"`
	RejectedByMember   bool       `json:"rejected_by_member"`
	RejectionDate      *time.Time `json:"rejection_date,omitempty"`
	RejectionNote      string     `json:"rejection_note,omitempty"`
	WasDispatched      bool       `json:"was_dispatched"`
	CreatedOn          time.Time  `json:"created_on"`
	UpdatedOn          time.Time  `json:"updated_on"`
}

// Terminal reports whether the bid has left PENDING.
func (b *JobBid) Terminal() bool {
	return b.Status != BidStatusPending
}
