package domain

import "time"

// Blackout blocks dispatch of one member to one employer for a window after
// a QUIT or FIRED termination. Both the FIFO claim and by-name paths check it.
type Blackout struct {
	ID               int32      `json:"id"`
	MemberID         int32      `json:"member_id"`
	Employer         string     `json:"employer"`
	Reason           TermReason `json:"reason"`
	SourceDispatchID *int32     `json:"source_dispatch_id,omitempty"`
	StartsAt         time.Time  `json:"starts_at"`
	EndsAt           time.Time  `json:"ends_at"`
	Lifted           bool       `json:"lifted"`
	CreatedOn        time.Time  `json:"created_on"`
}

// ActiveAt reports whether the blackout restricts dispatch at t.
func (b *Blackout) ActiveAt(t time.Time) bool {
	return !b.Lifted && !t.Before(b.StartsAt) && t.Before(b.EndsAt)
}

// BiddingSuspension bars a member from online bidding, imposed after a second
// bid rejection inside the trailing review window.
type BiddingSuspension struct {
	ID              int32     `json:"id"`
	MemberID        int32     `json:"member_id"`
	TriggeringBidID *int32    `json:"triggering_bid_id,omitempty"`
	StartsAt        time.Time `json:"starts_at"`
	EndsAt          time.Time `json:"ends_at"`
	Lifted          bool      `json:"lifted"`
	CreatedOn       time.Time `json:"created_on"`
}

// ActiveAt reports whether the suspension is in force at t.
func (s *BiddingSuspension) ActiveAt(t time.Time) bool {
	return !s.Lifted && !t.Before(s.StartsAt) && t.Before(s.EndsAt)
}
