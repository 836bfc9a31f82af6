package domain

import (
	"strconv"
	"time"
)

// ReferralBook is a queue partition for one classification/region/tier.
// Book number 1 is the highest-priority tier: whenever more than one book of
// the same classification/region can serve a request, the lowest book number
// is drawn from first.
type ReferralBook struct {
	ID                     int32      `json:"id"`
	Classification         string     `json:"classification"`
	Region                 string     `json:"region"`
	BookNumber             int32      `json:"book_number"`
	ReSignDays             int32      `json:"re_sign_days"`
	MaxCheckMarks          int32      `json:"max_check_marks"`
	GracePeriodDays        int32      `json:"grace_period_days"`
	MaxDaysOnBook          *int32     `json:"max_days_on_book,omitempty"` // nil = unlimited
	ReferralStartTime      string     `json:"referral_start_time"`        // "HH:MM", classification morning slot
	InternetBiddingEnabled bool       `json:"internet_bidding_enabled"`
	IsActive               bool       `json:"is_active"`
	CreatedOn              time.Time  `json:"created_on"`
	UpdatedOn              time.Time  `json:"updated_on"`
}

const (
	DefaultReSignDays    = 30
	DefaultMaxCheckMarks = 2
)

// Code renders the conventional book label, e.g. "WIRE_SEA_1".
func (b *ReferralBook) Code() string {
	return b.Classification + "_" + b.Region + "_" + strconv.Itoa(int(b.BookNumber))
}
