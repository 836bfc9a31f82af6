package domain

import "time"

type DispatchMethod string

const (
	DispatchMethodMorningReferral DispatchMethod = "morning_referral"
	DispatchMethodOnlineBid       DispatchMethod = "online_bid"
	DispatchMethodByName          DispatchMethod = "by_name"
)

type DispatchStatus string

const (
	DispatchStatusWorking   DispatchStatus = "WORKING"
	DispatchStatusCompleted DispatchStatus = "COMPLETED"
)

type TermReason string

const (
	TermLaidOff      TermReason = "LAID_OFF"
	TermQuit         TermReason = "QUIT"
	TermFired        TermReason = "FIRED"
	TermRIF          TermReason = "RIF"
	TermShortCallEnd TermReason = "SHORT_CALL_END"
)

// Dispatch binds one member to one labor request. RegistrationID is nil for
// by-name dispatches that bypass the queue.
type Dispatch struct {
	ID              int32          `json:"id"`
	Reference       string         `json:"reference"`
	RegistrationID  *int32         `json:"registration_id,omitempty"`
	RequestID       int32          `json:"request_id"`
	MemberID        int32          `json:"member_id"`
	Employer        string         `json:"employer"`
	Method          DispatchMethod `json:"dispatch_method"`
	Status          DispatchStatus `json:"dispatch_status"`
	CheckedIn       bool           `json:"checked_in"`
	CheckInDeadline *time.Time     `json:"check_in_deadline,omitempty"`
	IsShortCall     bool           `json:"is_short_call"`
	RestoreToBook   bool           `json:"restore_to_book"`
	TermDate        *time.Time     `json:"term_date,omitempty"`
	TermReason      TermReason     `json:"term_reason,omitempty"`
	DaysWorked      int32          `json:"days_worked"`
	HoursWorked     float64        `json:"hours_worked"`
	CreatedOn       time.Time      `json:"created_on"`
	UpdatedOn       time.Time      `json:"updated_on"`
}
