package domain

import "time"

type ActivityAction string

const (
	ActivityRegister      ActivityAction = "REGISTER"
	ActivityReSign        ActivityAction = "RE_SIGN"
	ActivityExemptGranted ActivityAction = "EXEMPT_GRANTED"
	ActivityExemptRevoked ActivityAction = "EXEMPT_REVOKED"
	ActivityCheckMark     ActivityAction = "CHECK_MARK"
	ActivityRollOff       ActivityAction = "ROLL_OFF"
	ActivityDispatch      ActivityAction = "DISPATCH"
	ActivityTermination   ActivityAction = "TERMINATION"
	ActivityRestore       ActivityAction = "RESTORE"
	ActivityBidPlaced     ActivityAction = "BID_PLACED"
	ActivityBidWithdrawn  ActivityAction = "BID_WITHDRAWN"
	ActivityBidRejected   ActivityAction = "BID_REJECTED"
	ActivityBidAccepted   ActivityAction = "BID_ACCEPTED"

	ActivityRequestCreated   ActivityAction = "REQUEST_CREATED"
	ActivityRequestCancelled ActivityAction = "REQUEST_CANCELLED"
	ActivityRequestExpired   ActivityAction = "REQUEST_EXPIRED"
)

// RegistrationActivity is the append-only audit trail. One record per
// state-changing action; never mutated after insert.
type RegistrationActivity struct {
	ID             int64          `json:"id"`
	RegistrationID *int32         `json:"registration_id,omitempty"`
	MemberID       int32          `json:"member_id"`
	BookID         *int32         `json:"book_id,omitempty"`
	Action         ActivityAction `json:"action"`
	PrevStatus     string         `json:"prev_status,omitempty"`
	NewStatus      string         `json:"new_status,omitempty"`
	PrevPosition   *APN           `json:"prev_position,omitempty"`
	NewPosition    *APN           `json:"new_position,omitempty"`
	Note           string         `json:"note,omitempty"`
	Actor          string         `json:"actor,omitempty"`
	CreatedOn      time.Time      `json:"created_on"`
}
