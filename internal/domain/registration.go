package domain

import "time"

type RegistrationStatus string

const (
	RegistrationStatusRegistered RegistrationStatus = "REGISTERED"
	RegistrationStatusDispatched RegistrationStatus = "DISPATCHED"
	RegistrationStatusResigned   RegistrationStatus = "RESIGNED"
	RegistrationStatusRolledOff  RegistrationStatus = "ROLLED_OFF"
	RegistrationStatusExpired    RegistrationStatus = "EXPIRED"
)

type RollOffReason string

const (
	RollOffCheckMarkLimit RollOffReason = "CHECK_MARK_LIMIT"
	RollOffReSignExpired  RollOffReason = "RE_SIGN_EXPIRED"
	RollOffTimeLimit      RollOffReason = "TIME_LIMIT"
	RollOffQuit           RollOffReason = "QUIT"
	RollOffDischarge      RollOffReason = "DISCHARGE"
)

// BookRegistration is one worker's position on one book. Rows are never
// deleted; terminal statuses are retained for audit.
type BookRegistration struct {
	ID                          int32              `json:"id"`
	MemberID                    int32              `json:"member_id"`
	BookID                      int32              `json:"book_id"`
	RegistrationNumber          APN                `json:"registration_number"`
	Status                      RegistrationStatus `json:"status"`
	CheckMarks                  int32              `json:"check_marks"`
	ConsecutiveMissedCheckMarks int32              `json:"consecutive_missed_check_marks"`
	IsExempt                    bool               `json:"is_exempt"`
	ExemptReason                string             `json:"exempt_reason"`
	ExemptStartDate             *time.Time         `json:"exempt_start_date,omitempty"`
	ExemptEndDate               *time.Time         `json:"exempt_end_date,omitempty"`
	LastReSignDate              time.Time          `json:"last_re_sign_date"`
	ReSignDeadline              time.Time          `json:"re_sign_deadline"`
	ShortCallRestorations       int32              `json:"short_call_restorations"`
	RollOffDate                 *time.Time         `json:"roll_off_date,omitempty"`
	RollOffReason               RollOffReason      `json:"roll_off_reason,omitempty"`
	CreatedOn                   time.Time          `json:"created_on"`
	UpdatedOn                   time.Time          `json:"updated_on"`
}

// ApplyReSign resets the re-sign clock. Caller must have verified the row is
// still REGISTERED.
func (r *BookRegistration) ApplyReSign(now time.Time, reSignDays int32) {
	r.LastReSignDate = now
	r.ReSignDeadline = now.AddDate(0, 0, int(reSignDays))
}

// ApplyCheckMark records one check mark against the registration and reports
// whether the mark rolled the worker off. A worker may hold maxCheckMarks
// marks and stay registered; the mark that would exceed the limit is the one
// that rolls them off.
func (r *BookRegistration) ApplyCheckMark(maxCheckMarks int32, now time.Time) (rolledOff bool) {
	if r.CheckMarks+1 > maxCheckMarks {
		r.ApplyRollOff(RollOffCheckMarkLimit, now)
		return true
	}
	r.CheckMarks++
	r.ConsecutiveMissedCheckMarks++
	return false
}

// ApplyRollOff moves the registration to ROLLED_OFF. Rolling off a row that
// is already terminal is a no-op.
func (r *BookRegistration) ApplyRollOff(reason RollOffReason, now time.Time) {
	if r.Terminal() {
		return
	}
	r.Status = RegistrationStatusRolledOff
	r.RollOffReason = reason
	t := now
	r.RollOffDate = &t
}

// ApplyExempt grants exempt status without disturbing queue position.
func (r *BookRegistration) ApplyExempt(reason string, now time.Time, endDate *time.Time) {
	r.IsExempt = true
	r.ExemptReason = reason
	t := now
	r.ExemptStartDate = &t
	r.ExemptEndDate = endDate
}

// ClearExempt revokes exempt status.
func (r *BookRegistration) ClearExempt() {
	r.IsExempt = false
	r.ExemptReason = ""
	r.ExemptStartDate = nil
	r.ExemptEndDate = nil
}

// Terminal reports whether the registration has reached a terminal status.
func (r *BookRegistration) Terminal() bool {
	switch r.Status {
	case RegistrationStatusResigned, RegistrationStatusRolledOff, RegistrationStatusExpired:
		return true
	}
	return false
}

// Dispatchable reports whether the registration can be claimed for dispatch.
func (r *BookRegistration) Dispatchable() bool {
	return r.Status == RegistrationStatusRegistered && !r.IsExempt
}
