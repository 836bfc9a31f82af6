package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so callers (and the HTTP layer) can react
// without matching message strings.
type ErrorKind string

const (
	KindNotFound            ErrorKind = "NOT_FOUND"
	KindStateConflict       ErrorKind = "STATE_CONFLICT"
	KindEligibility         ErrorKind = "ELIGIBILITY_VIOLATION"
	KindConcurrencyConflict ErrorKind = "CONCURRENCY_CONFLICT"
	KindCapacityExhausted   ErrorKind = "CAPACITY_EXHAUSTED"
)

// Error is a typed engine failure with enough context to render a message.
type Error struct {
	Kind   ErrorKind
	Entity string
	ID     int32
	Msg    string
}

func (e *Error) Error() string {
	if e.ID != 0 {
		return fmt.Sprintf("%s: %s %d: %s", e.Kind, e.Entity, e.ID, e.Msg)
	}
	if e.Entity != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Entity, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Is makes errors.Is match on kind, so sentinel-style checks like
// errors.Is(err, domain.ErrNotFound) work on any constructed error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Entity == "" || t.Entity == e.Entity)
}

// Kind sentinels for errors.Is checks.
var (
	ErrNotFound            = &Error{Kind: KindNotFound}
	ErrStateConflict       = &Error{Kind: KindStateConflict}
	ErrEligibility         = &Error{Kind: KindEligibility}
	ErrConcurrencyConflict = &Error{Kind: KindConcurrencyConflict}
	ErrCapacityExhausted   = &Error{Kind: KindCapacityExhausted}
)

func NotFoundf(entity string, id int32) error {
	return &Error{Kind: KindNotFound, Entity: entity, ID: id, Msg: "not found"}
}

func StateConflictf(entity string, id int32, format string, args ...any) error {
	return &Error{Kind: KindStateConflict, Entity: entity, ID: id, Msg: fmt.Sprintf(format, args...)}
}

func Eligibilityf(entity string, id int32, format string, args ...any) error {
	return &Error{Kind: KindEligibility, Entity: entity, ID: id, Msg: fmt.Sprintf(format, args...)}
}

func ConcurrencyConflictf(format string, args ...any) error {
	return &Error{Kind: KindConcurrencyConflict, Msg: fmt.Sprintf(format, args...)}
}

func CapacityExhaustedf(entity string, id int32, format string, args ...any) error {
	return &Error{Kind: KindCapacityExhausted, Entity: entity, ID: id, Msg: fmt.Sprintf(format, args...)}
}

// Named failures from the referral procedure, expressed as kinds.

func AlreadyRegistered(memberID, bookID int32) error {
	return &Error{Kind: KindStateConflict, Entity: "registration", Msg: fmt.Sprintf("member %d already holds an active registration on book %d", memberID, bookID)}
}

func NotEligible(registrationID int32, status RegistrationStatus) error {
	return &Error{Kind: KindStateConflict, Entity: "registration", ID: registrationID, Msg: fmt.Sprintf("operation requires REGISTERED status, current %s", status)}
}

func NoEligibleMember(bookID int32) error {
	return &Error{Kind: KindCapacityExhausted, Entity: "book", ID: bookID, Msg: "no eligible registered member on book"}
}

func BlackoutActive(memberID int32, employer string) error {
	return &Error{Kind: KindEligibility, Entity: "member", ID: memberID, Msg: fmt.Sprintf("active blackout against employer %q", employer)}
}

func AntiCollusion(memberID int32, employer string) error {
	return &Error{Kind: KindEligibility, Entity: "member", ID: memberID, Msg: fmt.Sprintf("repeated by-name dispatch by employer %q requires verification", employer)}
}

func BiddingSuspended(memberID int32) error {
	return &Error{Kind: KindEligibility, Entity: "member", ID: memberID, Msg: "online bidding suspended"}
}

// KindOf extracts the kind, or "" for untyped errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
