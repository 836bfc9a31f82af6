package domain

// TerminationOutcome is the full effect of ending a dispatch, computed up
// front so persistence can apply it in one transaction and tests can check
// the rule table without a database.
type TerminationOutcome struct {
	Reason TermReason

	// RollOffAllBooks removes the member from every REGISTERED registration
	// across all books, with RollOffReason.
	RollOffAllBooks bool
	RollOffReason   RollOffReason

	// BlackoutDays opens a (member, employer) blackout of this many days.
	// Zero means no blackout.
	BlackoutDays int32

	// RestoreRegistration returns the dispatch's registration to REGISTERED.
	RestoreRegistration bool
	// RestoreOriginalAPN keeps the pre-dispatch registration number instead
	// of issuing a new one (short calls only).
	RestoreOriginalAPN bool
}

// TerminationOutcomeFor maps a termination reason onto its outcome. Every
// TermReason variant is handled here; an unknown reason or a SHORT_CALL_END
// on a non-short-call dispatch is a state conflict.
func TerminationOutcomeFor(reason TermReason, isShortCall bool, blackoutDays int32) (TerminationOutcome, error) {
	switch reason {
	case TermQuit:
		return TerminationOutcome{
			Reason:          reason,
			RollOffAllBooks: true,
			RollOffReason:   RollOffQuit,
			BlackoutDays:    blackoutDays,
		}, nil
	case TermFired:
		return TerminationOutcome{
			Reason:          reason,
			RollOffAllBooks: true,
			RollOffReason:   RollOffDischarge,
			BlackoutDays:    blackoutDays,
		}, nil
	case TermRIF, TermLaidOff:
		return TerminationOutcome{
			Reason:              reason,
			RestoreRegistration: true,
		}, nil
	case TermShortCallEnd:
		if !isShortCall {
			return TerminationOutcome{}, StateConflictf("dispatch", 0, "SHORT_CALL_END termination on a non-short-call dispatch")
		}
		return TerminationOutcome{
			Reason:              reason,
			RestoreRegistration: true,
			RestoreOriginalAPN:  true,
		}, nil
	default:
		return TerminationOutcome{}, StateConflictf("dispatch", 0, "unknown termination reason %q", reason)
	}
}
