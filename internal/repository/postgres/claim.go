package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"hiringhall-backend/internal/domain"
	"hiringhall-backend/internal/logger"
	"hiringhall-backend/internal/metrics"
	"hiringhall-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// claimRetries bounds internal retries after losing a row race. Past the
// bound the conflict surfaces to the caller as a transient failure.
const claimRetries = 3

// checkInHour is the hour-of-day on the request's start date by which a
// dispatched worker must check in.
const checkInHour = 8

type claimRepository struct {
	db *sql.DB
}

func NewClaimRepository(db *sql.DB) repository.ClaimRepository {
	return &claimRepository{db: db}
}

// retryable reports whether the transaction lost a concurrency race and is
// worth re-running with fresh reads.
func retryable(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	switch pqErr.Code {
	case "40001", "40P01": // serialization_failure, deadlock_detected
		return true
	}
	return false
}

func (r *claimRepository) withRetry(ctx context.Context, op string, fn func(tx *sql.Tx) (*domain.Dispatch, error)) (*domain.Dispatch, error) {
	var lastErr error
	for attempt := 0; attempt <= claimRetries; attempt++ {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, err
		}
		d, err := fn(tx)
		if err != nil {
			tx.Rollback()
			if retryable(err) {
				metrics.ClaimRetried()
				logger.Warn("claim transaction lost a race, retrying", "op", op, "attempt", attempt+1)
				lastErr = err
				continue
			}
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			if retryable(err) {
				metrics.ClaimRetried()
				logger.Warn("claim commit lost a race, retrying", "op", op, "attempt", attempt+1)
				lastErr = err
				continue
			}
			return nil, err
		}
		return d, nil
	}
	return nil, domain.ConcurrencyConflictf("%s: gave up after %d retries: %v", op, claimRetries, lastErr)
}

// lockRequest reads the request row under FOR UPDATE so fill accounting is
// serialized per request.
func lockRequest(ctx context.Context, tx *sql.Tx, requestID int32) (*domain.LaborRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM labor_requests WHERE id = $1 FOR UPDATE`
	req, err := scanRequest(tx.QueryRowContext(ctx, query, requestID))
	if err == sql.ErrNoRows {
		return nil, domain.NotFoundf("request", requestID)
	}
	if err != nil {
		return nil, err
	}
	if req.Status != domain.RequestStatusOpen {
		return nil, domain.StateConflictf("request", requestID, "request is %s, not OPEN", req.Status)
	}
	if req.Remaining() == 0 {
		return nil, domain.StateConflictf("request", requestID, "request already filled")
	}
	return req, nil
}

func checkInDeadline(req *domain.LaborRequest) time.Time {
	d := req.StartDate
	return time.Date(d.Year(), d.Month(), d.Day(), checkInHour, 0, 0, 0, d.Location())
}

// insertDispatch writes the dispatch row and the request fill accounting
// inside the claim transaction.
func insertDispatch(ctx context.Context, tx *sql.Tx, req *domain.LaborRequest, registrationID *int32, memberID int32, method domain.DispatchMethod) (*domain.Dispatch, error) {
	deadline := checkInDeadline(req)
	d := &domain.Dispatch{
		Reference:       uuid.NewString(),
		RegistrationID:  registrationID,
		RequestID:       req.ID,
		MemberID:        memberID,
		Employer:        req.Employer,
		Method:          method,
		Status:          domain.DispatchStatusWorking,
		CheckInDeadline: &deadline,
		IsShortCall:     req.IsShortCall,
	}
	query := `INSERT INTO dispatches (reference, registration_id, request_id, member_id, employer, dispatch_method, dispatch_status, checked_in, check_in_deadline, is_short_call, restore_to_book, days_worked, hours_worked, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, $8, $9, FALSE, 0, 0, $10, $11) RETURNING id, created_on, updated_on`
	now := time.Now()
	if err := tx.QueryRowContext(ctx, query, d.Reference, d.RegistrationID, d.RequestID, d.MemberID, d.Employer, d.Method, d.Status, d.CheckInDeadline, d.IsShortCall, now, now).Scan(&d.ID, &d.CreatedOn, &d.UpdatedOn); err != nil {
		return nil, err
	}

	req.WorkersDispatched++
	if req.WorkersDispatched >= req.WorkersRequested {
		req.Status = domain.RequestStatusFilled
	}
	if _, err := tx.ExecContext(ctx, `UPDATE labor_requests SET workers_dispatched=$1, status=$2, updated_on=$3 WHERE id=$4`, req.WorkersDispatched, req.Status, now, req.ID); err != nil {
		return nil, err
	}
	return d, nil
}

func insertActivity(ctx context.Context, tx *sql.Tx, a *domain.RegistrationActivity) error {
	query := `INSERT INTO registration_activity (registration_id, member_id, book_id, action, prev_status, new_status, prev_position, new_position, note, actor, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := tx.ExecContext(ctx, query, a.RegistrationID, a.MemberID, a.BookID, a.Action, a.PrevStatus, a.NewStatus, a.PrevPosition, a.NewPosition, a.Note, a.Actor, time.Now())
	return err
}

func (r *claimRepository) ClaimNext(ctx context.Context, requestID int32, method domain.DispatchMethod) (*domain.Dispatch, error) {
	return r.withRetry(ctx, "claim_next", func(tx *sql.Tx) (*domain.Dispatch, error) {
		req, err := lockRequest(ctx, tx, requestID)
		if err != nil {
			return nil, err
		}

		// Lowest APN wins. SKIP LOCKED keeps two concurrent claims against
		// the same book from selecting the same row; blackout and, for bid
		// arrivals, suspension filters run inside the same statement.
		suspensionCheck := method == domain.DispatchMethodOnlineBid
		query := `SELECT ` + prefixColumns("r", registrationColumns) + `
		          FROM book_registrations r
		          WHERE r.book_id = $1
		            AND r.status = 'REGISTERED'
		            AND r.is_exempt = FALSE
		            AND NOT EXISTS (
		                  SELECT 1 FROM blackouts bl
		                  WHERE bl.member_id = r.member_id AND bl.employer = $2
		                    AND bl.lifted = FALSE AND bl.starts_at <= $3 AND bl.ends_at > $3)
		            AND ($4::boolean = FALSE OR NOT EXISTS (
		                  SELECT 1 FROM bidding_suspensions s
		                  WHERE s.member_id = r.member_id
		                    AND s.lifted = FALSE AND s.starts_at <= $3 AND s.ends_at > $3))
		          ORDER BY r.registration_number ASC
		          FOR UPDATE OF r SKIP LOCKED
		          LIMIT 1`
		reg, err := scanRegistration(tx.QueryRowContext(ctx, query, req.BookID, req.Employer, time.Now(), suspensionCheck))
		if err == sql.ErrNoRows {
			return nil, domain.NoEligibleMember(req.BookID)
		}
		if err != nil {
			return nil, err
		}
		return r.dispatchRegistration(ctx, tx, req, reg, method)
	})
}

func (r *claimRepository) ClaimRegistration(ctx context.Context, requestID, registrationID int32) (*domain.Dispatch, error) {
	return r.withRetry(ctx, "claim_registration", func(tx *sql.Tx) (*domain.Dispatch, error) {
		req, err := lockRequest(ctx, tx, requestID)
		if err != nil {
			return nil, err
		}
		query := `SELECT ` + registrationColumns + ` FROM book_registrations WHERE id = $1 FOR UPDATE`
		reg, err := scanRegistration(tx.QueryRowContext(ctx, query, registrationID))
		if err == sql.ErrNoRows {
			return nil, domain.NotFoundf("registration", registrationID)
		}
		if err != nil {
			return nil, err
		}
		if !reg.Dispatchable() {
			return nil, domain.NotEligible(reg.ID, reg.Status)
		}
		if reg.BookID != req.BookID {
			return nil, domain.StateConflictf("registration", reg.ID, "registration is on book %d, request targets book %d", reg.BookID, req.BookID)
		}
		active, err := hasActiveBlackoutTx(ctx, tx, reg.MemberID, req.Employer)
		if err != nil {
			return nil, err
		}
		if active {
			return nil, domain.BlackoutActive(reg.MemberID, req.Employer)
		}
		// Bid-originated claims re-check suspension at claim time: a member
		// suspended after placing the bid must not be dispatched through it.
		suspended, err := hasActiveSuspensionTx(ctx, tx, reg.MemberID)
		if err != nil {
			return nil, err
		}
		if suspended {
			return nil, domain.BiddingSuspended(reg.MemberID)
		}
		return r.dispatchRegistration(ctx, tx, req, reg, domain.DispatchMethodOnlineBid)
	})
}

func (r *claimRepository) dispatchRegistration(ctx context.Context, tx *sql.Tx, req *domain.LaborRequest, reg *domain.BookRegistration, method domain.DispatchMethod) (*domain.Dispatch, error) {
	now := time.Now()
	// A successful dispatch clears the consecutive-miss streak.
	if _, err := tx.ExecContext(ctx, `UPDATE book_registrations SET status='DISPATCHED', consecutive_missed_check_marks=0, updated_on=$1 WHERE id=$2`, now, reg.ID); err != nil {
		return nil, err
	}
	d, err := insertDispatch(ctx, tx, req, &reg.ID, reg.MemberID, method)
	if err != nil {
		return nil, err
	}
	pos := reg.RegistrationNumber
	return d, insertActivity(ctx, tx, &domain.RegistrationActivity{
		RegistrationID: &reg.ID,
		MemberID:       reg.MemberID,
		BookID:         &reg.BookID,
		Action:         domain.ActivityDispatch,
		PrevStatus:     string(domain.RegistrationStatusRegistered),
		NewStatus:      string(domain.RegistrationStatusDispatched),
		PrevPosition:   &pos,
		Note:           "request " + req.Reference,
	})
}

func hasActiveBlackoutTx(ctx context.Context, tx *sql.Tx, memberID int32, employer string) (bool, error) {
	var n int32
	query := `SELECT count(*) FROM blackouts WHERE member_id = $1 AND employer = $2 AND lifted = FALSE AND starts_at <= $3 AND ends_at > $3`
	if err := tx.QueryRowContext(ctx, query, memberID, employer, time.Now()).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func hasActiveSuspensionTx(ctx context.Context, tx *sql.Tx, memberID int32) (bool, error) {
	var n int32
	query := `SELECT count(*) FROM bidding_suspensions WHERE member_id = $1 AND lifted = FALSE AND starts_at <= $2 AND ends_at > $2`
	if err := tx.QueryRowContext(ctx, query, memberID, time.Now()).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *claimRepository) ClaimByName(ctx context.Context, requestID, memberID int32) (*domain.Dispatch, error) {
	return r.withRetry(ctx, "claim_by_name", func(tx *sql.Tx) (*domain.Dispatch, error) {
		req, err := lockRequest(ctx, tx, requestID)
		if err != nil {
			return nil, err
		}
		active, err := hasActiveBlackoutTx(ctx, tx, memberID, req.Employer)
		if err != nil {
			return nil, err
		}
		if active {
			return nil, domain.BlackoutActive(memberID, req.Employer)
		}

		// If the named member holds a registration on the target book, claim
		// it so their position is consumed; otherwise the dispatch stands
		// alone with no registration.
		var regID *int32
		query := `SELECT ` + registrationColumns + ` FROM book_registrations WHERE member_id = $1 AND book_id = $2 AND status = 'REGISTERED' FOR UPDATE`
		reg, err := scanRegistration(tx.QueryRowContext(ctx, query, memberID, req.BookID))
		switch {
		case err == sql.ErrNoRows:
			reg = nil
		case err != nil:
			return nil, err
		default:
			now := time.Now()
			if _, err := tx.ExecContext(ctx, `UPDATE book_registrations SET status='DISPATCHED', consecutive_missed_check_marks=0, updated_on=$1 WHERE id=$2`, now, reg.ID); err != nil {
				return nil, err
			}
			regID = &reg.ID
		}

		d, err := insertDispatch(ctx, tx, req, regID, memberID, domain.DispatchMethodByName)
		if err != nil {
			return nil, err
		}
		act := &domain.RegistrationActivity{
			RegistrationID: regID,
			MemberID:       memberID,
			Action:         domain.ActivityDispatch,
			NewStatus:      string(domain.RegistrationStatusDispatched),
			Note:           "by-name request " + req.Reference,
		}
		if reg != nil {
			act.BookID = &reg.BookID
			act.PrevStatus = string(domain.RegistrationStatusRegistered)
			pos := reg.RegistrationNumber
			act.PrevPosition = &pos
		}
		return d, insertActivity(ctx, tx, act)
	})
}

func (r *claimRepository) Terminate(ctx context.Context, dispatchID int32, outcome domain.TerminationOutcome, daysWorked int32, hoursWorked float64) (*domain.Dispatch, error) {
	return r.withRetry(ctx, "terminate", func(tx *sql.Tx) (*domain.Dispatch, error) {
		query := `SELECT ` + dispatchColumns + ` FROM dispatches WHERE id = $1 FOR UPDATE`
		d, err := scanDispatch(tx.QueryRowContext(ctx, query, dispatchID))
		if err == sql.ErrNoRows {
			return nil, domain.NotFoundf("dispatch", dispatchID)
		}
		if err != nil {
			return nil, err
		}
		if d.Status != domain.DispatchStatusWorking {
			return nil, domain.StateConflictf("dispatch", dispatchID, "dispatch is %s, not WORKING", d.Status)
		}

		now := time.Now()
		d.Status = domain.DispatchStatusCompleted
		d.TermDate = &now
		d.TermReason = outcome.Reason
		d.RestoreToBook = outcome.RestoreOriginalAPN
		d.DaysWorked = daysWorked
		d.HoursWorked = hoursWorked
		if _, err := tx.ExecContext(ctx, `UPDATE dispatches SET dispatch_status=$1, restore_to_book=$2, term_date=$3, term_reason=$4, days_worked=$5, hours_worked=$6, updated_on=$7 WHERE id=$8`,
			d.Status, d.RestoreToBook, d.TermDate, d.TermReason, d.DaysWorked, d.HoursWorked, now, d.ID); err != nil {
			return nil, err
		}

		if outcome.RestoreRegistration && d.RegistrationID != nil {
			if err := r.restoreRegistration(ctx, tx, d, outcome.RestoreOriginalAPN, now); err != nil {
				return nil, err
			}
		}
		if outcome.RollOffAllBooks {
			if err := r.rollOffAllBooks(ctx, tx, d, outcome.RollOffReason, now); err != nil {
				return nil, err
			}
		}
		if outcome.BlackoutDays > 0 {
			ends := now.AddDate(0, 0, int(outcome.BlackoutDays))
			if _, err := tx.ExecContext(ctx, `INSERT INTO blackouts (member_id, employer, reason, source_dispatch_id, starts_at, ends_at, lifted, created_on) VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7)`,
				d.MemberID, d.Employer, outcome.Reason, d.ID, now, ends, now); err != nil {
				return nil, err
			}
		}

		return d, insertActivity(ctx, tx, &domain.RegistrationActivity{
			RegistrationID: d.RegistrationID,
			MemberID:       d.MemberID,
			Action:         domain.ActivityTermination,
			PrevStatus:     string(domain.DispatchStatusWorking),
			NewStatus:      string(domain.DispatchStatusCompleted),
			Note:           string(outcome.Reason),
		})
	})
}

// restoreRegistration returns the dispatch's registration to REGISTERED.
// Short calls keep the original APN; layoffs re-enter at the bottom of the
// book with a fresh number. The re-sign clock restarts either way.
func (r *claimRepository) restoreRegistration(ctx context.Context, tx *sql.Tx, d *domain.Dispatch, keepAPN bool, now time.Time) error {
	query := `SELECT ` + registrationColumns + ` FROM book_registrations WHERE id = $1 FOR UPDATE`
	reg, err := scanRegistration(tx.QueryRowContext(ctx, query, *d.RegistrationID))
	if err != nil {
		return err
	}
	if reg.Status != domain.RegistrationStatusDispatched {
		// Already moved on (e.g. rolled off by enforcement); leave it be.
		return nil
	}

	var bookReSignDays int32
	if err := tx.QueryRowContext(ctx, `SELECT re_sign_days FROM referral_books WHERE id = $1 FOR UPDATE`, reg.BookID).Scan(&bookReSignDays); err != nil {
		return err
	}

	prevPos := reg.RegistrationNumber
	newPos := reg.RegistrationNumber
	action := domain.ActivityRestore
	if keepAPN {
		if _, err := tx.ExecContext(ctx, `UPDATE book_registrations SET status='REGISTERED', short_call_restorations=short_call_restorations+1, last_re_sign_date=$1, re_sign_deadline=$2, updated_on=$1 WHERE id=$3`,
			now, now.AddDate(0, 0, int(bookReSignDays)), reg.ID); err != nil {
			return err
		}
	} else {
		var currentMax domain.APN
		if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(registration_number), 0) FROM book_registrations WHERE book_id = $1`, reg.BookID).Scan(&currentMax); err != nil {
			return err
		}
		newPos = domain.NextAPN(currentMax, domain.DateSerial(now))
		if _, err := tx.ExecContext(ctx, `UPDATE book_registrations SET status='REGISTERED', registration_number=$1, last_re_sign_date=$2, re_sign_deadline=$3, updated_on=$2 WHERE id=$4`,
			newPos, now, now.AddDate(0, 0, int(bookReSignDays)), reg.ID); err != nil {
			return err
		}
	}
	return insertActivity(ctx, tx, &domain.RegistrationActivity{
		RegistrationID: &reg.ID,
		MemberID:       reg.MemberID,
		BookID:         &reg.BookID,
		Action:         action,
		PrevStatus:     string(domain.RegistrationStatusDispatched),
		NewStatus:      string(domain.RegistrationStatusRegistered),
		PrevPosition:   &prevPos,
		NewPosition:    &newPos,
	})
}

// rollOffAllBooks removes the member from every live registration: the
// REGISTERED rows on other books and the DISPATCHED row behind this dispatch.
func (r *claimRepository) rollOffAllBooks(ctx context.Context, tx *sql.Tx, d *domain.Dispatch, reason domain.RollOffReason, now time.Time) error {
	rows, err := tx.QueryContext(ctx, `UPDATE book_registrations
	          SET status='ROLLED_OFF', roll_off_reason=$1, roll_off_date=$2, updated_on=$2
	          WHERE member_id = $3 AND status IN ('REGISTERED', 'DISPATCHED')
	          RETURNING id, book_id, registration_number`, reason, now, d.MemberID)
	if err != nil {
		return err
	}
	defer rows.Close()

	type rolled struct {
		id     int32
		bookID int32
		pos    domain.APN
	}
	var affected []rolled
	for rows.Next() {
		var ro rolled
		if err := rows.Scan(&ro.id, &ro.bookID, &ro.pos); err != nil {
			return err
		}
		affected = append(affected, ro)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, ro := range affected {
		if err := insertActivity(ctx, tx, &domain.RegistrationActivity{
			RegistrationID: &ro.id,
			MemberID:       d.MemberID,
			BookID:         &ro.bookID,
			Action:         domain.ActivityRollOff,
			NewStatus:      string(domain.RegistrationStatusRolledOff),
			PrevPosition:   &ro.pos,
			Note:           string(reason),
		}); err != nil {
			return err
		}
	}
	return nil
}
