package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"hiringhall-backend/internal/domain"
	"hiringhall-backend/internal/repository"
)

type registrationRepository struct {
	db *sql.DB
}

func NewRegistrationRepository(db *sql.DB) repository.RegistrationRepository {
	return &registrationRepository{db: db}
}

const registrationColumns = `id, member_id, book_id, registration_number, status, check_marks, consecutive_missed_check_marks, is_exempt, exempt_reason, exempt_start_date, exempt_end_date, last_re_sign_date, re_sign_deadline, short_call_restorations, roll_off_date, roll_off_reason, created_on, updated_on`

// Create locks the book row to serialize APN assignment, reads the current
// maximum registration number, and inserts the new row with the next APN.
func (r *registrationRepository) Create(ctx context.Context, reg *domain.BookRegistration) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var bookID int32
	if err := tx.QueryRowContext(ctx, `SELECT id FROM referral_books WHERE id = $1 FOR UPDATE`, reg.BookID).Scan(&bookID); err != nil {
		if err == sql.ErrNoRows {
			return domain.NotFoundf("book", reg.BookID)
		}
		return err
	}

	var currentMax domain.APN
	err = tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(registration_number), 0) FROM book_registrations WHERE book_id = $1`, reg.BookID).Scan(&currentMax)
	if err != nil {
		return err
	}
	reg.RegistrationNumber = domain.NextAPN(currentMax, domain.DateSerial(time.Now()))

	query := `INSERT INTO book_registrations (member_id, book_id, registration_number, status, check_marks, consecutive_missed_check_marks, is_exempt, exempt_reason, last_re_sign_date, re_sign_deadline, short_call_restorations, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING id`
	err = tx.QueryRowContext(ctx, query, reg.MemberID, reg.BookID, reg.RegistrationNumber, reg.Status, reg.CheckMarks, reg.ConsecutiveMissedCheckMarks, reg.IsExempt, reg.ExemptReason, reg.LastReSignDate, reg.ReSignDeadline, reg.ShortCallRestorations, time.Now(), time.Now()).Scan(&reg.ID)
	if err != nil {
		return err
	}
	return tx.Commit()
}

func scanRegistration(row interface{ Scan(...interface{}) error }) (*domain.BookRegistration, error) {
	reg := &domain.BookRegistration{}
	err := row.Scan(&reg.ID, &reg.MemberID, &reg.BookID, &reg.RegistrationNumber, &reg.Status, &reg.CheckMarks, &reg.ConsecutiveMissedCheckMarks, &reg.IsExempt, &reg.ExemptReason, &reg.ExemptStartDate, &reg.ExemptEndDate, &reg.LastReSignDate, &reg.ReSignDeadline, &reg.ShortCallRestorations, &reg.RollOffDate, &reg.RollOffReason, &reg.CreatedOn, &reg.UpdatedOn)
	if err != nil {
		return nil, err
	}
	return reg, nil
}

func (r *registrationRepository) GetByID(ctx context.Context, id int32) (*domain.BookRegistration, error) {
	query := `SELECT ` + registrationColumns + ` FROM book_registrations WHERE id = $1`
	return scanRegistration(r.db.QueryRowContext(ctx, query, id))
}

func (r *registrationRepository) GetActive(ctx context.Context, memberID, bookID int32) (*domain.BookRegistration, error) {
	query := `SELECT ` + registrationColumns + ` FROM book_registrations WHERE member_id = $1 AND book_id = $2 AND status IN ('REGISTERED', 'DISPATCHED')`
	return scanRegistration(r.db.QueryRowContext(ctx, query, memberID, bookID))
}

func (r *registrationRepository) Update(ctx context.Context, reg *domain.BookRegistration) error {
	query := `UPDATE book_registrations SET status=$1, check_marks=$2, consecutive_missed_check_marks=$3, is_exempt=$4, exempt_reason=$5, exempt_start_date=$6, exempt_end_date=$7, last_re_sign_date=$8, re_sign_deadline=$9, short_call_restorations=$10, roll_off_date=$11, roll_off_reason=$12, updated_on=$13 WHERE id=$14`
	_, err := r.db.ExecContext(ctx, query, reg.Status, reg.CheckMarks, reg.ConsecutiveMissedCheckMarks, reg.IsExempt, reg.ExemptReason, reg.ExemptStartDate, reg.ExemptEndDate, reg.LastReSignDate, reg.ReSignDeadline, reg.ShortCallRestorations, reg.RollOffDate, reg.RollOffReason, time.Now(), reg.ID)
	return err
}

func (r *registrationRepository) queryRegistrations(ctx context.Context, query string, args ...interface{}) ([]domain.BookRegistration, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var regs []domain.BookRegistration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		regs = append(regs, *reg)
	}
	return regs, rows.Err()
}

func (r *registrationRepository) ListByBook(ctx context.Context, bookID int32, includeExempt bool) ([]domain.BookRegistration, error) {
	query := `SELECT ` + registrationColumns + ` FROM book_registrations WHERE book_id = $1 AND status = 'REGISTERED'`
	if !includeExempt {
		query += ` AND is_exempt = FALSE`
	}
	query += ` ORDER BY registration_number ASC`
	return r.queryRegistrations(ctx, query, bookID)
}

func (r *registrationRepository) ListRegisteredByMember(ctx context.Context, memberID int32) ([]domain.BookRegistration, error) {
	query := `SELECT ` + registrationColumns + ` FROM book_registrations WHERE member_id = $1 AND status = 'REGISTERED' ORDER BY book_id ASC`
	return r.queryRegistrations(ctx, query, memberID)
}

// Re-sign expiry: past deadline plus the book's grace period, never while
// exempt.
const reSignExpiredWhere = `
	FROM book_registrations r
	JOIN referral_books b ON b.id = r.book_id
	WHERE r.status = 'REGISTERED'
	  AND r.is_exempt = FALSE
	  AND r.re_sign_deadline + make_interval(days => b.grace_period_days) < $1`

func (r *registrationRepository) ListReSignExpired(ctx context.Context, asOf time.Time, limit int32) ([]domain.BookRegistration, error) {
	query := `SELECT ` + prefixColumns("r", registrationColumns) + reSignExpiredWhere + ` ORDER BY r.id ASC LIMIT $2`
	return r.queryRegistrations(ctx, query, asOf, limit)
}

func (r *registrationRepository) CountReSignExpired(ctx context.Context, asOf time.Time) (int32, error) {
	var n int32
	err := r.db.QueryRowContext(ctx, `SELECT count(*)`+reSignExpiredWhere, asOf).Scan(&n)
	return n, err
}

const exemptExpiredWhere = `
	FROM book_registrations r
	WHERE r.status = 'REGISTERED'
	  AND r.is_exempt = TRUE
	  AND r.exempt_end_date IS NOT NULL
	  AND r.exempt_end_date < $1`

func (r *registrationRepository) ListExemptExpired(ctx context.Context, asOf time.Time, limit int32) ([]domain.BookRegistration, error) {
	query := `SELECT ` + prefixColumns("r", registrationColumns) + exemptExpiredWhere + ` ORDER BY r.id ASC LIMIT $2`
	return r.queryRegistrations(ctx, query, asOf, limit)
}

func (r *registrationRepository) CountExemptExpired(ctx context.Context, asOf time.Time) (int32, error) {
	var n int32
	err := r.db.QueryRowContext(ctx, `SELECT count(*)`+exemptExpiredWhere, asOf).Scan(&n)
	return n, err
}

const pastTimeLimitWhere = `
	FROM book_registrations r
	JOIN referral_books b ON b.id = r.book_id
	WHERE r.status = 'REGISTERED'
	  AND b.max_days_on_book IS NOT NULL
	  AND r.created_on + make_interval(days => b.max_days_on_book) < $1`

func (r *registrationRepository) ListPastBookTimeLimit(ctx context.Context, asOf time.Time, limit int32) ([]domain.BookRegistration, error) {
	query := `SELECT ` + prefixColumns("r", registrationColumns) + pastTimeLimitWhere + ` ORDER BY r.id ASC LIMIT $2`
	return r.queryRegistrations(ctx, query, asOf, limit)
}

func (r *registrationRepository) CountPastBookTimeLimit(ctx context.Context, asOf time.Time) (int32, error) {
	var n int32
	err := r.db.QueryRowContext(ctx, `SELECT count(*)`+pastTimeLimitWhere, asOf).Scan(&n)
	return n, err
}

func (r *registrationRepository) CountByBook(ctx context.Context, bookID int32) (int32, error) {
	var n int32
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM book_registrations WHERE book_id = $1 AND status = 'REGISTERED' AND is_exempt = FALSE`, bookID).Scan(&n)
	return n, err
}

// prefixColumns qualifies a comma-separated column list with a table alias.
func prefixColumns(alias, columns string) string {
	cols := strings.Split(columns, ", ")
	for i, c := range cols {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ", ")
}
