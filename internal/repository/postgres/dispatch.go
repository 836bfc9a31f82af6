package postgres

import (
	"context"
	"database/sql"
	"time"

	"hiringhall-backend/internal/domain"
	"hiringhall-backend/internal/repository"
)

type dispatchRepository struct {
	db *sql.DB
}

func NewDispatchRepository(db *sql.DB) repository.DispatchRepository {
	return &dispatchRepository{db: db}
}

const dispatchColumns = `id, reference, registration_id, request_id, member_id, employer, dispatch_method, dispatch_status, checked_in, check_in_deadline, is_short_call, restore_to_book, term_date, term_reason, days_worked, hours_worked, created_on, updated_on`

func scanDispatch(row interface{ Scan(...interface{}) error }) (*domain.Dispatch, error) {
	d := &domain.Dispatch{}
	err := row.Scan(&d.ID, &d.Reference, &d.RegistrationID, &d.RequestID, &d.MemberID, &d.Employer, &d.Method, &d.Status, &d.CheckedIn, &d.CheckInDeadline, &d.IsShortCall, &d.RestoreToBook, &d.TermDate, &d.TermReason, &d.DaysWorked, &d.HoursWorked, &d.CreatedOn, &d.UpdatedOn)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *dispatchRepository) GetByID(ctx context.Context, id int32) (*domain.Dispatch, error) {
	query := `SELECT ` + dispatchColumns + ` FROM dispatches WHERE id = $1`
	return scanDispatch(r.db.QueryRowContext(ctx, query, id))
}

func (r *dispatchRepository) Update(ctx context.Context, d *domain.Dispatch) error {
	query := `UPDATE dispatches SET dispatch_status=$1, checked_in=$2, restore_to_book=$3, term_date=$4, term_reason=$5, days_worked=$6, hours_worked=$7, updated_on=$8 WHERE id=$9`
	_, err := r.db.ExecContext(ctx, query, d.Status, d.CheckedIn, d.RestoreToBook, d.TermDate, d.TermReason, d.DaysWorked, d.HoursWorked, time.Now(), d.ID)
	return err
}

func (r *dispatchRepository) ListWorkingByMember(ctx context.Context, memberID int32) ([]domain.Dispatch, error) {
	query := `SELECT ` + dispatchColumns + ` FROM dispatches WHERE member_id = $1 AND dispatch_status = 'WORKING' ORDER BY created_on DESC`
	rows, err := r.db.QueryContext(ctx, query, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ds []domain.Dispatch
	for rows.Next() {
		d, err := scanDispatch(rows)
		if err != nil {
			return nil, err
		}
		ds = append(ds, *d)
	}
	return ds, rows.Err()
}

func (r *dispatchRepository) CountByNameSince(ctx context.Context, memberID int32, employer string, since time.Time) (int32, error) {
	var n int32
	query := `SELECT count(*) FROM dispatches WHERE member_id = $1 AND employer = $2 AND dispatch_method = 'by_name' AND created_on > $3`
	err := r.db.QueryRowContext(ctx, query, memberID, employer, since).Scan(&n)
	return n, err
}

func (r *dispatchRepository) CountMissedCheckIns(ctx context.Context, asOf time.Time) (int32, error) {
	var n int32
	query := `SELECT count(*) FROM dispatches WHERE dispatch_status = 'WORKING' AND checked_in = FALSE AND check_in_deadline IS NOT NULL AND check_in_deadline < $1`
	err := r.db.QueryRowContext(ctx, query, asOf).Scan(&n)
	return n, err
}

func (r *dispatchRepository) CountDispatchedSince(ctx context.Context, bookID int32, since time.Time) (int32, error) {
	var n int32
	query := `SELECT count(*) FROM dispatches d JOIN book_registrations reg ON reg.id = d.registration_id WHERE reg.book_id = $1 AND d.created_on > $2`
	err := r.db.QueryRowContext(ctx, query, bookID, since).Scan(&n)
	return n, err
}

func (r *dispatchRepository) RecentWaitSeconds(ctx context.Context, bookID int32, limit int32) ([]float64, error) {
	query := `SELECT EXTRACT(EPOCH FROM d.created_on - reg.created_on)
	          FROM dispatches d
	          JOIN book_registrations reg ON reg.id = d.registration_id
	          WHERE reg.book_id = $1
	          ORDER BY d.created_on DESC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, bookID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var waits []float64
	for rows.Next() {
		var secs float64
		if err := rows.Scan(&secs); err != nil {
			return nil, err
		}
		waits = append(waits, secs)
	}
	return waits, rows.Err()
}
