package postgres

import (
	"context"
	"database/sql"
	"time"

	"hiringhall-backend/internal/domain"
	"hiringhall-backend/internal/repository"
)

type requestRepository struct {
	db *sql.DB
}

func NewRequestRepository(db *sql.DB) repository.RequestRepository {
	return &requestRepository{db: db}
}

const requestColumns = `id, reference, employer, book_id, classification, region, workers_requested, workers_dispatched, request_date, start_date, start_time, is_short_call, short_call_days, is_foreperson_by_name, foreperson_member_id, generates_check_mark, no_check_mark_reason, allows_online_bidding, bidding_opens_at, bidding_closes_at, status, created_on, updated_on`

func (r *requestRepository) Create(ctx context.Context, req *domain.LaborRequest) error {
	query := `INSERT INTO labor_requests (reference, employer, book_id, classification, region, workers_requested, workers_dispatched, request_date, start_date, start_time, is_short_call, short_call_days, is_foreperson_by_name, foreperson_member_id, generates_check_mark, no_check_mark_reason, allows_online_bidding, bidding_opens_at, bidding_closes_at, status, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22) RETURNING id`
	return r.db.QueryRowContext(ctx, query, req.Reference, req.Employer, req.BookID, req.Classification, req.Region, req.WorkersRequested, req.WorkersDispatched, req.RequestDate, req.StartDate, req.StartTime, req.IsShortCall, req.ShortCallDays, req.IsForepersonByName, req.ForepersonMemberID, req.GeneratesCheckMark, req.NoCheckMarkReason, req.AllowsOnlineBidding, req.BiddingOpensAt, req.BiddingClosesAt, req.Status, time.Now(), time.Now()).Scan(&req.ID)
}

func scanRequest(row interface{ Scan(...interface{}) error }) (*domain.LaborRequest, error) {
	req := &domain.LaborRequest{}
	err := row.Scan(&req.ID, &req.Reference, &req.Employer, &req.BookID, &req.Classification, &req.Region, &req.WorkersRequested, &req.WorkersDispatched, &req.RequestDate, &req.StartDate, &req.StartTime, &req.IsShortCall, &req.ShortCallDays, &req.IsForepersonByName, &req.ForepersonMemberID, &req.GeneratesCheckMark, &req.NoCheckMarkReason, &req.AllowsOnlineBidding, &req.BiddingOpensAt, &req.BiddingClosesAt, &req.Status, &req.CreatedOn, &req.UpdatedOn)
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (r *requestRepository) GetByID(ctx context.Context, id int32) (*domain.LaborRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM labor_requests WHERE id = $1`
	return scanRequest(r.db.QueryRowContext(ctx, query, id))
}

func (r *requestRepository) Update(ctx context.Context, req *domain.LaborRequest) error {
	query := `UPDATE labor_requests SET workers_requested=$1, workers_dispatched=$2, status=$3, request_date=$4, start_date=$5, bidding_opens_at=$6, bidding_closes_at=$7, updated_on=$8 WHERE id=$9`
	_, err := r.db.ExecContext(ctx, query, req.WorkersRequested, req.WorkersDispatched, req.Status, req.RequestDate, req.StartDate, req.BiddingOpensAt, req.BiddingClosesAt, time.Now(), req.ID)
	return err
}

func (r *requestRepository) queryRequests(ctx context.Context, query string, args ...interface{}) ([]domain.LaborRequest, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reqs []domain.LaborRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, *req)
	}
	return reqs, rows.Err()
}

// ListOpenForMorning orders the morning batch by the classification's
// referral start time, then by submission time within a classification.
func (r *requestRepository) ListOpenForMorning(ctx context.Context, date time.Time) ([]domain.LaborRequest, error) {
	query := `SELECT ` + prefixColumns("q", requestColumns) + `
	          FROM labor_requests q
	          JOIN referral_books b ON b.id = q.book_id
	          WHERE q.status = 'OPEN' AND q.request_date::date = $1::date
	          ORDER BY b.referral_start_time ASC, q.request_date ASC, q.id ASC`
	return r.queryRequests(ctx, query, date)
}

const expireCandidatesWhere = ` FROM labor_requests WHERE status = 'OPEN' AND start_date < $1::date`

func (r *requestRepository) ListExpireCandidates(ctx context.Context, asOf time.Time, limit int32) ([]domain.LaborRequest, error) {
	query := `SELECT ` + requestColumns + expireCandidatesWhere + ` ORDER BY id ASC LIMIT $2`
	return r.queryRequests(ctx, query, asOf, limit)
}

func (r *requestRepository) CountExpireCandidates(ctx context.Context, asOf time.Time) (int32, error) {
	var n int32
	err := r.db.QueryRowContext(ctx, `SELECT count(*)`+expireCandidatesWhere, asOf).Scan(&n)
	return n, err
}
