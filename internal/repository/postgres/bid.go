package postgres

import (
	"context"
	"database/sql"
	"time"

	"hiringhall-backend/internal/domain"
	"hiringhall-backend/internal/repository"
)

type bidRepository struct {
	db *sql.DB
}

func NewBidRepository(db *sql.DB) repository.BidRepository {
	return &bidRepository{db: db}
}

const bidColumns = `id, request_id, member_id, registration_id, queue_position_at_bid, bid_status, rejected_by_member, rejection_date, rejection_note, was_dispatched, created_on, updated_on`

func (r *bidRepository) Create(ctx context.Context, bid *domain.JobBid) error {
	query := `INSERT INTO job_bids (request_id, member_id, registration_id, queue_position_at_bid, bid_status, rejected_by_member, rejection_note, was_dispatched, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	return r.db.QueryRowContext(ctx, query, bid.RequestID, bid.MemberID, bid.RegistrationID, bid.QueuePositionAtBid, bid.Status, bid.RejectedByMember, bid.RejectionNote, bid.WasDispatched, time.Now(), time.Now()).Scan(&bid.ID)
}

func scanBid(row interface{ Scan(...interface{}) error }) (*domain.JobBid, error) {
	b := &domain.JobBid{}
	err := row.Scan(&b.ID, &b.RequestID, &b.MemberID, &b.RegistrationID, &b.QueuePositionAtBid, &b.Status, &b.RejectedByMember, &b.RejectionDate, &b.RejectionNote, &b.WasDispatched, &b.CreatedOn, &b.UpdatedOn)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *bidRepository) GetByID(ctx context.Context, id int32) (*domain.JobBid, error) {
	query := `SELECT ` + bidColumns + ` FROM job_bids WHERE id = $1`
	return scanBid(r.db.QueryRowContext(ctx, query, id))
}

func (r *bidRepository) Update(ctx context.Context, b *domain.JobBid) error {
	query := `UPDATE job_bids SET bid_status=$1, rejected_by_member=$2, rejection_date=$3, rejection_note=$4, was_dispatched=$5, updated_on=$6 WHERE id=$7`
	_, err := r.db.ExecContext(ctx, query, b.Status, b.RejectedByMember, b.RejectionDate, b.RejectionNote, b.WasDispatched, time.Now(), b.ID)
	return err
}

func (r *bidRepository) GetActiveBid(ctx context.Context, memberID, requestID int32) (*domain.JobBid, error) {
	query := `SELECT ` + bidColumns + ` FROM job_bids WHERE member_id = $1 AND request_id = $2 AND bid_status != 'WITHDRAWN'`
	return scanBid(r.db.QueryRowContext(ctx, query, memberID, requestID))
}

func (r *bidRepository) ListPendingByRequest(ctx context.Context, requestID int32) ([]domain.JobBid, error) {
	query := `SELECT ` + bidColumns + ` FROM job_bids WHERE request_id = $1 AND bid_status = 'PENDING' ORDER BY queue_position_at_bid ASC`
	rows, err := r.db.QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bids []domain.JobBid
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, err
		}
		bids = append(bids, *b)
	}
	return bids, rows.Err()
}

func (r *bidRepository) CountRejectionsSince(ctx context.Context, memberID int32, since time.Time) (int32, error) {
	var n int32
	query := `SELECT count(*) FROM job_bids WHERE member_id = $1 AND rejected_by_member = TRUE AND rejection_date IS NOT NULL AND rejection_date > $2`
	err := r.db.QueryRowContext(ctx, query, memberID, since).Scan(&n)
	return n, err
}
