package postgres

import (
	"context"
	"database/sql"
	"time"

	"hiringhall-backend/internal/domain"
	"hiringhall-backend/internal/repository"
)

type blackoutRepository struct {
	db *sql.DB
}

func NewBlackoutRepository(db *sql.DB) repository.BlackoutRepository {
	return &blackoutRepository{db: db}
}

const blackoutColumns = `id, member_id, employer, reason, source_dispatch_id, starts_at, ends_at, lifted, created_on`

func (r *blackoutRepository) Create(ctx context.Context, b *domain.Blackout) error {
	query := `INSERT INTO blackouts (member_id, employer, reason, source_dispatch_id, starts_at, ends_at, lifted, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	return r.db.QueryRowContext(ctx, query, b.MemberID, b.Employer, b.Reason, b.SourceDispatchID, b.StartsAt, b.EndsAt, b.Lifted, time.Now()).Scan(&b.ID)
}

func (r *blackoutRepository) HasActive(ctx context.Context, memberID int32, employer string, asOf time.Time) (bool, error) {
	var n int32
	query := `SELECT count(*) FROM blackouts WHERE member_id = $1 AND employer = $2 AND lifted = FALSE AND starts_at <= $3 AND ends_at > $3`
	if err := r.db.QueryRowContext(ctx, query, memberID, employer, asOf).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func scanBlackout(row interface{ Scan(...interface{}) error }) (*domain.Blackout, error) {
	b := &domain.Blackout{}
	err := row.Scan(&b.ID, &b.MemberID, &b.Employer, &b.Reason, &b.SourceDispatchID, &b.StartsAt, &b.EndsAt, &b.Lifted, &b.CreatedOn)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *blackoutRepository) queryBlackouts(ctx context.Context, query string, args ...interface{}) ([]domain.Blackout, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bs []domain.Blackout
	for rows.Next() {
		b, err := scanBlackout(rows)
		if err != nil {
			return nil, err
		}
		bs = append(bs, *b)
	}
	return bs, rows.Err()
}

func (r *blackoutRepository) ListActiveByMember(ctx context.Context, memberID int32, asOf time.Time) ([]domain.Blackout, error) {
	query := `SELECT ` + blackoutColumns + ` FROM blackouts WHERE member_id = $1 AND lifted = FALSE AND starts_at <= $2 AND ends_at > $2 ORDER BY ends_at ASC`
	return r.queryBlackouts(ctx, query, memberID, asOf)
}

const blackoutExpiredWhere = ` FROM blackouts WHERE lifted = FALSE AND ends_at <= $1`

func (r *blackoutRepository) ListExpired(ctx context.Context, asOf time.Time, limit int32) ([]domain.Blackout, error) {
	query := `SELECT ` + blackoutColumns + blackoutExpiredWhere + ` ORDER BY id ASC LIMIT $2`
	return r.queryBlackouts(ctx, query, asOf, limit)
}

func (r *blackoutRepository) CountExpired(ctx context.Context, asOf time.Time) (int32, error) {
	var n int32
	err := r.db.QueryRowContext(ctx, `SELECT count(*)`+blackoutExpiredWhere, asOf).Scan(&n)
	return n, err
}

func (r *blackoutRepository) Lift(ctx context.Context, id int32) error {
	_, err := r.db.ExecContext(ctx, `UPDATE blackouts SET lifted = TRUE WHERE id = $1`, id)
	return err
}

type suspensionRepository struct {
	db *sql.DB
}

func NewSuspensionRepository(db *sql.DB) repository.SuspensionRepository {
	return &suspensionRepository{db: db}
}

const suspensionColumns = `id, member_id, triggering_bid_id, starts_at, ends_at, lifted, created_on`

func (r *suspensionRepository) Create(ctx context.Context, s *domain.BiddingSuspension) error {
	query := `INSERT INTO bidding_suspensions (member_id, triggering_bid_id, starts_at, ends_at, lifted, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	return r.db.QueryRowContext(ctx, query, s.MemberID, s.TriggeringBidID, s.StartsAt, s.EndsAt, s.Lifted, time.Now()).Scan(&s.ID)
}

func scanSuspension(row interface{ Scan(...interface{}) error }) (*domain.BiddingSuspension, error) {
	s := &domain.BiddingSuspension{}
	err := row.Scan(&s.ID, &s.MemberID, &s.TriggeringBidID, &s.StartsAt, &s.EndsAt, &s.Lifted, &s.CreatedOn)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *suspensionRepository) GetActive(ctx context.Context, memberID int32, asOf time.Time) (*domain.BiddingSuspension, error) {
	query := `SELECT ` + suspensionColumns + ` FROM bidding_suspensions WHERE member_id = $1 AND lifted = FALSE AND starts_at <= $2 AND ends_at > $2 ORDER BY ends_at DESC LIMIT 1`
	return scanSuspension(r.db.QueryRowContext(ctx, query, memberID, asOf))
}

const suspensionExpiredWhere = ` FROM bidding_suspensions WHERE lifted = FALSE AND ends_at <= $1`

func (r *suspensionRepository) ListExpired(ctx context.Context, asOf time.Time, limit int32) ([]domain.BiddingSuspension, error) {
	query := `SELECT ` + suspensionColumns + suspensionExpiredWhere + ` ORDER BY id ASC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, asOf, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ss []domain.BiddingSuspension
	for rows.Next() {
		s, err := scanSuspension(rows)
		if err != nil {
			return nil, err
		}
		ss = append(ss, *s)
	}
	return ss, rows.Err()
}

func (r *suspensionRepository) CountExpired(ctx context.Context, asOf time.Time) (int32, error) {
	var n int32
	err := r.db.QueryRowContext(ctx, `SELECT count(*)`+suspensionExpiredWhere, asOf).Scan(&n)
	return n, err
}

func (r *suspensionRepository) Lift(ctx context.Context, id int32) error {
	_, err := r.db.ExecContext(ctx, `UPDATE bidding_suspensions SET lifted = TRUE WHERE id = $1`, id)
	return err
}
