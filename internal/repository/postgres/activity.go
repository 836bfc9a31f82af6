package postgres

import (
	"context"
	"database/sql"
	"time"

	"hiringhall-backend/internal/domain"
	"hiringhall-backend/internal/repository"
)

type activityRepository struct {
	db *sql.DB
}

func NewActivityRepository(db *sql.DB) repository.ActivityRepository {
	return &activityRepository{db: db}
}

const activityColumns = `id, registration_id, member_id, book_id, action, prev_status, new_status, prev_position, new_position, note, actor, created_on`

func (r *activityRepository) Create(ctx context.Context, a *domain.RegistrationActivity) error {
	query := `INSERT INTO registration_activity (registration_id, member_id, book_id, action, prev_status, new_status, prev_position, new_position, note, actor, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`
	return r.db.QueryRowContext(ctx, query, a.RegistrationID, a.MemberID, a.BookID, a.Action, a.PrevStatus, a.NewStatus, a.PrevPosition, a.NewPosition, a.Note, a.Actor, time.Now()).Scan(&a.ID)
}

func (r *activityRepository) queryActivity(ctx context.Context, query string, args ...interface{}) ([]domain.RegistrationActivity, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var acts []domain.RegistrationActivity
	for rows.Next() {
		var a domain.RegistrationActivity
		if err := rows.Scan(&a.ID, &a.RegistrationID, &a.MemberID, &a.BookID, &a.Action, &a.PrevStatus, &a.NewStatus, &a.PrevPosition, &a.NewPosition, &a.Note, &a.Actor, &a.CreatedOn); err != nil {
			return nil, err
		}
		acts = append(acts, a)
	}
	return acts, rows.Err()
}

func (r *activityRepository) ListByRegistration(ctx context.Context, registrationID int32, limit int32) ([]domain.RegistrationActivity, error) {
	query := `SELECT ` + activityColumns + ` FROM registration_activity WHERE registration_id = $1 ORDER BY id DESC LIMIT $2`
	return r.queryActivity(ctx, query, registrationID, limit)
}

func (r *activityRepository) ListByMember(ctx context.Context, memberID int32, limit int32) ([]domain.RegistrationActivity, error) {
	query := `SELECT ` + activityColumns + ` FROM registration_activity WHERE member_id = $1 ORDER BY id DESC LIMIT $2`
	return r.queryActivity(ctx, query, memberID, limit)
}
