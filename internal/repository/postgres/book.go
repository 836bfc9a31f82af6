package postgres

import (
	"context"
	"database/sql"
	"time"

	"hiringhall-backend/internal/domain"
	"hiringhall-backend/internal/repository"
)

type bookRepository struct {
	db *sql.DB
}

func NewBookRepository(db *sql.DB) repository.BookRepository {
	return &bookRepository{db: db}
}

const bookColumns = `id, classification, region, book_number, re_sign_days, max_check_marks, grace_period_days, max_days_on_book, referral_start_time, internet_bidding_enabled, is_active, created_on, updated_on`

func (r *bookRepository) Create(ctx context.Context, b *domain.ReferralBook) error {
	query := `INSERT INTO referral_books (classification, region, book_number, re_sign_days, max_check_marks, grace_period_days, max_days_on_book, referral_start_time, internet_bidding_enabled, is_active, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`
	return r.db.QueryRowContext(ctx, query, b.Classification, b.Region, b.BookNumber, b.ReSignDays, b.MaxCheckMarks, b.GracePeriodDays, b.MaxDaysOnBook, b.ReferralStartTime, b.InternetBiddingEnabled, b.IsActive, time.Now(), time.Now()).Scan(&b.ID)
}

func scanBook(row interface{ Scan(...interface{}) error }) (*domain.ReferralBook, error) {
	b := &domain.ReferralBook{}
	err := row.Scan(&b.ID, &b.Classification, &b.Region, &b.BookNumber, &b.ReSignDays, &b.MaxCheckMarks, &b.GracePeriodDays, &b.MaxDaysOnBook, &b.ReferralStartTime, &b.InternetBiddingEnabled, &b.IsActive, &b.CreatedOn, &b.UpdatedOn)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *bookRepository) GetByID(ctx context.Context, id int32) (*domain.ReferralBook, error) {
	query := `SELECT ` + bookColumns + ` FROM referral_books WHERE id = $1`
	return scanBook(r.db.QueryRowContext(ctx, query, id))
}

func (r *bookRepository) GetByKey(ctx context.Context, classification, region string, bookNumber int32) (*domain.ReferralBook, error) {
	query := `SELECT ` + bookColumns + ` FROM referral_books WHERE classification = $1 AND region = $2 AND book_number = $3`
	return scanBook(r.db.QueryRowContext(ctx, query, classification, region, bookNumber))
}

func (r *bookRepository) ListForClassification(ctx context.Context, classification, region string) ([]domain.ReferralBook, error) {
	query := `SELECT ` + bookColumns + ` FROM referral_books WHERE classification = $1 AND region = $2 AND is_active = TRUE ORDER BY book_number ASC`
	rows, err := r.db.QueryContext(ctx, query, classification, region)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []domain.ReferralBook
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, *b)
	}
	return books, rows.Err()
}

func (r *bookRepository) Update(ctx context.Context, b *domain.ReferralBook) error {
	query := `UPDATE referral_books SET re_sign_days=$1, max_check_marks=$2, grace_period_days=$3, max_days_on_book=$4, referral_start_time=$5, internet_bidding_enabled=$6, is_active=$7, updated_on=$8 WHERE id=$9`
	_, err := r.db.ExecContext(ctx, query, b.ReSignDays, b.MaxCheckMarks, b.GracePeriodDays, b.MaxDaysOnBook, b.ReferralStartTime, b.InternetBiddingEnabled, b.IsActive, time.Now(), b.ID)
	return err
}
