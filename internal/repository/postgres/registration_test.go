package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hiringhall-backend/internal/domain"
)

func TestRegistrationCreateAssignsNextAPN(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	today := domain.DateSerial(time.Now())
	currentMax := domain.NewAPN(today, 15)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM referral_books WHERE id = \$1 FOR UPDATE`).
		WithArgs(int32(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(`SELECT COALESCE\(MAX\(registration_number\), 0\) FROM book_registrations`).
		WithArgs(int32(1)).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(currentMax.String()))
	mock.ExpectQuery(`INSERT INTO book_registrations`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectCommit()

	repo := NewRegistrationRepository(db)
	reg := &domain.BookRegistration{
		MemberID:       42,
		BookID:         1,
		Status:         domain.RegistrationStatusRegistered,
		LastReSignDate: time.Now(),
		ReSignDeadline: time.Now().AddDate(0, 0, 30),
	}
	require.NoError(t, repo.Create(context.Background(), reg))

	assert.Equal(t, int32(7), reg.ID)
	assert.Equal(t, currentMax+1, reg.RegistrationNumber, "next APN advances past the book maximum")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationCreateFirstOfDay(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM referral_books`).
		WithArgs(int32(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	// Empty book: COALESCE yields zero.
	mock.ExpectQuery(`SELECT COALESCE\(MAX\(registration_number\), 0\)`).
		WithArgs(int32(1)).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow("0"))
	mock.ExpectQuery(`INSERT INTO book_registrations`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	repo := NewRegistrationRepository(db)
	reg := &domain.BookRegistration{MemberID: 42, BookID: 1, Status: domain.RegistrationStatusRegistered}
	require.NoError(t, repo.Create(context.Background(), reg))

	today := domain.DateSerial(time.Now())
	assert.Equal(t, domain.NewAPN(today, 10), reg.RegistrationNumber, "first registration of the day takes .10")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationCreateUnknownBook(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM referral_books`).
		WithArgs(int32(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	repo := NewRegistrationRepository(db)
	err = repo.Create(context.Background(), &domain.BookRegistration{MemberID: 42, BookID: 99})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountByBook(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT count\(\*\) FROM book_registrations WHERE book_id = \$1 AND status = 'REGISTERED' AND is_exempt = FALSE`).
		WithArgs(int32(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	repo := NewRegistrationRepository(db)
	n, err := repo.CountByBook(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int32(12), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
