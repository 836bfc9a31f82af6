package postgres

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hiringhall-backend/internal/domain"
)

func requestRows(workersRequested, workersDispatched int32) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(strings.Split(requestColumns, ", ")).
		AddRow(int32(1), "req-ref", "Acme Electric", int32(1), "WIRE", "SEA",
			workersRequested, workersDispatched, now, now.AddDate(0, 0, 2), "07:00",
			false, int32(0), false, nil, true, "", false, nil, nil, "OPEN", now, now)
}

func registrationRows(id, memberID int32, apn string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(strings.Split(registrationColumns, ", ")).
		AddRow(id, memberID, int32(1), apn, "REGISTERED", int32(0), int32(0),
			false, "", nil, nil, now, now.AddDate(0, 0, 30), int32(0), nil, "", now, now)
}

// expectClaimNext scripts one full successful claim_next transaction.
func expectClaimNext(mock sqlmock.Sqlmock) {
	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM labor_requests WHERE id = \$1 FOR UPDATE`).
		WithArgs(int32(1)).
		WillReturnRows(requestRows(2, 0))
	mock.ExpectQuery(`FROM book_registrations r`).
		WithArgs(int32(1), "Acme Electric", sqlmock.AnyArg(), false).
		WillReturnRows(registrationRows(5, 42, "46275.10"))
	mock.ExpectExec(`UPDATE book_registrations SET status='DISPATCHED'`).
		WithArgs(sqlmock.AnyArg(), int32(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO dispatches`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_on", "updated_on"}).AddRow(9, now, now))
	mock.ExpectExec(`UPDATE labor_requests SET workers_dispatched`).
		WithArgs(int32(1), "OPEN", sqlmock.AnyArg(), int32(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO registration_activity`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
}

func TestClaimNextDispatchesLowestAPN(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	expectClaimNext(mock)

	repo := NewClaimRepository(db)
	d, err := repo.ClaimNext(context.Background(), 1, domain.DispatchMethodMorningReferral)
	require.NoError(t, err)

	assert.Equal(t, int32(9), d.ID)
	assert.Equal(t, int32(42), d.MemberID)
	require.NotNil(t, d.RegistrationID)
	assert.Equal(t, int32(5), *d.RegistrationID)
	assert.Equal(t, domain.DispatchStatusWorking, d.Status)
	assert.False(t, d.CheckedIn)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimNextRetriesAfterSerializationFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// First attempt loses the race on the request lock; the second runs clean.
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM labor_requests WHERE id = \$1 FOR UPDATE`).
		WithArgs(int32(1)).
		WillReturnError(&pq.Error{Code: "40001"})
	mock.ExpectRollback()
	expectClaimNext(mock)

	repo := NewClaimRepository(db)
	d, err := repo.ClaimNext(context.Background(), 1, domain.DispatchMethodMorningReferral)
	require.NoError(t, err)
	assert.Equal(t, int32(42), d.MemberID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimNextGivesUpAfterRepeatedConflicts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	for i := 0; i <= claimRetries; i++ {
		mock.ExpectBegin()
		mock.ExpectQuery(`FROM labor_requests WHERE id = \$1 FOR UPDATE`).
			WithArgs(int32(1)).
			WillReturnError(&pq.Error{Code: "40P01"})
		mock.ExpectRollback()
	}

	repo := NewClaimRepository(db)
	_, err = repo.ClaimNext(context.Background(), 1, domain.DispatchMethodMorningReferral)
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimNextNoEligibleMember(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM labor_requests WHERE id = \$1 FOR UPDATE`).
		WithArgs(int32(1)).
		WillReturnRows(requestRows(2, 0))
	mock.ExpectQuery(`FROM book_registrations r`).
		WithArgs(int32(1), "Acme Electric", sqlmock.AnyArg(), false).
		WillReturnRows(sqlmock.NewRows(strings.Split(registrationColumns, ", ")))
	mock.ExpectRollback()

	repo := NewClaimRepository(db)
	_, err = repo.ClaimNext(context.Background(), 1, domain.DispatchMethodMorningReferral)
	assert.ErrorIs(t, err, domain.ErrCapacityExhausted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimRegistrationDispatchesBid(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM labor_requests WHERE id = \$1 FOR UPDATE`).
		WithArgs(int32(1)).
		WillReturnRows(requestRows(2, 0))
	mock.ExpectQuery(`FROM book_registrations WHERE id = \$1 FOR UPDATE`).
		WithArgs(int32(5)).
		WillReturnRows(registrationRows(5, 42, "46275.10"))
	mock.ExpectQuery(`SELECT count\(\*\) FROM blackouts`).
		WithArgs(int32(42), "Acme Electric", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM bidding_suspensions`).
		WithArgs(int32(42), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`UPDATE book_registrations SET status='DISPATCHED'`).
		WithArgs(sqlmock.AnyArg(), int32(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO dispatches`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_on", "updated_on"}).AddRow(9, now, now))
	mock.ExpectExec(`UPDATE labor_requests SET workers_dispatched`).
		WithArgs(int32(1), "OPEN", sqlmock.AnyArg(), int32(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO registration_activity`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	repo := NewClaimRepository(db)
	d, err := repo.ClaimRegistration(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.Equal(t, int32(42), d.MemberID)
	assert.Equal(t, domain.DispatchMethodOnlineBid, d.Method)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimRegistrationRefusesSuspendedMember(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// The member was clean when the bid went in; the suspension opened before
	// the window closed. The claim must refuse, not dispatch.
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM labor_requests WHERE id = \$1 FOR UPDATE`).
		WithArgs(int32(1)).
		WillReturnRows(requestRows(2, 0))
	mock.ExpectQuery(`FROM book_registrations WHERE id = \$1 FOR UPDATE`).
		WithArgs(int32(5)).
		WillReturnRows(registrationRows(5, 42, "46275.10"))
	mock.ExpectQuery(`SELECT count\(\*\) FROM blackouts`).
		WithArgs(int32(42), "Acme Electric", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM bidding_suspensions`).
		WithArgs(int32(42), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	repo := NewClaimRepository(db)
	_, err = repo.ClaimRegistration(context.Background(), 1, 5)
	assert.ErrorIs(t, err, domain.ErrEligibility)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimNextRequestAlreadyFilled(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM labor_requests WHERE id = \$1 FOR UPDATE`).
		WithArgs(int32(1)).
		WillReturnRows(requestRows(2, 2))
	mock.ExpectRollback()

	repo := NewClaimRepository(db)
	_, err = repo.ClaimNext(context.Background(), 1, domain.DispatchMethodMorningReferral)
	assert.ErrorIs(t, err, domain.ErrStateConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}
