package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hiringhall-backend/internal/domain"
)

func openRequest() *domain.LaborRequest {
	return &domain.LaborRequest{
		ID:               1,
		Reference:        "req-1",
		Employer:         "Acme Electric",
		BookID:           1,
		WorkersRequested: 2,
		Status:           domain.RequestStatusOpen,
		StartDate:        time.Now().AddDate(0, 0, 3),
	}
}

func TestDispatchByNameAntiCollusion(t *testing.T) {
	ctx := context.Background()
	requestRepo := newFakeRequestRepo(openRequest())
	dispatchRepo := newFakeDispatchRepo()
	blackouts := &fakeBlackoutRepo{}
	notifier := &fakeNotifier{}

	claimed := false
	claims := &fakeClaims{
		claimByName: func(requestID, memberID int32) (*domain.Dispatch, error) {
			claimed = true
			return &domain.Dispatch{
				ID: 1, Reference: "disp-1", RequestID: requestID, MemberID: memberID,
				Employer: "Acme Electric", Method: domain.DispatchMethodByName,
				Status: domain.DispatchStatusWorking,
			}, nil
		},
	}

	svc := NewDispatchService(claims, dispatchRepo, requestRepo, blackouts, notifier, referralCfg())

	t.Run("under the limit dispatches without verification", func(t *testing.T) {
		dispatchRepo.byNameCount = 2
		d, err := svc.DispatchByName(ctx, 1, 7, false)
		require.NoError(t, err)
		assert.True(t, claimed)
		assert.Equal(t, domain.DispatchMethodByName, d.Method)
	})

	t.Run("at the limit requires verification", func(t *testing.T) {
		dispatchRepo.byNameCount = 3
		_, err := svc.DispatchByName(ctx, 1, 7, false)
		assert.ErrorIs(t, err, domain.ErrEligibility)
		assert.Contains(t, notifier.subjects, "Anti-collusion review required")
	})

	t.Run("verification overrides the limit", func(t *testing.T) {
		dispatchRepo.byNameCount = 10
		_, err := svc.DispatchByName(ctx, 1, 7, true)
		assert.NoError(t, err)
	})

	t.Run("active blackout blocks regardless", func(t *testing.T) {
		blackouts.active = true
		_, err := svc.DispatchByName(ctx, 1, 7, true)
		assert.ErrorIs(t, err, domain.ErrEligibility)
		blackouts.active = false
	})
}

func TestRecordCheckIn(t *testing.T) {
	ctx := context.Background()
	deadline := time.Now().Add(2 * time.Hour)
	dispatchRepo := newFakeDispatchRepo(&domain.Dispatch{
		ID: 1, Status: domain.DispatchStatusWorking, CheckInDeadline: &deadline,
	}, &domain.Dispatch{
		ID: 2, Status: domain.DispatchStatusCompleted,
	})
	svc := NewDispatchService(&fakeClaims{}, dispatchRepo, newFakeRequestRepo(), &fakeBlackoutRepo{}, nil, referralCfg())

	d, err := svc.RecordCheckIn(ctx, 1)
	require.NoError(t, err)
	assert.True(t, d.CheckedIn)

	_, err = svc.RecordCheckIn(ctx, 2)
	assert.ErrorIs(t, err, domain.ErrStateConflict)

	t.Run("past deadline is refused", func(t *testing.T) {
		missed := time.Now().Add(-time.Hour)
		require.NoError(t, dispatchRepo.Update(ctx, &domain.Dispatch{
			ID: 1, Status: domain.DispatchStatusWorking, CheckInDeadline: &missed,
		}))
		_, err := svc.RecordCheckIn(ctx, 1)
		assert.ErrorIs(t, err, domain.ErrStateConflict)
	})
}

func TestTerminateDispatch(t *testing.T) {
	ctx := context.Background()

	newSvc := func(d *domain.Dispatch) (DispatchService, *domain.TerminationOutcome, *fakeNotifier) {
		var captured domain.TerminationOutcome
		claims := &fakeClaims{
			terminate: func(dispatchID int32, outcome domain.TerminationOutcome, daysWorked int32, hoursWorked float64) (*domain.Dispatch, error) {
				captured = outcome
				done := *d
				done.Status = domain.DispatchStatusCompleted
				done.TermReason = outcome.Reason
				done.DaysWorked = daysWorked
				return &done, nil
			},
		}
		notifier := &fakeNotifier{}
		svc := NewDispatchService(claims, newFakeDispatchRepo(d), newFakeRequestRepo(), &fakeBlackoutRepo{}, notifier, referralCfg())
		return svc, &captured, notifier
	}

	t.Run("quit cascades and notifies", func(t *testing.T) {
		d := &domain.Dispatch{ID: 1, Reference: "disp-1", MemberID: 7, Employer: "Acme Electric",
			Status: domain.DispatchStatusWorking, CreatedOn: time.Now().AddDate(0, 0, -5)}
		svc, outcome, notifier := newSvc(d)

		done, err := svc.TerminateDispatch(ctx, 1, domain.TermQuit, 5, 40)
		require.NoError(t, err)
		assert.Equal(t, domain.DispatchStatusCompleted, done.Status)
		assert.True(t, outcome.RollOffAllBooks)
		assert.Equal(t, int32(14), outcome.BlackoutDays)
		assert.Contains(t, notifier.subjects, "Member rolled off all books")
	})

	t.Run("layoff restores without blackout", func(t *testing.T) {
		d := &domain.Dispatch{ID: 1, Status: domain.DispatchStatusWorking, CreatedOn: time.Now().AddDate(0, 0, -5)}
		svc, outcome, notifier := newSvc(d)

		_, err := svc.TerminateDispatch(ctx, 1, domain.TermLaidOff, 5, 40)
		require.NoError(t, err)
		assert.True(t, outcome.RestoreRegistration)
		assert.False(t, outcome.RestoreOriginalAPN)
		assert.Empty(t, notifier.subjects)
	})

	t.Run("short call end keeps the original position", func(t *testing.T) {
		d := &domain.Dispatch{ID: 1, Status: domain.DispatchStatusWorking, IsShortCall: true,
			CreatedOn: time.Now().AddDate(0, 0, -3)}
		svc, outcome, _ := newSvc(d)

		_, err := svc.TerminateDispatch(ctx, 1, domain.TermShortCallEnd, 3, 24)
		require.NoError(t, err)
		assert.True(t, outcome.RestoreOriginalAPN)
	})

	t.Run("short call end on regular dispatch is refused", func(t *testing.T) {
		d := &domain.Dispatch{ID: 1, Status: domain.DispatchStatusWorking, CreatedOn: time.Now()}
		svc, _, _ := newSvc(d)

		_, err := svc.TerminateDispatch(ctx, 1, domain.TermShortCallEnd, 3, 24)
		assert.ErrorIs(t, err, domain.ErrStateConflict)
	})

	t.Run("zero days worked is derived from the dispatch age", func(t *testing.T) {
		d := &domain.Dispatch{ID: 1, Status: domain.DispatchStatusWorking,
			CreatedOn: time.Now().AddDate(0, 0, -4)}
		svc, _, _ := newSvc(d)

		done, err := svc.TerminateDispatch(ctx, 1, domain.TermLaidOff, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, int32(5), done.DaysWorked)
	})
}
