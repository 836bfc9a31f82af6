package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestApplyCheckMark(t *testing.T) {
	now := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)

	t.Run("holding the maximum is allowed", func(t *testing.T) {
		reg := &BookRegistration{Status: RegistrationStatusRegistered, CheckMarks: 1}
		rolledOff := reg.ApplyCheckMark(2, now)
		assert.False(t, rolledOff)
		assert.Equal(t, int32(2), reg.CheckMarks)
		assert.Equal(t, RegistrationStatusRegistered, reg.Status)
	})

	t.Run("the mark that would exceed the maximum rolls off", func(t *testing.T) {
		reg := &BookRegistration{Status: RegistrationStatusRegistered, CheckMarks: 2}
		rolledOff := reg.ApplyCheckMark(2, now)
		assert.True(t, rolledOff)
		assert.Equal(t, RegistrationStatusRolledOff, reg.Status)
		assert.Equal(t, RollOffCheckMarkLimit, reg.RollOffReason)
		// The count is not incremented past the limit.
		assert.Equal(t, int32(2), reg.CheckMarks)
	})
}

func TestApplyRollOffIdempotent(t *testing.T) {
	now := time.Now()
	reg := &BookRegistration{Status: RegistrationStatusRegistered}
	reg.ApplyRollOff(RollOffReSignExpired, now)
	assert.Equal(t, RegistrationStatusRolledOff, reg.Status)
	assert.Equal(t, RollOffReSignExpired, reg.RollOffReason)

	// A second roll-off must not overwrite the recorded reason.
	reg.ApplyRollOff(RollOffQuit, now.Add(time.Hour))
	assert.Equal(t, RollOffReSignExpired, reg.RollOffReason)
}

func TestApplyReSign(t *testing.T) {
	now := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	reg := &BookRegistration{Status: RegistrationStatusRegistered}
	reg.ApplyReSign(now, 30)
	assert.Equal(t, now, reg.LastReSignDate)
	assert.Equal(t, now.AddDate(0, 0, 30), reg.ReSignDeadline)
}

func TestDispatchable(t *testing.T) {
	reg := &BookRegistration{Status: RegistrationStatusRegistered}
	assert.True(t, reg.Dispatchable())

	reg.ApplyExempt("medical", time.Now(), nil)
	assert.False(t, reg.Dispatchable(), "exempt members hold position but are skipped")

	reg.ClearExempt()
	assert.True(t, reg.Dispatchable())

	reg.Status = RegistrationStatusDispatched
	assert.False(t, reg.Dispatchable())
}

func TestRequestRemaining(t *testing.T) {
	req := &LaborRequest{WorkersRequested: 3, WorkersDispatched: 1}
	assert.Equal(t, int32(2), req.Remaining())

	req.WorkersDispatched = 3
	assert.Equal(t, int32(0), req.Remaining())

	// Over-dispatch never goes negative.
	req.WorkersDispatched = 4
	assert.Equal(t, int32(0), req.Remaining())
}

func TestBiddingWindowOpen(t *testing.T) {
	opens := time.Date(2026, 8, 27, 17, 30, 0, 0, time.UTC)
	closes := time.Date(2026, 8, 28, 7, 0, 0, 0, time.UTC)
	req := &LaborRequest{
		Status:              RequestStatusOpen,
		AllowsOnlineBidding: true,
		BiddingOpensAt:      &opens,
		BiddingClosesAt:     &closes,
	}

	assert.False(t, req.BiddingWindowOpen(opens.Add(-time.Minute)))
	assert.True(t, req.BiddingWindowOpen(opens))
	assert.True(t, req.BiddingWindowOpen(opens.Add(3*time.Hour)))
	assert.True(t, req.BiddingWindowOpen(closes))
	assert.False(t, req.BiddingWindowOpen(closes.Add(time.Minute)))

	req.Status = RequestStatusFilled
	assert.False(t, req.BiddingWindowOpen(opens.Add(time.Hour)))

	req.Status = RequestStatusOpen
	req.AllowsOnlineBidding = false
	assert.False(t, req.BiddingWindowOpen(opens.Add(time.Hour)))
}
