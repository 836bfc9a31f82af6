package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hiringhall-backend/internal/domain"
	"hiringhall-backend/internal/jobs"
	"hiringhall-backend/internal/repository"
)

// Stubs embed the interface they stand in for; anything a test does not
// exercise panics if reached.

type stubRegRepo struct{ repository.RegistrationRepository }

func (stubRegRepo) CountReSignExpired(context.Context, time.Time) (int32, error) { return 2, nil }
func (stubRegRepo) CountPastBookTimeLimit(context.Context, time.Time) (int32, error) {
	return 0, nil
}
func (stubRegRepo) CountExemptExpired(context.Context, time.Time) (int32, error) { return 0, nil }

type stubRequestRepo struct{ repository.RequestRepository }

func (stubRequestRepo) CountExpireCandidates(context.Context, time.Time) (int32, error) {
	return 0, nil
}

type stubDispatchRepo struct{ repository.DispatchRepository }

func (stubDispatchRepo) CountMissedCheckIns(context.Context, time.Time) (int32, error) {
	return 0, nil
}

type stubBlackoutRepo struct{ repository.BlackoutRepository }

func (stubBlackoutRepo) ListExpired(context.Context, time.Time, int32) ([]domain.Blackout, error) {
	return nil, nil
}
func (stubBlackoutRepo) CountExpired(context.Context, time.Time) (int32, error) { return 1, nil }

type stubSuspensionRepo struct{ repository.SuspensionRepository }

func (stubSuspensionRepo) CountExpired(context.Context, time.Time) (int32, error) { return 0, nil }

func newEnforcementHandler() *enforcementHandler {
	runner := jobs.NewRunner(jobs.Repos{
		Registrations: stubRegRepo{},
		Requests:      stubRequestRepo{},
		Dispatches:    stubDispatchRepo{},
		Blackouts:     stubBlackoutRepo{},
		Suspensions:   stubSuspensionRepo{},
	}, nil, nil, nil, 10)
	return &enforcementHandler{runner: runner}
}

func TestEnforcementDryRunReportsPending(t *testing.T) {
	h := newEnforcementHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/enforcement/run",
		strings.NewReader(`{"rule":"blackouts","dry_run":true}`))
	w := httptest.NewRecorder()
	h.run(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)
	var resp struct {
		Rule    string           `json:"rule"`
		DryRun  bool             `json:"dry_run"`
		Pending map[string]int32 `json:"pending"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.DryRun)
	assert.Equal(t, int32(2), resp.Pending[jobs.RuleReSigns])
	assert.Equal(t, int32(1), resp.Pending[jobs.RuleBlackouts])
}

func TestEnforcementRunOmitsPending(t *testing.T) {
	h := newEnforcementHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/enforcement/run",
		strings.NewReader(`{"rule":"blackouts"}`))
	w := httptest.NewRecorder()
	h.run(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotContains(t, resp, "pending")
}

func TestEnforcementRunUnknownRule(t *testing.T) {
	h := newEnforcementHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/enforcement/run",
		strings.NewReader(`{"rule":"polish_the_floors"}`))
	w := httptest.NewRecorder()
	h.run(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
