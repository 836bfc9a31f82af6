package http

import (
	"net/http"

	"hiringhall-backend/internal/domain"
	"hiringhall-backend/internal/service"
)

type dispatchHandler struct {
	svc service.DispatchService
}

func (h *dispatchHandler) fromQueue(w http.ResponseWriter, r *http.Request) {
	requestID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	d, err := h.svc.DispatchFromQueue(r.Context(), requestID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (h *dispatchHandler) byName(w http.ResponseWriter, r *http.Request) {
	requestID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		MemberID              int32 `json:"member_id"`
		AntiCollusionVerified bool  `json:"anti_collusion_verified,omitempty"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.MemberID <= 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "member_id is required"})
		return
	}

	d, err := h.svc.DispatchByName(r.Context(), requestID, body.MemberID, body.AntiCollusionVerified)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (h *dispatchHandler) checkIn(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	d, err := h.svc.RecordCheckIn(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *dispatchHandler) terminate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Reason      domain.TermReason `json:"reason"`
		DaysWorked  int32             `json:"days_worked,omitempty"`
		HoursWorked float64           `json:"hours_worked,omitempty"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Reason == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "reason is required"})
		return
	}

	d, err := h.svc.TerminateDispatch(r.Context(), id, body.Reason, body.DaysWorked, body.HoursWorked)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
