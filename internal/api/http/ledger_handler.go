package http

import (
	"net/http"
	"strconv"
	"time"

	"hiringhall-backend/internal/domain"
	"hiringhall-backend/internal/service"
)

type ledgerHandler struct {
	svc service.LedgerService
}

func (h *ledgerHandler) register(w http.ResponseWriter, r *http.Request) {
	bookID, ok := pathID(w, r, "bookID")
	if !ok {
		return
	}
	var body struct {
		MemberID int32 `json:"member_id"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.MemberID <= 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "member_id is required"})
		return
	}

	reg, err := h.svc.Register(r.Context(), body.MemberID, bookID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reg)
}

func (h *ledgerHandler) reSign(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	reg, err := h.svc.ReSign(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

func (h *ledgerHandler) grantExempt(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Reason  string     `json:"reason"`
		EndDate *time.Time `json:"end_date,omitempty"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Reason == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "reason is required"})
		return
	}

	reg, err := h.svc.GrantExempt(r.Context(), id, body.Reason, body.EndDate)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

func (h *ledgerHandler) revokeExempt(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	reg, err := h.svc.RevokeExempt(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

func (h *ledgerHandler) checkMark(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	reg, err := h.svc.RecordCheckMark(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

func (h *ledgerHandler) rollOff(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Reason domain.RollOffReason `json:"reason"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Reason == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "reason is required"})
		return
	}

	if err := h.svc.RollOff(r.Context(), id, body.Reason); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *ledgerHandler) snapshot(w http.ResponseWriter, r *http.Request) {
	bookID, ok := pathID(w, r, "bookID")
	if !ok {
		return
	}
	includeExempt := r.URL.Query().Get("include_exempt") == "true"

	regs, err := h.svc.Snapshot(r.Context(), bookID, includeExempt)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, regs)
}

func (h *ledgerHandler) history(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var limit int32
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid limit: " + raw})
			return
		}
		limit = int32(n)
	}

	activities, err := h.svc.History(r.Context(), id, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, activities)
}
