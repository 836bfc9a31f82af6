package http

import (
	"net/http"

	"hiringhall-backend/internal/service"
)

type bidHandler struct {
	svc service.BidService
}

func (h *bidHandler) place(w http.ResponseWriter, r *http.Request) {
	requestID, ok := pathID(w, r, "id")
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

	bid, err := h.svc.PlaceBid(r.Context(), body.MemberID, requestID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, bid)
}

func (h *bidHandler) withdraw(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.WithdrawBid(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *bidHandler) process(w http.ResponseWriter, r *http.Request) {
	requestID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	bids, err := h.svc.ProcessBids(r.Context(), requestID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bids)
}

func (h *bidHandler) accept(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	d, err := h.svc.AcceptBid(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (h *bidHandler) reject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Note string `json:"note,omitempty"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	bid, err := h.svc.RejectBid(r.Context(), id, body.Note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bid)
}

func (h *bidHandler) suspension(w http.ResponseWriter, r *http.Request) {
	memberID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	susp, err := h.svc.CheckSuspension(r.Context(), memberID)
	if err != nil {
		writeError(w, err)
		return
	}
	if susp == nil {
		writeJSON(w, http.StatusOK, map[string]bool{"suspended": false})
		return
	}
	writeJSON(w, http.StatusOK, susp)
}
