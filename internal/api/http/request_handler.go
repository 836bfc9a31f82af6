package http

import (
	"net/http"
	"time"

	"hiringhall-backend/internal/service"
)

type requestHandler struct {
	svc service.IntakeService
}

type createRequestBody struct {
	Employer            string     `json:"employer"`
	BookID              int32      `json:"book_id,omitempty"`
	Classification      string     `json:"classification,omitempty"`
	Region              string     `json:"region,omitempty"`
	WorkersRequested    int32      `json:"workers_requested"`
	StartDate           time.Time  `json:"start_date"`
	StartTime           string     `json:"start_time,omitempty"`
	IsShortCall         bool       `json:"is_short_call,omitempty"`
	ShortCallDays       int32      `json:"short_call_days,omitempty"`
	IsForepersonByName  bool       `json:"is_foreperson_by_name,omitempty"`
	ForepersonMemberID  *int32     `json:"foreperson_member_id,omitempty"`
	AllowsOnlineBidding bool       `json:"allows_online_bidding,omitempty"`
	SubmittedAt         *time.Time `json:"submitted_at,omitempty"`
}

func (h *requestHandler) create(w http.ResponseWriter, r *http.Request) {
	var body createRequestBody
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Employer == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "employer is required"})
		return
	}
	if body.StartDate.IsZero() {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "start_date is required"})
		return
	}

	in := service.CreateRequestInput{
		Employer:            body.Employer,
		BookID:              body.BookID,
		Classification:      body.Classification,
		Region:              body.Region,
		WorkersRequested:    body.WorkersRequested,
		StartDate:           body.StartDate,
		StartTime:           body.StartTime,
		IsShortCall:         body.IsShortCall,
		ShortCallDays:       body.ShortCallDays,
		IsForepersonByName:  body.IsForepersonByName,
		ForepersonMemberID:  body.ForepersonMemberID,
		AllowsOnlineBidding: body.AllowsOnlineBidding,
	}
	if body.SubmittedAt != nil {
		in.SubmittedAt = *body.SubmittedAt
	}

	req, err := h.svc.CreateRequest(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (h *requestHandler) cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.CancelRequest(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *requestHandler) expire(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.ExpireRequest(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// morning lists the OPEN requests attributed to a referral date, default today.
func (h *requestHandler) morning(w http.ResponseWriter, r *http.Request) {
	date := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid date: " + raw})
			return
		}
		date = parsed
	}

	reqs, err := h.svc.RequestsForMorning(r.Context(), date)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reqs)
}
