package http

import (
	"net/http"
	"strconv"
	"time"

	"hiringhall-backend/internal/service"
)

type analyticsHandler struct {
	svc service.AnalyticsService
}

type bookStats struct {
	Depth                int32   `json:"depth"`
	DispatchesPerDay     float64 `json:"dispatches_per_day"`
	EstimatedWaitSeconds float64 `json:"estimated_wait_seconds"`
}

func (h *analyticsHandler) bookStats(w http.ResponseWriter, r *http.Request) {
	bookID, ok := pathID(w, r, "bookID")
	if !ok {
		return
	}

	window := 30 * 24 * time.Hour
	if raw := r.URL.Query().Get("window_days"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days <= 0 {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid window_days: " + raw})
			return
		}
		window = time.Duration(days) * 24 * time.Hour
	}

	depth, err := h.svc.Depth(r.Context(), bookID)
	if err != nil {
		writeError(w, err)
		return
	}
	rate, err := h.svc.DispatchRate(r.Context(), bookID, window)
	if err != nil {
		writeError(w, err)
		return
	}
	wait, err := h.svc.EstimatedWait(r.Context(), bookID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, bookStats{
		Depth:                depth,
		DispatchesPerDay:     rate,
		EstimatedWaitSeconds: wait.Seconds(),
	})
}
