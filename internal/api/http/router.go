// Package http is the JSON API surface over the referral engine services.
package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"hiringhall-backend/internal/jobs"
	"hiringhall-backend/internal/metrics"
	"hiringhall-backend/internal/service"
)

// Handlers bundles the services the router exposes.
type Handlers struct {
	Ledger    service.LedgerService
	Intake    service.IntakeService
	Dispatch  service.DispatchService
	Bids      service.BidService
	Analytics service.AnalyticsService
	Enforcer  *jobs.Runner
}

// NewRouter builds the full route table.
func NewRouter(h Handlers) *mux.Router {
	r := mux.NewRouter()

	ledger := &ledgerHandler{svc: h.Ledger}
	intake := &requestHandler{svc: h.Intake}
	dispatch := &dispatchHandler{svc: h.Dispatch}
	bids := &bidHandler{svc: h.Bids}
	analytics := &analyticsHandler{svc: h.Analytics}
	enforcement := &enforcementHandler{runner: h.Enforcer}

	v1 := r.PathPrefix("/v1").Subrouter()

	// Registration ledger
	v1.HandleFunc("/books/{bookID}/registrations", ledger.register).Methods(http.MethodPost)
	v1.HandleFunc("/books/{bookID}/queue", ledger.snapshot).Methods(http.MethodGet)
	v1.HandleFunc("/registrations/{id}/re-sign", ledger.reSign).Methods(http.MethodPost)
	v1.HandleFunc("/registrations/{id}/exempt", ledger.grantExempt).Methods(http.MethodPost)
	v1.HandleFunc("/registrations/{id}/exempt", ledger.revokeExempt).Methods(http.MethodDelete)
	v1.HandleFunc("/registrations/{id}/check-mark", ledger.checkMark).Methods(http.MethodPost)
	v1.HandleFunc("/registrations/{id}/roll-off", ledger.rollOff).Methods(http.MethodPost)
	v1.HandleFunc("/registrations/{id}/history", ledger.history).Methods(http.MethodGet)

	// Labor request intake
	v1.HandleFunc("/requests", intake.create).Methods(http.MethodPost)
	v1.HandleFunc("/requests/morning", intake.morning).Methods(http.MethodGet)
	v1.HandleFunc("/requests/{id}/cancel", intake.cancel).Methods(http.MethodPost)
	v1.HandleFunc("/requests/{id}/expire", intake.expire).Methods(http.MethodPost)

	// Dispatch engine
	v1.HandleFunc("/requests/{id}/dispatch", dispatch.fromQueue).Methods(http.MethodPost)
	v1.HandleFunc("/requests/{id}/dispatch-by-name", dispatch.byName).Methods(http.MethodPost)
	v1.HandleFunc("/dispatches/{id}/check-in", dispatch.checkIn).Methods(http.MethodPost)
	v1.HandleFunc("/dispatches/{id}/terminate", dispatch.terminate).Methods(http.MethodPost)

	// Online bids
	v1.HandleFunc("/requests/{id}/bids", bids.place).Methods(http.MethodPost)
	v1.HandleFunc("/requests/{id}/bids/process", bids.process).Methods(http.MethodPost)
	v1.HandleFunc("/bids/{id}", bids.withdraw).Methods(http.MethodDelete)
	v1.HandleFunc("/bids/{id}/accept", bids.accept).Methods(http.MethodPost)
	v1.HandleFunc("/bids/{id}/reject", bids.reject).Methods(http.MethodPost)
	v1.HandleFunc("/members/{id}/suspension", bids.suspension).Methods(http.MethodGet)

	// Queue analytics
	v1.HandleFunc("/books/{bookID}/analytics", analytics.bookStats).Methods(http.MethodGet)

	// Enforcement pass
	v1.HandleFunc("/enforcement/pending", enforcement.pending).Methods(http.MethodGet)
	v1.HandleFunc("/enforcement/run", enforcement.run).Methods(http.MethodPost)

	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	return r
}

// pathID reads a path variable as int32, writing a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int32, bool) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid " + name + ": " + raw})
		return 0, false
	}
	return int32(id), true
}
