package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"hiringhall-backend/internal/jobs"
)

type enforcementHandler struct {
	runner *jobs.Runner
}

func (h *enforcementHandler) pending(w http.ResponseWriter, r *http.Request) {
	counts, err := h.runner.PendingCounts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

// run triggers the enforcement pass out of schedule: one named rule, or all.
func (h *enforcementHandler) run(w http.ResponseWriter, r *http.Request) {
	// Empty body means run everything for real.
	var body struct {
		Rule   string `json:"rule,omitempty"`
		DryRun bool   `json:"dry_run,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body: " + err.Error()})
		return
	}

	runner := *h.runner
	runner.DryRun = body.DryRun

	if body.Rule == "" {
		runner.RunAll(r.Context())
	} else if err := runner.RunRule(r.Context(), body.Rule); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	resp := map[string]any{"rule": body.Rule, "dry_run": body.DryRun}
	if body.DryRun {
		// A dry run writes nothing, so the pending counts still reflect what
		// the rules would act on; return them so the preview is usable
		// without log access.
		counts, err := runner.PendingCounts(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		resp["pending"] = counts
	}
	writeJSON(w, http.StatusAccepted, resp)
}
