// File: internal/infra/web/checkin_handlers.go
package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"cdk-billing/internal/usecase"
)

// parseRange reads RFC 3339 bounds, defaulting to the last 30 days.
func parseRange(fromStr, toStr string) (time.Time, time.Time, error) {
	now := time.Now()
	from, to := now.AddDate(0, 0, -30), now
	var err error
	if fromStr != "" {
		if from, err = time.Parse(time.RFC3339, fromStr); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if toStr != "" {
		if to, err = time.Parse(time.RFC3339, toStr); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	return from, to, nil
}

type checkInItem struct {
	CDK         string `json:"cdk"`
	Application string `json:"application"`
	Module      string `json:"module"`
}

type checkInPayload struct {
	checkInItem
	Items []checkInItem `json:"items"`
}

// handleCheckIn records one activation or a batch of them. A batch is
// all-or-nothing at the response level: any failing item fails the call,
// though items recorded before the failure stay recorded (each item is
// idempotent, so a retry converges).
func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "secret") != s.checkInSecret {
		http.NotFound(w, r)
		return
	}

	var payload checkInPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeEvent(w, http.StatusBadRequest, "invalid payload", nil)
		return
	}

	items := payload.Items
	if len(items) == 0 {
		items = []checkInItem{payload.checkInItem}
	}

	ua := r.Header.Get("User-Agent")
	ins := make([]usecase.CheckInInput, 0, len(items))
	for _, it := range items {
		ins = append(ins, usecase.CheckInInput{
			CDK:         it.CDK,
			Application: it.Application,
			Module:      it.Module,
			UserAgent:   ua,
		})
	}

	results := s.checkInUC.RecordBatch(r.Context(), ins)
	for _, res := range results {
		if res.Err != nil {
			writeEvent(w, errorCode(res.Err), res.Err.Error(), map[string]interface{}{"cdk": res.CDK})
			return
		}
	}
	writeEvent(w, http.StatusOK, "ok", nil)
}

// handleCheckInList is the admin view over recorded activations.
func (s *Server) handleCheckInList(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid time range"})
		return
	}
	checkins, err := s.checkInUC.ListByApplication(r.Context(), r.URL.Query().Get("application"), from, to)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": checkins})
}
