// File: internal/infra/web/revenue_handlers.go
package web

import (
	"net/http"
	"strings"
)

// handleRevenue serves the monthly revenue summary for one application
// scope. The caller identifies its scope with `rid` and authenticates
// with a bearer token; the "all" scope uses the shared reporting secret
// as its token.
func (s *Server) handleRevenue(w http.ResponseWriter, r *http.Request) {
	scope := r.URL.Query().Get("rid")
	if scope == "" {
		writeOrder(w, http.StatusBadRequest, "rid required", nil)
		return
	}

	token := r.Header.Get("Authorization")
	token = strings.TrimPrefix(token, "Bearer ")
	token = strings.TrimPrefix(token, "bearer ")

	report, err := s.revenueUC.Summary(r.Context(), scope, token, r.URL.Query().Get("month"))
	if err != nil {
		writeOrder(w, errorCode(err), err.Error(), nil)
		return
	}
	writeOrder(w, http.StatusOK, "ok", report)
}

// handleRewardStatus is the public reward lookup.
func (s *Server) handleRewardStatus(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("reward_key")
	if key == "" {
		writeOrder(w, http.StatusBadRequest, "reward_key required", nil)
		return
	}
	status, err := s.rewardUC.Status(r.Context(), key)
	if err != nil {
		writeOrder(w, errorCode(err), err.Error(), nil)
		return
	}
	writeOrder(w, http.StatusOK, "ok", status)
}
