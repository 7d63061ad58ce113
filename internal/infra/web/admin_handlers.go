// File: internal/infra/web/admin_handlers.go
package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"cdk-billing/internal/domain"
	"cdk-billing/internal/domain/model"
)

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIKey string `json:"api_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if s.apiKey == "" {
		s.log.Error().Msg("admin API key is not configured")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	if req.APIKey != s.apiKey {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	token, err := s.auth.Mint(w)
	if err != nil {
		http.Error(w, "Failed to mint session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// ---- plans ----

type planRequest struct {
	Platform     string `json:"platform"`
	PlanID       string `json:"plan_id"`
	Title        string `json:"title"`
	ValidDays    int    `json:"valid_days"`
	AppGroup     string `json:"app_group"`
	Applications string `json:"applications"`
	Modules      string `json:"modules"`
	CDKNumber    int    `json:"cdk_number"`
	AmountMinor  int64  `json:"amount_minor"`
}

func (s *Server) handlePlanSave(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	plan := &model.Plan{
		Platform:     req.Platform,
		PlanID:       req.PlanID,
		Title:        req.Title,
		ValidDays:    req.ValidDays,
		AppGroup:     req.AppGroup,
		Applications: req.Applications,
		Modules:      req.Modules,
		CDKNumber:    req.CDKNumber,
		AmountMinor:  req.AmountMinor,
	}
	if err := s.planUC.Save(r.Context(), plan); err != nil {
		if err == domain.ErrInvalidArgument {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to save plan", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, plan)
}

func (s *Server) handlePlanList(w http.ResponseWriter, r *http.Request) {
	plans, err := s.planUC.ListAll(r.Context())
	if err != nil {
		http.Error(w, "Failed to list plans", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": plans})
}

func (s *Server) handlePlanDelete(w http.ResponseWriter, r *http.Request) {
	platform := chi.URLParam(r, "platform")
	planID := chi.URLParam(r, "plan_id")
	if err := s.planUC.Delete(r.Context(), platform, planID); err != nil {
		if err == domain.ErrNotFound {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "Failed to delete plan", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- rewards ----

type rewardRequest struct {
	RewardKey          string     `json:"reward_key"`
	Title              string     `json:"title"`
	StartAt            time.Time  `json:"start_at"`
	ExpiredAt          time.Time  `json:"expired_at"`
	ValidDays          int        `json:"valid_days"`
	Remaining          int        `json:"remaining"`
	Applications       string     `json:"applications"`
	Modules            string     `json:"modules"`
	OrderCreatedAfter  *time.Time `json:"order_created_after"`
	OrderCreatedBefore *time.Time `json:"order_created_before"`
}

func (s *Server) handleRewardSave(w http.ResponseWriter, r *http.Request) {
	var req rewardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	reward := &model.Reward{
		RewardKey:    req.RewardKey,
		Title:        req.Title,
		StartAt:      req.StartAt,
		ExpiredAt:    req.ExpiredAt,
		ValidDays:    req.ValidDays,
		Remaining:    req.Remaining,
		Applications: req.Applications,
		Modules:      req.Modules,
	}
	if req.OrderCreatedAfter != nil {
		reward.OrderCreatedAfter = *req.OrderCreatedAfter
	}
	if req.OrderCreatedBefore != nil {
		reward.OrderCreatedBefore = *req.OrderCreatedBefore
	}
	if err := s.rewardUC.Save(r.Context(), reward); err != nil {
		if err == domain.ErrInvalidArgument {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to save reward", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, reward)
}

func (s *Server) handleRewardList(w http.ResponseWriter, r *http.Request) {
	rewards, err := s.rewardUC.ListAll(r.Context())
	if err != nil {
		http.Error(w, "Failed to list rewards", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": rewards})
}

// ---- transactions ----

func (s *Server) handleTransactionList(w http.ResponseWriter, r *http.Request) {
	platform := r.URL.Query().Get("platform")
	orderID := r.URL.Query().Get("order_id")
	txns, err := s.transferUC.History(r.Context(), platform, orderID)
	if err != nil {
		if err == domain.ErrInvalidArgument {
			http.Error(w, "platform and order_id required", http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to list transactions", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": txns})
}

// ---- ignore list ----

type ignoreRequest struct {
	Application string `json:"application"`
	Module      string `json:"module"`
	UserAgent   string `json:"user_agent"`
}

func (s *Server) handleIgnoreSave(w http.ResponseWriter, r *http.Request) {
	var req ignoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	entry := &model.IgnoreCheckIn{
		Application: req.Application,
		Module:      req.Module,
		UserAgent:   req.UserAgent,
	}
	if err := s.checkInUC.SaveIgnore(r.Context(), entry); err != nil {
		if err == domain.ErrInvalidArgument {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to save ignore entry", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleIgnoreList(w http.ResponseWriter, r *http.Request) {
	entries, err := s.checkInUC.ListIgnores(r.Context())
	if err != nil {
		http.Error(w, "Failed to list ignore entries", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": entries})
}
