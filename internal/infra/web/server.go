// File: internal/infra/web/server.go
package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"cdk-billing/internal/config"
	"cdk-billing/internal/usecase"
)

type Server struct {
	ingestUC   usecase.IngestUseCase
	queryUC    usecase.OrderQueryUseCase
	transferUC usecase.TransferUseCase
	checkoutUC usecase.CheckoutUseCase
	checkInUC  usecase.CheckInUseCase
	revenueUC  usecase.RevenueUseCase
	rewardUC   usecase.RewardUseCase
	planUC     usecase.PlanUseCase

	auth *AuthManager

	apiKey               string
	checkInSecret        string
	afdianWebhookSecret  string
	yimapayWebhookSecret string
	yimapayAppID         string
	testOutTradeNo       string
	pricingURL           string

	log *zerolog.Logger
}

func NewServer(
	ingestUC usecase.IngestUseCase,
	queryUC usecase.OrderQueryUseCase,
	transferUC usecase.TransferUseCase,
	checkoutUC usecase.CheckoutUseCase,
	checkInUC usecase.CheckInUseCase,
	revenueUC usecase.RevenueUseCase,
	rewardUC usecase.RewardUseCase,
	planUC usecase.PlanUseCase,
	auth *AuthManager,
	cfg *config.Config,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		ingestUC:             ingestUC,
		queryUC:              queryUC,
		transferUC:           transferUC,
		checkoutUC:           checkoutUC,
		checkInUC:            checkInUC,
		revenueUC:            revenueUC,
		rewardUC:             rewardUC,
		planUC:               planUC,
		auth:                 auth,
		apiKey:               cfg.Admin.APIKey,
		checkInSecret:        cfg.CheckIn.Secret,
		afdianWebhookSecret:  cfg.Afdian.WebhookSecret,
		yimapayWebhookSecret: cfg.Yimapay.WebhookSecret,
		yimapayAppID:         cfg.Yimapay.AppID,
		testOutTradeNo:       cfg.Afdian.TestOutTradeNo,
		pricingURL:           cfg.Pricing.URL,
		log:                  logger,
	}
}

// NewRouter builds the service router with the standard middleware chain
// and mounts every route on it.
func NewRouter(s *Server) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	s.RegisterRoutes(r)
	return r
}

// RegisterRoutes mounts all public, webhook, and admin routes.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/pricing", s.handlePricingRedirect)

	r.Route("/order", func(r chi.Router) {
		r.Get("/query", s.handleOrderQuery)
		r.Get("/transfer", s.handleTransfer)
		r.Get("/yimapay/create", s.handleYimapayCreate)
		r.Post("/afdian/webhook/{secret}", s.handleAfdianWebhook)
		r.Post("/yimapay/webhook/{secret}", s.handleYimapayWebhook)
	})

	r.Get("/reward", s.handleRewardStatus)
	r.Post("/check_in/{secret}", s.handleCheckIn)
	r.Get("/revenue", s.handleRevenue)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/login", s.handleAdminLogin)
		r.Group(func(r chi.Router) {
			r.Use(s.adminAuth)
			r.Get("/plans", s.handlePlanList)
			r.Post("/plans", s.handlePlanSave)
			r.Delete("/plans/{platform}/{plan_id}", s.handlePlanDelete)
			r.Get("/rewards", s.handleRewardList)
			r.Post("/rewards", s.handleRewardSave)
			r.Get("/ignores", s.handleIgnoreList)
			r.Post("/ignores", s.handleIgnoreSave)
			r.Get("/check_ins", s.handleCheckInList)
			r.Get("/transactions", s.handleTransactionList)
		})
	})
}

func (s *Server) handlePricingRedirect(w http.ResponseWriter, r *http.Request) {
	if s.pricingURL == "" {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, s.pricingURL, http.StatusTemporaryRedirect)
}
