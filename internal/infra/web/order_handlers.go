// File: internal/infra/web/order_handlers.go
package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"cdk-billing/internal/domain/model"
	"cdk-billing/internal/usecase"
)

type orderView struct {
	Platform        string    `json:"platform"`
	OrderID         string    `json:"order_id"`
	CustomOrderID   string    `json:"custom_order_id,omitempty"`
	PlanID          string    `json:"plan_id"`
	CDK             string    `json:"cdk"`
	ExpiredAt       time.Time `json:"expired_at"`
	LatestExpiredAt time.Time `json:"latest_expired_at"`
	Transferred     int       `json:"transferred"`
}

func orderViewFrom(info *usecase.OrderInfo) orderView {
	b := info.Bill
	return orderView{
		Platform:        b.Platform,
		OrderID:         b.OrderID,
		CustomOrderID:   b.CustomOrderID,
		PlanID:          b.PlanID,
		CDK:             b.CDK,
		ExpiredAt:       b.ExpiredAt,
		LatestExpiredAt: info.LatestExpiredAt,
		Transferred:     b.Transferred,
	}
}

func (s *Server) handleOrderQuery(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("order_id")
	if id == "" {
		id = r.URL.Query().Get("custom_order_id")
	}
	if id == "" {
		writeOrder(w, http.StatusBadRequest, "order_id required", nil)
		return
	}

	info, err := s.queryUC.Query(r.Context(), id)
	if err != nil {
		writeOrder(w, errorCode(err), err.Error(), nil)
		return
	}
	writeOrder(w, http.StatusOK, "ok", orderViewFrom(info))
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		writeOrder(w, http.StatusBadRequest, "from and to required", nil)
		return
	}

	dest, err := s.transferUC.Transfer(r.Context(), from, to)
	if err != nil {
		writeOrder(w, errorCode(err), err.Error(), nil)
		return
	}
	writeOrder(w, http.StatusOK, "ok", orderView{
		Platform:        dest.Platform,
		OrderID:         dest.OrderID,
		CustomOrderID:   dest.CustomOrderID,
		PlanID:          dest.PlanID,
		CDK:             dest.CDK,
		ExpiredAt:       dest.ExpiredAt,
		LatestExpiredAt: dest.ExpiredAt,
		Transferred:     dest.Transferred,
	})
}

func (s *Server) handleYimapayCreate(w http.ResponseWriter, r *http.Request) {
	pay := r.URL.Query().Get("pay")
	planID := r.URL.Query().Get("plan_id")
	if pay == "" || planID == "" {
		writeOrder(w, http.StatusBadRequest, "pay and plan_id required", nil)
		return
	}

	co, err := s.checkoutUC.Create(r.Context(), planID, pay, r.RemoteAddr)
	if err != nil {
		writeOrder(w, errorCode(err), err.Error(), nil)
		return
	}
	writeOrder(w, http.StatusOK, "ok", map[string]interface{}{
		"custom_order_id": co.CustomOrderID,
		"pay_url":         co.PayURL,
		"expire_minutes":  co.ExpireMinutes,
	})
}

type afdianWebhookPayload struct {
	Data struct {
		Order struct {
			OutTradeNo string `json:"out_trade_no"`
		} `json:"order"`
	} `json:"data"`
}

func (s *Server) handleAfdianWebhook(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "secret") != s.afdianWebhookSecret {
		http.NotFound(w, r)
		return
	}

	var payload afdianWebhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeEvent(w, http.StatusBadRequest, "invalid payload", nil)
		return
	}
	outTradeNo := payload.Data.Order.OutTradeNo
	if outTradeNo == "" {
		writeEvent(w, http.StatusBadRequest, "out_trade_no missing", nil)
		return
	}

	// The platform's connectivity test replays a fixed order; acknowledge
	// without touching state.
	if s.testOutTradeNo != "" && outTradeNo == s.testOutTradeNo {
		writeEvent(w, http.StatusOK, "ok", nil)
		return
	}

	if _, _, err := s.ingestUC.ProcessPlatformOrder(r.Context(), model.PlatformAfdian, outTradeNo); err != nil {
		s.log.Error().Err(err).Str("out_trade_no", outTradeNo).Msg("afdian webhook ingest failed")
		writeEvent(w, errorCode(err), err.Error(), nil)
		return
	}
	writeEvent(w, http.StatusOK, "ok", nil)
}

type yimapayWebhookPayload struct {
	AppID   string `json:"app_id"`
	TradeNo string `json:"trade_no"`
}

func (s *Server) handleYimapayWebhook(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "secret") != s.yimapayWebhookSecret {
		http.NotFound(w, r)
		return
	}

	// The provider notifies via query parameters. A JSON body is accepted
	// as a fallback for manual replays.
	appID := r.URL.Query().Get("app_id")
	tradeNo := r.URL.Query().Get("trade_no")
	if tradeNo == "" {
		var payload yimapayWebhookPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err == nil {
			appID, tradeNo = payload.AppID, payload.TradeNo
		}
	}
	if appID != s.yimapayAppID || tradeNo == "" {
		writeYimapayAck(w, false, "app_id mismatch")
		return
	}

	if _, _, err := s.ingestUC.ProcessPlatformOrder(r.Context(), model.PlatformYimapay, tradeNo); err != nil {
		s.log.Error().Err(err).Str("trade_no", tradeNo).Msg("yimapay webhook ingest failed")
		writeYimapayAck(w, false, err.Error())
		return
	}
	writeYimapayAck(w, true, "")
}
