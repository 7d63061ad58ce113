// File: internal/infra/web/envelope.go
package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"cdk-billing/internal/domain"
)

// The service speaks two historical envelope dialects: order-facing
// endpoints use {"ec","msg","data"}, event-facing ones (webhooks,
// check-in) use {"ec","em"}. The yimapay webhook has its own provider
// mandated {"code":"SUCCESS"|"FAIL"} shape. The HTTP status is always
// 200; callers read ec.

type orderEnvelope struct {
	EC   int         `json:"ec"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data,omitempty"`
}

type eventEnvelope struct {
	EC   int         `json:"ec"`
	EM   string      `json:"em"`
	Data interface{} `json:"data,omitempty"`
}

type yimapayEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeOrder(w http.ResponseWriter, ec int, msg string, data interface{}) {
	writeJSON(w, http.StatusOK, orderEnvelope{EC: ec, Msg: msg, Data: data})
}

func writeEvent(w http.ResponseWriter, ec int, em string, data interface{}) {
	writeJSON(w, http.StatusOK, eventEnvelope{EC: ec, EM: em, Data: data})
}

func writeYimapayAck(w http.ResponseWriter, ok bool, message string) {
	code := "SUCCESS"
	if !ok {
		code = "FAIL"
	}
	writeJSON(w, http.StatusOK, yimapayEnvelope{Code: code, Message: message})
}

// errorCode maps domain errors onto the ec field.
func errorCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrRewardNotFound),
		errors.Is(err, domain.ErrPlanNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyTransferred),
		errors.Is(err, domain.ErrSameCDK),
		errors.Is(err, domain.ErrOrderTooOld),
		errors.Is(err, domain.ErrRewardAlreadyGiven),
		errors.Is(err, domain.ErrRewardExhausted),
		errors.Is(err, domain.ErrRewardExpired),
		errors.Is(err, domain.ErrRewardNotStarted),
		errors.Is(err, domain.ErrDestinationIneligible),
		errors.Is(err, domain.ErrOrderNotPaid),
		errors.Is(err, domain.ErrNotAnOrder):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
