//go:build !integration

package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cdk-billing/internal/domain"
	"cdk-billing/internal/domain/model"
	"cdk-billing/internal/usecase"
)

func doRequest(t *testing.T, s *Server, method, target string, body []byte, mutate func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, rd)
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	NewRouter(s).ServeHTTP(rec, req)
	return rec
}

func decodeOrder(t *testing.T, rec *httptest.ResponseRecorder) orderEnvelope {
	t.Helper()
	var env orderEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode order envelope: %v (body %q)", err, rec.Body.String())
	}
	return env
}

func decodeEvent(t *testing.T, rec *httptest.ResponseRecorder) eventEnvelope {
	t.Helper()
	var env eventEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode event envelope: %v (body %q)", err, rec.Body.String())
	}
	return env
}

func TestHealthAndPricing(t *testing.T) {
	s := newTestServer(newTestUCs())

	t.Run("health returns ok", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/health", nil, nil)
		if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
			t.Fatalf("got %d %q", rec.Code, rec.Body.String())
		}
	})

	t.Run("pricing redirects to configured url", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/pricing", nil, nil)
		if rec.Code != http.StatusTemporaryRedirect {
			t.Fatalf("expected 307, got %d", rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "https://pricing.example/plans" {
			t.Fatalf("unexpected location %q", loc)
		}
	})
}

func TestOrderQueryHandler(t *testing.T) {
	t.Run("returns order view on success", func(t *testing.T) {
		ucs := newTestUCs()
		exp := time.Now().Add(24 * time.Hour).Truncate(time.Second)
		ucs.query.QueryFunc = func(_ context.Context, orderID string) (*usecase.OrderInfo, error) {
			if orderID != "202501010000000000000000001" {
				t.Fatalf("unexpected order id %q", orderID)
			}
			return &usecase.OrderInfo{
				Bill: &model.Bill{
					Platform:  model.PlatformAfdian,
					OrderID:   orderID,
					PlanID:    "plan-1",
					CDK:       "cdk-a",
					ExpiredAt: exp,
				},
				LatestExpiredAt: exp,
			}, nil
		}
		s := newTestServer(ucs)

		rec := doRequest(t, s, http.MethodGet, "/order/query?order_id=202501010000000000000000001", nil, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("http status %d", rec.Code)
		}
		env := decodeOrder(t, rec)
		if env.EC != http.StatusOK {
			t.Fatalf("ec = %d, msg %q", env.EC, env.Msg)
		}
		data, _ := env.Data.(map[string]interface{})
		if data["cdk"] != "cdk-a" || data["plan_id"] != "plan-1" {
			t.Fatalf("unexpected data %v", env.Data)
		}
	})

	t.Run("accepts custom_order_id parameter", func(t *testing.T) {
		ucs := newTestUCs()
		var got string
		ucs.query.QueryFunc = func(_ context.Context, orderID string) (*usecase.OrderInfo, error) {
			got = orderID
			return nil, domain.ErrOrderNotFound
		}
		s := newTestServer(ucs)

		doRequest(t, s, http.MethodGet, "/order/query?custom_order_id=20250101120000abcdefghjkmnpqrstv", nil, nil)
		if got != "20250101120000abcdefghjkmnpqrstv" {
			t.Fatalf("query received %q", got)
		}
	})

	t.Run("missing id yields ec 400", func(t *testing.T) {
		s := newTestServer(newTestUCs())
		rec := doRequest(t, s, http.MethodGet, "/order/query", nil, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("http status should stay 200, got %d", rec.Code)
		}
		if env := decodeOrder(t, rec); env.EC != http.StatusBadRequest {
			t.Fatalf("ec = %d", env.EC)
		}
	})

	t.Run("not found maps to ec 404", func(t *testing.T) {
		s := newTestServer(newTestUCs())
		rec := doRequest(t, s, http.MethodGet, "/order/query?order_id=whatever", nil, nil)
		if env := decodeOrder(t, rec); env.EC != http.StatusNotFound {
			t.Fatalf("ec = %d", env.EC)
		}
	})
}

func TestTransferHandler(t *testing.T) {
	t.Run("returns destination view", func(t *testing.T) {
		ucs := newTestUCs()
		ucs.transfer.TransferFunc = func(_ context.Context, sourceID, destID string) (*model.Bill, error) {
			if sourceID != "from-1" || destID != "to-1" {
				t.Fatalf("got %q -> %q", sourceID, destID)
			}
			return &model.Bill{Platform: model.PlatformAfdian, OrderID: destID, CDK: "cdk-b", Transferred: 1}, nil
		}
		s := newTestServer(ucs)

		rec := doRequest(t, s, http.MethodGet, "/order/transfer?from=from-1&to=to-1", nil, nil)
		env := decodeOrder(t, rec)
		if env.EC != http.StatusOK {
			t.Fatalf("ec = %d, msg %q", env.EC, env.Msg)
		}
		data, _ := env.Data.(map[string]interface{})
		if data["cdk"] != "cdk-b" || data["transferred"] != float64(1) {
			t.Fatalf("unexpected data %v", env.Data)
		}
	})

	t.Run("conflict errors map to ec 409", func(t *testing.T) {
		ucs := newTestUCs()
		ucs.transfer.TransferFunc = func(context.Context, string, string) (*model.Bill, error) {
			return nil, domain.ErrAlreadyTransferred
		}
		s := newTestServer(ucs)

		rec := doRequest(t, s, http.MethodGet, "/order/transfer?from=a&to=b", nil, nil)
		if env := decodeOrder(t, rec); env.EC != http.StatusConflict {
			t.Fatalf("ec = %d", env.EC)
		}
	})

	t.Run("missing params yield ec 400", func(t *testing.T) {
		s := newTestServer(newTestUCs())
		rec := doRequest(t, s, http.MethodGet, "/order/transfer?from=a", nil, nil)
		if env := decodeOrder(t, rec); env.EC != http.StatusBadRequest {
			t.Fatalf("ec = %d", env.EC)
		}
	})
}

func TestYimapayCreateHandler(t *testing.T) {
	ucs := newTestUCs()
	ucs.checkout.CreateFunc = func(_ context.Context, planID, payMethod, clientIP string) (*usecase.Checkout, error) {
		if planID != "plan-y" || payMethod != "wechat_qrcode" {
			t.Fatalf("got plan %q pay %q", planID, payMethod)
		}
		return &usecase.Checkout{CustomOrderID: "custom-1", PayURL: "https://pay.example/qr", ExpireMinutes: 60}, nil
	}
	s := newTestServer(ucs)

	rec := doRequest(t, s, http.MethodGet, "/order/yimapay/create?pay=wechat_qrcode&plan_id=plan-y", nil, nil)
	env := decodeOrder(t, rec)
	if env.EC != http.StatusOK {
		t.Fatalf("ec = %d, msg %q", env.EC, env.Msg)
	}
	data, _ := env.Data.(map[string]interface{})
	if data["pay_url"] != "https://pay.example/qr" || data["custom_order_id"] != "custom-1" {
		t.Fatalf("unexpected data %v", env.Data)
	}
}

func TestAfdianWebhook(t *testing.T) {
	payload := func(outTradeNo string) []byte {
		b, _ := json.Marshal(map[string]interface{}{
			"data": map[string]interface{}{
				"order": map[string]interface{}{"out_trade_no": outTradeNo},
			},
		})
		return b
	}

	t.Run("wrong secret is 404", func(t *testing.T) {
		ucs := newTestUCs()
		s := newTestServer(ucs)
		rec := doRequest(t, s, http.MethodPost, "/order/afdian/webhook/wrong", payload("202501010000000000000000001"), nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("got %d", rec.Code)
		}
		if len(ucs.ingest.Calls) != 0 {
			t.Fatal("ingest must not run for unauthenticated webhooks")
		}
	})

	t.Run("connectivity test order acks without ingesting", func(t *testing.T) {
		ucs := newTestUCs()
		s := newTestServer(ucs)
		rec := doRequest(t, s, http.MethodPost, "/order/afdian/webhook/afdian-hook", payload("202505200000000000000000000"), nil)
		if env := decodeEvent(t, rec); env.EC != http.StatusOK || env.EM != "ok" {
			t.Fatalf("got ec %d em %q", env.EC, env.EM)
		}
		if len(ucs.ingest.Calls) != 0 {
			t.Fatal("test order must not reach the ingest path")
		}
	})

	t.Run("real order is ingested", func(t *testing.T) {
		ucs := newTestUCs()
		s := newTestServer(ucs)
		rec := doRequest(t, s, http.MethodPost, "/order/afdian/webhook/afdian-hook", payload("202501010000000000000000001"), nil)
		if env := decodeEvent(t, rec); env.EC != http.StatusOK {
			t.Fatalf("ec = %d em %q", env.EC, env.EM)
		}
		want := model.PlatformAfdian + "/202501010000000000000000001"
		if len(ucs.ingest.Calls) != 1 || ucs.ingest.Calls[0] != want {
			t.Fatalf("ingest calls %v", ucs.ingest.Calls)
		}
	})

	t.Run("ingest failure surfaces in the envelope", func(t *testing.T) {
		ucs := newTestUCs()
		ucs.ingest.ProcessPlatformOrderFunc = func(context.Context, string, string) (*model.Bill, bool, error) {
			return nil, false, domain.ErrPlanNotFound
		}
		s := newTestServer(ucs)
		rec := doRequest(t, s, http.MethodPost, "/order/afdian/webhook/afdian-hook", payload("202501010000000000000000001"), nil)
		if env := decodeEvent(t, rec); env.EC != http.StatusNotFound {
			t.Fatalf("ec = %d", env.EC)
		}
	})

	t.Run("missing out_trade_no is ec 400", func(t *testing.T) {
		s := newTestServer(newTestUCs())
		rec := doRequest(t, s, http.MethodPost, "/order/afdian/webhook/afdian-hook", []byte(`{"data":{}}`), nil)
		if env := decodeEvent(t, rec); env.EC != http.StatusBadRequest {
			t.Fatalf("ec = %d", env.EC)
		}
	})
}

func TestYimapayWebhook(t *testing.T) {
	payload := func(appID, tradeNo string) []byte {
		b, _ := json.Marshal(map[string]string{"app_id": appID, "trade_no": tradeNo})
		return b
	}
	ack := func(t *testing.T, rec *httptest.ResponseRecorder) yimapayEnvelope {
		t.Helper()
		var env yimapayEnvelope
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode ack: %v", err)
		}
		return env
	}

	t.Run("wrong secret is 404", func(t *testing.T) {
		s := newTestServer(newTestUCs())
		rec := doRequest(t, s, http.MethodPost, "/order/yimapay/webhook/guess", payload("app-1", "YMF2025010112000000001"), nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("got %d", rec.Code)
		}
	})

	t.Run("app_id mismatch fails the ack", func(t *testing.T) {
		ucs := newTestUCs()
		s := newTestServer(ucs)
		rec := doRequest(t, s, http.MethodPost, "/order/yimapay/webhook/yimapay-hook?app_id=other-app&trade_no=YMF2025010112000000001", nil, nil)
		if env := ack(t, rec); env.Code != "FAIL" {
			t.Fatalf("code = %q", env.Code)
		}
		if len(ucs.ingest.Calls) != 0 {
			t.Fatal("mismatched app_id must not be ingested")
		}
	})

	t.Run("paid order acks SUCCESS", func(t *testing.T) {
		ucs := newTestUCs()
		s := newTestServer(ucs)
		rec := doRequest(t, s, http.MethodPost, "/order/yimapay/webhook/yimapay-hook?app_id=app-1&trade_no=YMF2025010112000000001", nil, nil)
		if env := ack(t, rec); env.Code != "SUCCESS" {
			t.Fatalf("code = %q message %q", env.Code, env.Message)
		}
		want := model.PlatformYimapay + "/YMF2025010112000000001"
		if len(ucs.ingest.Calls) != 1 || ucs.ingest.Calls[0] != want {
			t.Fatalf("ingest calls %v", ucs.ingest.Calls)
		}
	})

	t.Run("JSON body is accepted as a fallback", func(t *testing.T) {
		ucs := newTestUCs()
		s := newTestServer(ucs)
		rec := doRequest(t, s, http.MethodPost, "/order/yimapay/webhook/yimapay-hook", payload("app-1", "YMF2025010112000000001"), nil)
		if env := ack(t, rec); env.Code != "SUCCESS" {
			t.Fatalf("code = %q message %q", env.Code, env.Message)
		}
		if len(ucs.ingest.Calls) != 1 {
			t.Fatalf("ingest calls %v", ucs.ingest.Calls)
		}
	})

	t.Run("ingest failure acks FAIL so the provider retries", func(t *testing.T) {
		ucs := newTestUCs()
		ucs.ingest.ProcessPlatformOrderFunc = func(context.Context, string, string) (*model.Bill, bool, error) {
			return nil, false, domain.ErrOrderNotPaid
		}
		s := newTestServer(ucs)
		rec := doRequest(t, s, http.MethodPost, "/order/yimapay/webhook/yimapay-hook?app_id=app-1&trade_no=YMF2025010112000000001", nil, nil)
		if env := ack(t, rec); env.Code != "FAIL" {
			t.Fatalf("code = %q", env.Code)
		}
	})
}

func TestCheckInHandler(t *testing.T) {
	t.Run("wrong secret is 404", func(t *testing.T) {
		s := newTestServer(newTestUCs())
		rec := doRequest(t, s, http.MethodPost, "/check_in/nope", []byte(`{"cdk":"cdk-a"}`), nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("got %d", rec.Code)
		}
	})

	t.Run("single activation carries the user agent", func(t *testing.T) {
		ucs := newTestUCs()
		s := newTestServer(ucs)
		body := []byte(`{"cdk":"cdk-a","application":"app-1","module":"core"}`)
		rec := doRequest(t, s, http.MethodPost, "/check_in/checkin-secret", body, func(r *http.Request) {
			r.Header.Set("User-Agent", "client/1.2")
		})
		if env := decodeEvent(t, rec); env.EC != http.StatusOK {
			t.Fatalf("ec = %d em %q", env.EC, env.EM)
		}
		if len(ucs.checkIn.Inputs) != 1 {
			t.Fatalf("recorded %d inputs", len(ucs.checkIn.Inputs))
		}
		in := ucs.checkIn.Inputs[0]
		if in.CDK != "cdk-a" || in.Application != "app-1" || in.UserAgent != "client/1.2" {
			t.Fatalf("unexpected input %+v", in)
		}
	})

	t.Run("batch records every item", func(t *testing.T) {
		ucs := newTestUCs()
		s := newTestServer(ucs)
		body := []byte(`{"items":[{"cdk":"cdk-a","application":"app-1"},{"cdk":"cdk-b","application":"app-1"}]}`)
		rec := doRequest(t, s, http.MethodPost, "/check_in/checkin-secret", body, nil)
		if env := decodeEvent(t, rec); env.EC != http.StatusOK {
			t.Fatalf("ec = %d", env.EC)
		}
		if len(ucs.checkIn.Inputs) != 2 {
			t.Fatalf("recorded %d inputs", len(ucs.checkIn.Inputs))
		}
	})

	t.Run("unknown code maps to ec 404 with the offending cdk", func(t *testing.T) {
		ucs := newTestUCs()
		ucs.checkIn.RecordFunc = func(_ context.Context, in usecase.CheckInInput) (*model.CheckIn, bool, error) {
			if in.CDK == "cdk-bad" {
				return nil, false, domain.ErrNotFound
			}
			return &model.CheckIn{CDK: in.CDK}, true, nil
		}
		s := newTestServer(ucs)
		body := []byte(`{"items":[{"cdk":"cdk-a"},{"cdk":"cdk-bad"}]}`)
		rec := doRequest(t, s, http.MethodPost, "/check_in/checkin-secret", body, nil)
		env := decodeEvent(t, rec)
		if env.EC != http.StatusNotFound {
			t.Fatalf("ec = %d", env.EC)
		}
		data, _ := env.Data.(map[string]interface{})
		if data["cdk"] != "cdk-bad" {
			t.Fatalf("unexpected data %v", env.Data)
		}
	})

	t.Run("garbage payload is ec 400", func(t *testing.T) {
		s := newTestServer(newTestUCs())
		rec := doRequest(t, s, http.MethodPost, "/check_in/checkin-secret", []byte(`{{`), nil)
		if env := decodeEvent(t, rec); env.EC != http.StatusBadRequest {
			t.Fatalf("ec = %d", env.EC)
		}
	})
}

func TestRevenueHandler(t *testing.T) {
	t.Run("forwards scope token and month", func(t *testing.T) {
		ucs := newTestUCs()
		ucs.revenue.SummaryFunc = func(_ context.Context, scope, token, month string) (*usecase.RevenueReport, error) {
			if scope != "app-1" || token != "tok-1" || month != "2026-07" {
				t.Fatalf("got scope %q token %q month %q", scope, token, month)
			}
			return &usecase.RevenueReport{Scope: scope, Month: month, Total: "12.34", Orders: 3, Activations: 5}, nil
		}
		s := newTestServer(ucs)

		rec := doRequest(t, s, http.MethodGet, "/revenue?rid=app-1&month=2026-07", nil, func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer tok-1")
		})
		env := decodeOrder(t, rec)
		if env.EC != http.StatusOK {
			t.Fatalf("ec = %d msg %q", env.EC, env.Msg)
		}
		data, _ := env.Data.(map[string]interface{})
		if data["total"] != "12.34" {
			t.Fatalf("unexpected data %v", env.Data)
		}
	})

	t.Run("rejected token maps to ec 401", func(t *testing.T) {
		s := newTestServer(newTestUCs())
		rec := doRequest(t, s, http.MethodGet, "/revenue?rid=app-1", nil, nil)
		if env := decodeOrder(t, rec); env.EC != http.StatusUnauthorized {
			t.Fatalf("ec = %d", env.EC)
		}
	})

	t.Run("missing rid is ec 400", func(t *testing.T) {
		s := newTestServer(newTestUCs())
		rec := doRequest(t, s, http.MethodGet, "/revenue", nil, nil)
		if env := decodeOrder(t, rec); env.EC != http.StatusBadRequest {
			t.Fatalf("ec = %d", env.EC)
		}
	})
}

func TestRewardStatusHandler(t *testing.T) {
	ucs := newTestUCs()
	ucs.reward.StatusFunc = func(_ context.Context, rewardKey string) (*usecase.RewardStatus, error) {
		if rewardKey != "launch-gift" {
			return nil, domain.ErrRewardNotFound
		}
		return &usecase.RewardStatus{RewardKey: rewardKey, ValidDays: 7, Remaining: 10, Active: true}, nil
	}
	s := newTestServer(ucs)

	t.Run("known key returns status", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/reward?reward_key=launch-gift", nil, nil)
		env := decodeOrder(t, rec)
		if env.EC != http.StatusOK {
			t.Fatalf("ec = %d", env.EC)
		}
		data, _ := env.Data.(map[string]interface{})
		if data["active"] != true || data["remaining"] != float64(10) {
			t.Fatalf("unexpected data %v", env.Data)
		}
	})

	t.Run("unknown key maps to ec 404", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/reward?reward_key=other", nil, nil)
		if env := decodeOrder(t, rec); env.EC != http.StatusNotFound {
			t.Fatalf("ec = %d", env.EC)
		}
	})
}

func TestAdminAuthFlow(t *testing.T) {
	s := newTestServer(newTestUCs())

	login := func(t *testing.T, apiKey string) *httptest.ResponseRecorder {
		t.Helper()
		body, _ := json.Marshal(map[string]string{"api_key": apiKey})
		return doRequest(t, s, http.MethodPost, "/api/v1/login", body, nil)
	}

	t.Run("wrong api key is forbidden", func(t *testing.T) {
		if rec := login(t, "guess"); rec.Code != http.StatusForbidden {
			t.Fatalf("got %d", rec.Code)
		}
	})

	t.Run("no token is unauthorized", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/api/v1/plans", nil, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("got %d", rec.Code)
		}
	})

	t.Run("garbage token is forbidden", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/api/v1/plans", nil, func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer not-a-jwt")
		})
		if rec.Code != http.StatusForbidden {
			t.Fatalf("got %d", rec.Code)
		}
	})

	t.Run("minted token opens the admin API", func(t *testing.T) {
		rec := login(t, "admin-key")
		if rec.Code != http.StatusOK {
			t.Fatalf("login failed with %d", rec.Code)
		}
		var resp map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp["token"] == "" {
			t.Fatalf("no token in %q", rec.Body.String())
		}
		if !strings.Contains(rec.Header().Get("Set-Cookie"), "admin_session=") {
			t.Fatal("session cookie not set")
		}

		listRec := doRequest(t, s, http.MethodGet, "/api/v1/plans", nil, func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+resp["token"])
		})
		if listRec.Code != http.StatusOK {
			t.Fatalf("plan list got %d", listRec.Code)
		}
	})
}

func TestAdminPlanHandlers(t *testing.T) {
	ucs := newTestUCs()
	s := newTestServer(ucs)

	rec := httptest.NewRecorder()
	token, err := s.auth.Mint(rec)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	withToken := func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }

	t.Run("save echoes the plan", func(t *testing.T) {
		var saved *model.Plan
		ucs.plan.SaveFunc = func(_ context.Context, plan *model.Plan) error {
			saved = plan
			return nil
		}
		body, _ := json.Marshal(map[string]interface{}{
			"platform": model.PlatformYimapay, "plan_id": "plan-y",
			"title": "Monthly", "valid_days": 30, "app_group": "grp", "amount_minor": 800,
		})
		rec := doRequest(t, s, http.MethodPost, "/api/v1/plans", body, withToken)
		if rec.Code != http.StatusCreated {
			t.Fatalf("got %d body %q", rec.Code, rec.Body.String())
		}
		if saved == nil || saved.PlanID != "plan-y" || saved.AmountMinor != 800 {
			t.Fatalf("saved %+v", saved)
		}
	})

	t.Run("invalid plan is 400", func(t *testing.T) {
		ucs.plan.SaveFunc = func(context.Context, *model.Plan) error { return domain.ErrInvalidArgument }
		rec := doRequest(t, s, http.MethodPost, "/api/v1/plans", []byte(`{}`), withToken)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("got %d", rec.Code)
		}
	})

	t.Run("delete missing plan is 404", func(t *testing.T) {
		ucs.plan.DeleteFunc = func(_ context.Context, platform, planID string) error {
			if platform != model.PlatformYimapay || planID != "plan-x" {
				t.Fatalf("got %q/%q", platform, planID)
			}
			return domain.ErrNotFound
		}
		rec := doRequest(t, s, http.MethodDelete, "/api/v1/plans/yimapay/plan-x", nil, withToken)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("got %d", rec.Code)
		}
	})
}
