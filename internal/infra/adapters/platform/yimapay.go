// File: internal/infra/adapters/platform/yimapay.go
package platform

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"cdk-billing/internal/config"
	"cdk-billing/internal/domain"
	"cdk-billing/internal/domain/model"
	"cdk-billing/internal/domain/ports/adapter"
	"cdk-billing/internal/infra/metrics"
)

var _ adapter.OrderFetcher = (*YimapayAdapter)(nil)
var _ adapter.CheckoutGateway = (*YimapayAdapter)(nil)

// orderExpiryMinutes is the payment window handed to the provider.
const orderExpiryMinutes = 60

const timeLayout = "2006-01-02 15:04:05"

// YimapayAdapter covers both directions of the Yimapay integration:
// creating payment orders and querying their settled state. Requests are
// signed by joining sorted non-empty params as k=v&, appending &key=secret,
// and MD5-hashing to an uppercase digest placed in the `sign` param.
type YimapayAdapter struct {
	appID          string
	secretKey      string
	createOrderAPI string
	queryOrderAPI  string
	notifyURL      string
	webhookSecret  string
	http           *http.Client
	retry          RetryPolicy
	notifier       adapter.ExceptionNotifier
	log            *zerolog.Logger
	now            func() time.Time
}

func NewYimapayAdapter(cfg config.YimapayConfig, retry RetryPolicy, notifier adapter.ExceptionNotifier, logger *zerolog.Logger) *YimapayAdapter {
	return &YimapayAdapter{
		appID:          cfg.AppID,
		secretKey:      cfg.SecretKey,
		createOrderAPI: cfg.CreateOrderAPI,
		queryOrderAPI:  cfg.QueryOrderAPI,
		notifyURL:      cfg.NotifyURL,
		webhookSecret:  cfg.WebhookSecret,
		http:           &http.Client{Timeout: 15 * time.Second},
		retry:          retry,
		notifier:       notifier,
		log:            logger,
		now:            time.Now,
	}
}

func (y *YimapayAdapter) Platform() string { return model.PlatformYimapay }

// Sign implements the provider's sorted-parameter digest. Empty values and
// the sign param itself are excluded; signing must be the last step.
func Sign(params map[string]string, secretKey string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if k == "sign" || v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+params[k])
	}
	base := strings.Join(parts, "&") + "&key=" + secretKey
	digest := md5.Sum([]byte(base))
	return strings.ToUpper(hex.EncodeToString(digest[:]))
}

type yimapayData struct {
	TradeNo    string `json:"trade_no"`
	OutTradeNo string `json:"out_trade_no"`
	TradeState string `json:"trade_state"`
	Attach     string `json:"attach"`
	Amount     int64  `json:"amount"` // minor units
	PayTime    string `json:"pay_time"`
	ClientIP   string `json:"client_ip"`
	Body       string `json:"body"` // pay url on create
}

type yimapayResponse struct {
	ResultCode int         `json:"resultCode"`
	Data       yimapayData `json:"Data"`
}

// FetchOrder queries a settled order by its provider trade number.
func (y *YimapayAdapter) FetchOrder(ctx context.Context, nativeOrderID string) (*model.OrderData, error) {
	params := map[string]string{
		"trade_no":     nativeOrderID,
		"out_trade_no": "",
	}
	raw, resp, err := y.query(ctx, y.queryOrderAPI, params)
	if err != nil {
		return nil, err
	}
	if resp.ResultCode != 200 {
		y.log.Error().Str("trade_no", nativeOrderID).Int("result_code", resp.ResultCode).Msg("yimapay order not found")
		return nil, domain.ErrOrderNotFound
	}
	return y.normalize(raw, resp.Data)
}

// FetchOrderByCustomID queries by the merchant-side order id instead.
func (y *YimapayAdapter) FetchOrderByCustomID(ctx context.Context, customOrderID string) (*model.OrderData, error) {
	params := map[string]string{
		"trade_no":     "",
		"out_trade_no": customOrderID,
	}
	raw, resp, err := y.query(ctx, y.queryOrderAPI, params)
	if err != nil {
		return nil, err
	}
	if resp.ResultCode != 200 {
		y.log.Error().Str("out_trade_no", customOrderID).Int("result_code", resp.ResultCode).Msg("yimapay order not found")
		return nil, domain.ErrOrderNotFound
	}
	return y.normalize(raw, resp.Data)
}

func (y *YimapayAdapter) normalize(raw []byte, data yimapayData) (*model.OrderData, error) {
	if data.TradeState != "success" {
		y.log.Warn().Str("trade_no", data.TradeNo).Str("trade_state", data.TradeState).Msg("order not paid")
		return nil, domain.ErrOrderNotPaid
	}

	unescaped, err := url.QueryUnescape(data.Attach)
	if err != nil {
		unescaped = data.Attach
	}
	var attach struct {
		PlanID string `json:"plan_id"`
	}
	if err := json.Unmarshal([]byte(unescaped), &attach); err != nil || attach.PlanID == "" {
		y.log.Error().Str("trade_no", data.TradeNo).Str("attach", data.Attach).Msg("attach has no plan_id")
		return nil, domain.ErrNotAnOrder
	}

	// minor units to a fixed-point amount string
	amount := decimal.NewFromInt(data.Amount).Shift(-2).StringFixed(2)

	createdAt, err := time.ParseInLocation(timeLayout, data.PayTime, time.Local)
	if err != nil {
		y.log.Error().Str("pay_time", data.PayTime).Msg("invalid pay_time format")
		createdAt = y.now()
	}

	return &model.OrderData{
		Platform:        model.PlatformYimapay,
		PlatformTradeNo: data.TradeNo,
		CustomOrderID:   data.OutTradeNo,
		PlanID:          attach.PlanID,
		UserID:          data.ClientIP,
		CreatedAt:       createdAt,
		BuyCount:        1,
		ActuallyPaid:    amount,
		OriginalPrice:   amount, // list price is not reported; assume no discount
		RawData:         string(raw),
	}, nil
}

// CreateOrder opens a payment order with the provider and returns the pay
// URL the buyer is redirected to.
func (y *YimapayAdapter) CreateOrder(ctx context.Context, plan *model.Plan, payType int, clientIP, customOrderID string) (string, error) {
	attach, _ := json.Marshal(map[string]string{"plan_id": plan.PlanID})
	params := map[string]string{
		"out_trade_no": customOrderID,
		"pay_type":     fmt.Sprintf("%d", payType),
		"description":  plan.Title,
		"amount":       fmt.Sprintf("%d", plan.AmountMinor),
		"client_ip":    clientIP,
		"time_expire":  fmt.Sprintf("%d", orderExpiryMinutes),
		"notify_url":   y.notifyURL + y.webhookSecret,
		"attach":       string(attach),
	}
	_, resp, err := y.query(ctx, y.createOrderAPI, params)
	if err != nil {
		return "", err
	}
	if resp.ResultCode != 200 {
		y.log.Error().Str("out_trade_no", customOrderID).Int("result_code", resp.ResultCode).Msg("create order failed")
		return "", domain.ErrPlatformQuery
	}
	if resp.Data.Body == "" {
		y.log.Error().Str("out_trade_no", customOrderID).Msg("pay url missing")
		return "", domain.ErrPlatformQuery
	}
	return resp.Data.Body, nil
}

// PayWindowMinutes reports the provider-side payment window.
func (y *YimapayAdapter) PayWindowMinutes() int { return orderExpiryMinutes }

// query signs params and posts them as a query string, retrying transient
// transport failures with the shared policy.
func (y *YimapayAdapter) query(ctx context.Context, api string, params map[string]string) ([]byte, *yimapayResponse, error) {
	params["app_id"] = y.appID
	params["sign"] = Sign(params, y.secretKey) // signing must be the last step

	u, err := url.Parse(api)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrPlatformQuery, err)
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()

	var raw []byte
	start := time.Now()
	err = y.retry.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), nil)
		if err != nil {
			return err
		}
		resp, err := y.http.Do(req)
		if err != nil {
			y.log.Error().Err(err).Str("url", api).Msg("yimapay query failed")
			y.notifier.Notify(ctx, "yimapay", err)
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("http %d", resp.StatusCode)
			y.notifier.Notify(ctx, "yimapay", err)
			return err
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		raw = body
		return nil
	})
	metrics.ObservePlatformQuery(model.PlatformYimapay, err == nil, float64(time.Since(start).Milliseconds()))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrPlatformQuery, err)
	}

	out := new(yimapayResponse)
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, nil, fmt.Errorf("%w: decode: %v", domain.ErrPlatformQuery, err)
	}
	return raw, out, nil
}
