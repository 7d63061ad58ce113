// File: internal/infra/adapters/platform/afdian.go
package platform

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"cdk-billing/internal/config"
	"cdk-billing/internal/domain"
	"cdk-billing/internal/domain/model"
	"cdk-billing/internal/domain/ports/adapter"
	"cdk-billing/internal/infra/metrics"
)

var _ adapter.OrderFetcher = (*AfdianAdapter)(nil)

// AfdianAdapter queries the Afdian open API for one order and normalizes
// it into canonical OrderData. The API signs each request with
// md5(token + "params" + <json> + "ts" + <unix ts> + "user_id" + <uid>),
// so every signature is timestamp-bound.
type AfdianAdapter struct {
	queryOrderAPI string
	userID        string
	apiToken      string
	http          *http.Client
	retry         RetryPolicy
	notifier      adapter.ExceptionNotifier
	log           *zerolog.Logger
	now           func() time.Time
}

func NewAfdianAdapter(cfg config.AfdianConfig, retry RetryPolicy, notifier adapter.ExceptionNotifier, logger *zerolog.Logger) *AfdianAdapter {
	return &AfdianAdapter{
		queryOrderAPI: cfg.QueryOrderAPI,
		userID:        cfg.UserID,
		apiToken:      cfg.APIToken,
		http:          &http.Client{Timeout: 15 * time.Second},
		retry:         retry,
		notifier:      notifier,
		log:           logger,
		now:           time.Now,
	}
}

func (a *AfdianAdapter) Platform() string { return model.PlatformAfdian }

type afdianOrder struct {
	OutTradeNo  string `json:"out_trade_no"`
	CustomID    string `json:"custom_order_id"`
	PlanID      string `json:"plan_id"`
	UserID      string `json:"user_id"`
	Status      int    `json:"status"`       // 2 = paid
	ProductType int    `json:"product_type"` // 1 = goods (entitlement product)
	Month       int    `json:"month"`        // purchased units
	TotalAmount string `json:"total_amount"`
	ShowAmount  string `json:"show_amount"`
	CreateTime  int64  `json:"create_time"` // unix seconds
}

type afdianResponse struct {
	EC   int `json:"ec"`
	Data struct {
		List []afdianOrder `json:"list"`
	} `json:"data"`
}

// FetchOrder looks up one order by its out_trade_no.
func (a *AfdianAdapter) FetchOrder(ctx context.Context, nativeOrderID string) (*model.OrderData, error) {
	raw, resp, err := a.query(ctx, map[string]any{"out_trade_no": nativeOrderID})
	if err != nil {
		return nil, err
	}
	if resp.EC != 200 || len(resp.Data.List) == 0 {
		a.log.Error().Str("out_trade_no", nativeOrderID).Int("ec", resp.EC).Msg("afdian order not found")
		return nil, domain.ErrOrderNotFound
	}
	order := resp.Data.List[0]

	if order.ProductType != 1 {
		a.log.Warn().Str("out_trade_no", nativeOrderID).Int("product_type", order.ProductType).Msg("not an entitlement product")
		return nil, domain.ErrNotAnOrder
	}
	if order.Status != 2 {
		a.log.Warn().Str("out_trade_no", nativeOrderID).Int("status", order.Status).Msg("order not paid")
		return nil, domain.ErrOrderNotPaid
	}

	buyCount := order.Month
	if buyCount <= 0 {
		buyCount = 1
	}
	createdAt := a.now()
	if order.CreateTime > 0 {
		createdAt = time.Unix(order.CreateTime, 0)
	}
	return &model.OrderData{
		Platform:        model.PlatformAfdian,
		PlatformTradeNo: order.OutTradeNo,
		CustomOrderID:   order.CustomID,
		PlanID:          order.PlanID,
		UserID:          order.UserID,
		CreatedAt:       createdAt,
		BuyCount:        buyCount,
		ActuallyPaid:    order.TotalAmount,
		OriginalPrice:   order.ShowAmount,
		RawData:         string(raw),
	}, nil
}

// query signs and posts params, retrying transient transport failures.
func (a *AfdianAdapter) query(ctx context.Context, params map[string]any) ([]byte, *afdianResponse, error) {
	paramsJSON, _ := json.Marshal(params)
	ts := a.now().Unix()
	digest := md5.Sum([]byte(fmt.Sprintf("%sparams%sts%duser_id%s", a.apiToken, paramsJSON, ts, a.userID)))

	body, _ := json.Marshal(map[string]any{
		"user_id": a.userID,
		"params":  string(paramsJSON),
		"ts":      ts,
		"sign":    hex.EncodeToString(digest[:]),
	})

	var raw []byte
	start := time.Now()
	err := a.retry.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.queryOrderAPI, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := a.http.Do(req)
		if err != nil {
			a.log.Error().Err(err).Msg("afdian query failed")
			a.notifier.Notify(ctx, "afdian", err)
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("http %d", resp.StatusCode)
			a.notifier.Notify(ctx, "afdian", err)
			return err
		}
		buf := new(bytes.Buffer)
		if _, err := buf.ReadFrom(resp.Body); err != nil {
			return err
		}
		raw = buf.Bytes()
		return nil
	})
	metrics.ObservePlatformQuery(model.PlatformAfdian, err == nil, float64(time.Since(start).Milliseconds()))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrPlatformQuery, err)
	}

	out := new(afdianResponse)
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, nil, fmt.Errorf("%w: decode: %v", domain.ErrPlatformQuery, err)
	}
	return raw, out, nil
}
