package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"cdk-billing/internal/domain/ports/adapter"
)

var _ adapter.ExceptionNotifier = (*HTTPNotifier)(nil)

// HTTPNotifier posts failure reports to the external exception sink.
// Delivery is best effort: a sink failure is logged, never propagated.
type HTTPNotifier struct {
	url  string
	http *http.Client
	log  *zerolog.Logger
}

func NewHTTPNotifier(url string, logger *zerolog.Logger) *HTTPNotifier {
	return &HTTPNotifier{
		url:  url,
		http: &http.Client{Timeout: 10 * time.Second},
		log:  logger,
	}
}

func (n *HTTPNotifier) Notify(ctx context.Context, module string, cause error) {
	if n.url == "" {
		return
	}
	body, _ := json.Marshal(map[string]string{
		"module": module,
		"error":  cause.Error(),
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.http.Do(req)
	if err != nil {
		n.log.Error().Err(err).Str("module", module).Msg("exception notify failed")
		return
	}
	resp.Body.Close()
}

var _ adapter.ExceptionNotifier = (*Noop)(nil)

// Noop discards notifications. Used in tests and dev mode.
type Noop struct{}

func (Noop) Notify(context.Context, string, error) {}
