package rate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shiftremit/backend/internal/domain"
	"github.com/shiftremit/backend/internal/logging"
)

// BenchmarkClient fetches the upstream NGN-per-GBP market benchmark. The
// call carries a bounded timeout; failure is reported to the caller and
// never cached.
type BenchmarkClient struct {
	url        string
	httpClient *http.Client
}

func NewBenchmarkClient(url string, timeout time.Duration) *BenchmarkClient {
	return &BenchmarkClient{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type benchmarkPayload struct {
	Rate decimal.Decimal `json:"rate"`
}

func (c *BenchmarkClient) FetchBenchmark(ctx context.Context) (decimal.Decimal, error) {
	log := logging.FromContext(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("FetchBenchmark: build request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("FetchBenchmark: %v: %w", err, domain.ErrBenchmarkUnavailable)
	}
	defer resp.Body.Close()

	log.Info("benchmark source response",
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return decimal.Decimal{}, fmt.Errorf("FetchBenchmark: status %d: %s: %w",
			resp.StatusCode, string(body), domain.ErrBenchmarkUnavailable)
	}

	var payload benchmarkPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return decimal.Decimal{}, fmt.Errorf("FetchBenchmark: decode: %v: %w", err, domain.ErrBenchmarkUnavailable)
	}

	if payload.Rate.LessThanOrEqual(decimal.Zero) {
		return decimal.Decimal{}, fmt.Errorf("FetchBenchmark: non-positive rate %s: %w",
			payload.Rate, domain.ErrBenchmarkUnavailable)
	}

	return payload.Rate, nil
}
