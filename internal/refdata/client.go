package refdata

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"trade-journal-go/internal/config"
	"trade-journal-go/internal/models"
)

// ClientInterface defines the remote contract-reference fetcher.
type ClientInterface interface {
	FetchContracts(ctx context.Context) ([]models.FuturesContract, error)
}

// Client fetches contract reference data from a configured HTTP endpoint.
// It implements the ClientInterface.
type Client struct {
	client  *resty.Client
	logger  *zap.Logger
	limiter *rate.Limiter
}

// ensure Client implements the interface
var _ ClientInterface = (*Client)(nil)

// contractPayload is the wire shape of one contract row.
type contractPayload struct {
	Symbol      string  `json:"symbol"`
	Description string  `json:"description"`
	PointValue  float64 `json:"point_value"`
	Currency    string  `json:"currency"`
}

// NewClient creates a new reference-data client.
func NewClient(cfg *config.Refdata, logger *zap.Logger) *Client {
	client := resty.New().SetBaseURL(cfg.URL)

	// rate.Limit is requests per second.
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst)

	return &Client{
		client:  client,
		logger:  logger,
		limiter: limiter,
	}
}

// FetchContracts downloads the remote contract list.
func (c *Client) FetchContracts(ctx context.Context) ([]models.FuturesContract, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	var payload []contractPayload
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&payload).
		Get("")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contract reference data: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("contract reference endpoint returned status %d", resp.StatusCode())
	}

	contracts := make([]models.FuturesContract, 0, len(payload))
	for _, p := range payload {
		contracts = append(contracts, models.FuturesContract{
			Symbol:      p.Symbol,
			Description: p.Description,
			PointValue:  p.PointValue,
			Currency:    p.Currency,
		})
	}
	return contracts, nil
}

// Refresh merges remote contracts into the reference table. Failures are
// logged and swallowed: reference data is never required for import to work.
func Refresh(ctx context.Context, client ClientInterface, ref *Reference, logger *zap.Logger) {
	contracts, err := client.FetchContracts(ctx)
	if err != nil {
		logger.Warn("Contract reference refresh failed, using local table", zap.Error(err))
		return
	}
	ref.Merge(contracts)
	logger.Info("Contract reference refreshed", zap.Int("contracts", len(contracts)))
}
