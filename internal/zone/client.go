package zone

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/siren-bd/platform/internal/shared/config"
	"github.com/siren-bd/platform/internal/shared/metrics"
)

// Client calls the external prediction service
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new prediction service client
func NewClient(cfg config.ZoneConfig) *Client {
	return &Client{
		baseURL: cfg.URL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Predict fetches the current zone prediction set
func (c *Client) Predict(ctx context.Context) (*PredictionResponse, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/predict", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build prediction request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordZonePrediction("error", time.Since(start))
		return nil, fmt.Errorf("prediction service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.RecordZonePrediction("error", time.Since(start))
		return nil, fmt.Errorf("prediction service returned status %d", resp.StatusCode)
	}

	var prediction PredictionResponse
	if err := json.NewDecoder(resp.Body).Decode(&prediction); err != nil {
		metrics.RecordZonePrediction("error", time.Since(start))
		return nil, fmt.Errorf("failed to decode prediction: %w", err)
	}

	metrics.RecordZonePrediction("ok", time.Since(start))
	return &prediction, nil
}

// Health checks the prediction service
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("prediction service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("prediction service unhealthy: status %d", resp.StatusCode)
	}
	return nil
}
