// internal/common/weatherfeed/client.go
package weatherfeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"agrimarket-workers/internal/common/config"
	"agrimarket-workers/internal/models"
)

// Client fetches current conditions for a region from the external weather
// provider. Responses are cached by the caller; the client is stateless.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// ErrFeedTimeout reports that the provider did not answer in time.
var ErrFeedTimeout = errors.New("weather feed timeout")

func NewClient(cfg config.WeatherConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: config.GetDuration(cfg.Timeout),
		},
	}
}

// FetchSnapshot retrieves the current reading for a region.
func (c *Client) FetchSnapshot(ctx context.Context, region string) (*models.WeatherSnapshot, error) {
	endpoint := fmt.Sprintf("%s/v1/current?region=%s", c.baseURL, url.QueryEscape(region))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build weather feed request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, ErrFeedTimeout
		}
		return nil, fmt.Errorf("weather feed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("weather feed returned %d: %s", resp.StatusCode, string(body))
	}

	var snapshot models.WeatherSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode weather feed response: %w", err)
	}

	if snapshot.Region == "" {
		snapshot.Region = region
	}
	if snapshot.Timestamp.IsZero() {
		snapshot.Timestamp = time.Now().UTC()
	}

	return &snapshot, nil
}

func isTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
