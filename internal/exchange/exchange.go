// ABOUTME: Currency exchange client backing the agent's exchange action
// ABOUTME: Reads latest rates from an open.er-api.com compatible endpoint
package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harper/jarvis/internal/models"
)

// DefaultBaseURL is the public rates endpoint
const DefaultBaseURL = "https://open.er-api.com/v6/latest"

// Client fetches exchange rates
type Client struct {
	baseURL string
	http    *http.Client
	logger  *log.Logger
}

type latestResponse struct {
	Result            string             `json:"result"`
	TimeLastUpdateUTC string             `json:"time_last_update_utc"`
	Rates             map[string]float64 `json:"rates"`
}

// NewClient creates a Client; an empty baseURL uses DefaultBaseURL
func NewClient(baseURL string, timeout time.Duration, logger *log.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger.WithPrefix("exchange"),
	}
}

// Convert reports how much one unit of from is worth in to, rounded up
func (c *Client) Convert(ctx context.Context, from, to string) (string, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if from == "" || to == "" {
		return "", fmt.Errorf("exchange requires two currency codes")
	}

	url := c.baseURL + "/" + from
	c.logger.Debug("fetching rates", "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("exchange: %w: failed to fetch rates for %s: %w", models.ErrModelUnavailable, from, err)
	}
	defer resp.Body.Close()

	if transient(resp.StatusCode) {
		return "", fmt.Errorf("exchange: %w: rates for %s: status %d", models.ErrModelUnavailable, from, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("rates for %s: status %d", from, resp.StatusCode)
	}

	var body latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode rates for %s: %w", from, err)
	}
	if body.Result != "success" {
		return "", fmt.Errorf("rates for %s: result %q", from, body.Result)
	}

	rate, ok := body.Rates[to]
	if !ok {
		return "", fmt.Errorf("no rate from %s to %s", from, to)
	}

	return fmt.Sprintf("As per %s, 1 %s equal to %d %s.", body.TimeLastUpdateUTC, from, int64(math.Ceil(rate)), to), nil
}

// transient reports statuses worth retrying later: throttling and server errors
func transient(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}
