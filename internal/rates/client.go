// Package rates converts amounts between currencies using the
// open.er-api.com exchange-rate feed.
//
// The free feed only serves EUR-based tables, so every conversion is
// rebased through EUR. Tables are cached for a day; a conversion request
// never triggers more than one fetch per cache window.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"foyer/internal/cache"
)

const (
	// DefaultBaseURL is the EUR-base endpoint of the free rates API.
	DefaultBaseURL = "https://open.er-api.com/v6/latest/EUR"

	baseCurrency = "EUR"
	cacheKey     = "rates_" + baseCurrency
	tableTTL     = 24 * time.Hour
)

// Table is one fetched rate table: units of each currency per one EUR.
type Table struct {
	Base      string
	Rates     map[string]decimal.Decimal
	FetchedAt time.Time
}

// Client fetches and caches exchange rates and converts amounts.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cache      cache.Cache[Table]
}

// NewClient builds a rates client. An empty baseURL selects the public API.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		cache:      cache.NewLRUCache[Table](4, tableTTL),
	}
}

// RegisterCache lets a cache manager clean this client's expired tables.
func (c *Client) RegisterCache(m *cache.Manager) {
	if lru, ok := c.cache.(cache.Cleaner); ok {
		m.Register(lru)
	}
}

// Convert converts an amount from one currency to another. The feed serves
// only latest rates, so asOf is informational; it keeps the signature
// stable should a historical source replace the free API.
func (c *Client) Convert(ctx context.Context, amount decimal.Decimal, from, to string, asOf time.Time) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}
	table, err := c.table(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	fromRate, ok := table.Rates[from]
	if !ok || fromRate.IsZero() {
		return decimal.Zero, fmt.Errorf("no rate for currency %q", from)
	}
	toRate, ok := table.Rates[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("no rate for currency %q", to)
	}
	return amount.Mul(toRate).Div(fromRate), nil
}

// apiResponse mirrors the open.er-api.com payload. Rates arrive as
// json.Number so decimal parsing keeps the feed's full precision.
type apiResponse struct {
	Result             string                 `json:"result"`
	Rates              map[string]json.Number `json:"rates"`
	TimeLastUpdateUnix int64                  `json:"time_last_update_unix"`
}

func (c *Client) table(ctx context.Context) (Table, error) {
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return Table{}, fmt.Errorf("build rates request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Table{}, fmt.Errorf("fetch exchange rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Table{}, fmt.Errorf("fetch exchange rates: unexpected status %d", resp.StatusCode)
	}

	var payload apiResponse
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return Table{}, fmt.Errorf("decode exchange rates: %w", err)
	}
	if payload.Result != "success" {
		return Table{}, fmt.Errorf("exchange rates API returned %q", payload.Result)
	}

	table := Table{
		Base:      baseCurrency,
		Rates:     make(map[string]decimal.Decimal, len(payload.Rates)),
		FetchedAt: time.Unix(payload.TimeLastUpdateUnix, 0).UTC(),
	}
	for code, raw := range payload.Rates {
		rate, err := decimal.NewFromString(raw.String())
		if err != nil {
			slog.WarnContext(ctx, "Skipping unparseable exchange rate",
				"currency", code,
				"raw", raw.String())
			continue
		}
		table.Rates[code] = rate
	}
	c.cache.Set(cacheKey, table)

	slog.InfoContext(ctx, "Fetched exchange rate table",
		"base", table.Base,
		"currencies", len(table.Rates),
		"updated_at", table.FetchedAt.Format(time.RFC3339))
	return table, nil
}
