package marketaux

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"finnews/internal/config"
	"finnews/internal/domain"
	"finnews/internal/ports"
	"finnews/internal/provider"
)

const providerName = "marketaux"

// Client pulls finance and market news from MarketAux. The free tier allows
// roughly 100 requests per day, so limits stay small and one fetch issues a
// single request.
type Client struct {
	baseURL  string
	apiKey   string
	symbols  string
	limit    int
	http     *http.Client
	throttle *provider.Throttle
	logger   *slog.Logger
}

var _ provider.Provider = (*Client)(nil)

// NewClient builds a client from configuration.
func NewClient(cfg config.MarketauxConfig, logger *slog.Logger) *Client {
	timeout := time.Duration(cfg.TimeoutSec * float64(time.Second))
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		symbols:  cfg.Symbols,
		limit:    clampLimit(cfg.Limit),
		http:     &http.Client{Timeout: timeout},
		throttle: provider.NewThrottle(time.Duration(cfg.RateLimitMs) * time.Millisecond),
		logger:   logger,
	}
}

// Name identifies the provider inside the registry.
func (c *Client) Name() string {
	return providerName
}

type newsResponse struct {
	Data []json.RawMessage `json:"data"`
}

type rawArticle struct {
	UUID        string `json:"uuid"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Source      string `json:"source"`
	PublishedAt string `json:"published_at"`
	Language    string `json:"language"`
	Entities    []struct {
		Symbol string `json:"symbol"`
	} `json:"entities"`
}

// Fetch requests the latest market news filtered by the query's countries and
// language, plus the configured symbols. MarketAux has no category dimension;
// categories in the query are ignored.
func (c *Client) Fetch(ctx context.Context, query ports.FetchQuery) ([]domain.Article, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("marketaux api key not set")
	}

	if err := c.throttle.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("api_token", c.apiKey)
	params.Set("language", query.Language)
	params.Set("limit", strconv.Itoa(c.limit))
	params.Set("page", "1")
	if c.symbols != "" {
		params.Set("symbols", c.symbols)
	}
	if len(query.Countries) > 0 {
		params.Set("countries", strings.Join(query.Countries, ","))
	}

	endpoint := fmt.Sprintf("%s/news/all?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "finnews/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request news: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("marketaux returned %s", resp.Status)
	}

	var payload newsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	articles := make([]domain.Article, 0, len(payload.Data))
	for _, raw := range payload.Data {
		articles = append(articles, normalize(raw))
	}

	c.debug("fetched market news", "count", len(articles))
	return articles, nil
}

func (c *Client) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

// normalize keeps the MarketAux field names close to the common shape and
// lifts entity symbols into the tickers sequence.
func normalize(raw json.RawMessage) domain.Article {
	var a rawArticle
	_ = json.Unmarshal(raw, &a)

	tickers := make([]string, 0, len(a.Entities))
	for _, e := range a.Entities {
		if e.Symbol != "" {
			tickers = append(tickers, e.Symbol)
		}
	}

	article := domain.Article{
		Provider:   providerName,
		ExternalID: a.UUID,
		URL:        a.URL,
		Title:      a.Title,
		Source:     a.Source,
		Language:   a.Language,
		Tickers:    tickers,
		Raw:        raw,
	}

	if a.PublishedAt != "" {
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.000000Z"} {
			if t, err := time.Parse(layout, a.PublishedAt); err == nil {
				utc := t.UTC()
				article.PublishedAt = &utc
				break
			}
		}
	}

	return article
}

func clampLimit(limit int) int {
	if limit < 1 {
		return 25
	}
	if limit > 50 {
		return 50
	}
	return limit
}
