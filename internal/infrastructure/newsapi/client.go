package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"finnews/internal/config"
	"finnews/internal/domain"
	"finnews/internal/ports"
	"finnews/internal/provider"
)

const providerName = "newsapi"

// Client pulls top headlines from NewsAPI.org, one request per
// (country, category) pair. A failing pair is logged and skipped; the rest of
// the fetch proceeds.
type Client struct {
	baseURL  string
	apiKey   string
	pageSize int
	http     *http.Client
	throttle *provider.Throttle
	logger   *slog.Logger
}

var _ provider.Provider = (*Client)(nil)

// NewClient builds a client from configuration. pageSize caps each request.
func NewClient(cfg config.NewsAPIConfig, pageSize int, logger *slog.Logger) *Client {
	timeout := time.Duration(cfg.TimeoutSec * float64(time.Second))
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if pageSize <= 0 {
		pageSize = 100
	}

	return &Client{
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		pageSize: pageSize,
		http:     &http.Client{Timeout: timeout},
		throttle: provider.NewThrottle(time.Duration(cfg.RateLimitMs) * time.Millisecond),
		logger:   logger,
	}
}

// Name identifies the provider inside the registry.
func (c *Client) Name() string {
	return providerName
}

type headlinesResponse struct {
	Status   string            `json:"status"`
	Message  string            `json:"message"`
	Articles []json.RawMessage `json:"articles"`
}

type rawArticle struct {
	Source struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"source"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
}

// Fetch requests top headlines for every (country, category) pair in the
// query and normalizes them to the common article shape. NewsAPI provides no
// tickers, so the sequence stays empty.
func (c *Client) Fetch(ctx context.Context, query ports.FetchQuery) ([]domain.Article, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("newsapi api key not set")
	}

	var articles []domain.Article
	for _, country := range query.Countries {
		for _, category := range query.Categories {
			page, err := c.topHeadlines(ctx, category, country, query.Language)
			if err != nil {
				c.warn("skipping category/country pair", "category", category, "country", country, "error", err)
				continue
			}
			articles = append(articles, page...)
		}
	}

	return articles, nil
}

func (c *Client) topHeadlines(ctx context.Context, category, country, language string) ([]domain.Article, error) {
	if err := c.throttle.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("category", category)
	params.Set("country", country)
	params.Set("language", language)
	params.Set("pageSize", strconv.Itoa(c.pageSize))
	params.Set("apiKey", c.apiKey)

	endpoint := fmt.Sprintf("%s/top-headlines?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "finnews/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request headlines: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("newsapi returned %s", resp.Status)
	}

	var payload headlinesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if payload.Status != "ok" {
		return nil, fmt.Errorf("newsapi status %q: %s", payload.Status, payload.Message)
	}

	articles := make([]domain.Article, 0, len(payload.Articles))
	for _, raw := range payload.Articles {
		articles = append(articles, normalize(raw, language))
	}

	return articles, nil
}

// normalize maps the provider payload onto the common article shape, keeping
// the original object verbatim for audit/replay. Missing fields default
// rather than fail.
func normalize(raw json.RawMessage, language string) domain.Article {
	var a rawArticle
	_ = json.Unmarshal(raw, &a)

	article := domain.Article{
		Provider: providerName,
		URL:      a.URL,
		Title:    a.Title,
		Source:   a.Source.Name,
		Language: language,
		Tickers:  []string{},
		Raw:      raw,
	}

	if a.PublishedAt != "" {
		if t, err := time.Parse(time.RFC3339, a.PublishedAt); err == nil {
			utc := t.UTC()
			article.PublishedAt = &utc
		}
	}

	return article
}

func (c *Client) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
