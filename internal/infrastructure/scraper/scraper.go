package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"finnews/internal/config"
	"finnews/internal/domain"
	"finnews/internal/ports"
	"finnews/internal/provider"
)

const providerName = "scraper"

// Scraper extracts headlines from configured HTML pages with per-source CSS
// selectors. A failing source is logged and skipped; the rest of the fetch
// proceeds.
type Scraper struct {
	sources []config.ScrapeSource
	client  *http.Client
	logger  *slog.Logger
}

var _ provider.Provider = (*Scraper)(nil)

// New wires an HTTP client; the default carries a 10s timeout.
func New(sources []config.ScrapeSource, client *http.Client, logger *slog.Logger) *Scraper {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Scraper{sources: sources, client: client, logger: logger}
}

// Name identifies the provider inside the registry.
func (s *Scraper) Name() string {
	return providerName
}

// Fetch walks the configured sources and extracts headline elements matching
// each source's selector. Elements that carry or contain a link yield a full
// article; bare text headlines have no URL and are dropped, since the store
// keys on URL.
func (s *Scraper) Fetch(ctx context.Context, query ports.FetchQuery) ([]domain.Article, error) {
	var articles []domain.Article
	for _, source := range s.sources {
		found, err := s.scrape(ctx, source, query.Language)
		if err != nil {
			s.warn("skipping scrape source", "source", source.Name, "error", err)
			continue
		}
		articles = append(articles, found...)
	}

	return articles, nil
}

func (s *Scraper) scrape(ctx context.Context, source config.ScrapeSource, language string) ([]domain.Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned %s", source.Name, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	base, err := url.Parse(source.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid source url %s: %w", source.URL, err)
	}

	var articles []domain.Article
	doc.Find(source.Selector).Each(func(_ int, sel *goquery.Selection) {
		title := strings.TrimSpace(sel.Text())
		if title == "" {
			return
		}

		href := resolveLink(sel, base)
		if href == "" {
			return
		}

		articles = append(articles, domain.Article{
			Provider: providerName,
			URL:      href,
			Title:    title,
			Source:   source.Name,
			Language: language,
			Tickers:  []string{},
		})
	})

	return articles, nil
}

func (s *Scraper) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

// resolveLink finds the href on the matched element, a nested anchor, or the
// closest ancestor anchor, absolutized against the page URL.
func resolveLink(sel *goquery.Selection, base *url.URL) string {
	href, ok := sel.Attr("href")
	if !ok {
		href, ok = sel.Find("a[href]").First().Attr("href")
	}
	if !ok {
		href, ok = sel.Closest("a[href]").Attr("href")
	}
	if !ok || href == "" {
		return ""
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}

	return base.ResolveReference(parsed).String()
}
