package scraper

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"finnews/internal/config"
	"finnews/internal/ports"
)

func TestScrapeExtractsLinkedHeadlines(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`
		<html><body>
		  <a data-testid="Link" href="/technology/chip-deal">Chipmaker lands record deal</a>
		  <a data-testid="Link" href="https://other.example/full">Full URL headline</a>
		  <a data-testid="Link" href="/empty">   </a>
		  <a href="/not-matched">Unrelated link</a>
		</body></html>`))
	}))
	defer server.Close()

	s := New([]config.ScrapeSource{
		{Name: "Reuters Technology", URL: server.URL + "/technology/", Selector: `a[data-testid="Link"]`},
	}, server.Client(), nil)

	articles, err := s.Fetch(context.Background(), ports.FetchQuery{Language: "en"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if len(articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(articles))
	}

	first := articles[0]
	if first.Title != "Chipmaker lands record deal" {
		t.Fatalf("unexpected title: %q", first.Title)
	}
	if first.URL != server.URL+"/technology/chip-deal" {
		t.Fatalf("relative href not absolutized: %s", first.URL)
	}
	if first.Source != "Reuters Technology" || first.Provider != "scraper" {
		t.Fatalf("unexpected attribution: %+v", first)
	}

	if articles[1].URL != "https://other.example/full" {
		t.Fatalf("absolute href mangled: %s", articles[1].URL)
	}
}

func TestScrapeDropsHeadlinesWithoutLinks(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><h2>Bare headline without a link</h2></body></html>`))
	}))
	defer server.Close()

	s := New([]config.ScrapeSource{
		{Name: "BBC Technology", URL: server.URL, Selector: "h2"},
	}, server.Client(), nil)

	articles, err := s.Fetch(context.Background(), ports.FetchQuery{Language: "en"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(articles) != 0 {
		t.Fatalf("headlines without URLs cannot be persisted, got %d", len(articles))
	}
}

func TestScrapeSkipsFailingSource(t *testing.T) {
	t.Parallel()

	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><a class="hl" href="/ok">Working headline</a></body></html>`))
	}))
	defer healthy.Close()

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer broken.Close()

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	s := New([]config.ScrapeSource{
		{Name: "broken", URL: broken.URL, Selector: "a"},
		{Name: "healthy", URL: healthy.URL, Selector: "a.hl"},
	}, nil, logger)

	articles, err := s.Fetch(context.Background(), ports.FetchQuery{Language: "en"})
	if err != nil {
		t.Fatalf("partial failures must not abort the fetch: %v", err)
	}
	if len(articles) != 1 || articles[0].Title != "Working headline" {
		t.Fatalf("expected partial results, got %+v", articles)
	}
	if !strings.Contains(logs.String(), "skipping scrape source") {
		t.Fatalf("failing source must be logged: %q", logs.String())
	}
}
