package usecase

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"finnews/internal/domain"
	"finnews/internal/infrastructure/alert"
	"finnews/internal/infrastructure/storage"
	"finnews/internal/ports"
)

type stubSource struct {
	articles []domain.Article
	err      error
}

func (s *stubSource) Fetch(_ context.Context, _ ports.FetchQuery) ([]domain.Article, error) {
	return s.articles, s.err
}

// stubClassifier labels titles by keyword so assertions do not depend on
// model weights.
type stubClassifier struct{}

func (stubClassifier) Engine() string { return "stub" }

func (stubClassifier) Classify(_ context.Context, text string) (domain.Prediction, error) {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "rally"):
		return domain.Prediction{Label: domain.LabelPositive, Score: 0.9}, nil
	case strings.Contains(lower, "misses"):
		return domain.Prediction{Label: domain.LabelNegative, Score: 0.8}, nil
	default:
		return domain.Prediction{Label: domain.LabelNeutral, Score: 0.6}, nil
	}
}

type failingClassifier struct{}

func (failingClassifier) Engine() string { return "broken" }

func (failingClassifier) Classify(_ context.Context, _ string) (domain.Prediction, error) {
	return domain.Prediction{}, fmt.Errorf("model exploded")
}

func testStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()

	store, err := storage.Open(filepath.Join(t.TempDir(), "finnews.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func twoArticles() []domain.Article {
	return []domain.Article{
		{Provider: "newsapi", URL: "https://example.com/u1", Title: "Stocks rally on rate cut"},
		{Provider: "newsapi", URL: "https://example.com/u2", Title: "Company misses earnings"},
	}
}

func TestRunPersistsAndAlerts(t *testing.T) {
	t.Parallel()

	store := testStore(t)
	var alerts bytes.Buffer

	pipeline := NewPipeline(PipelineDeps{
		Source:     &stubSource{articles: twoArticles()},
		Articles:   store,
		Sentiments: store,
		Classifier: stubClassifier{},
		Alerts:     alert.NewConsoleSink(&alerts),
	})

	if err := pipeline.Run(context.Background(), ports.FetchQuery{}); err != nil {
		t.Fatalf("run: %v", err)
	}

	ctx := context.Background()
	headlines, err := store.LatestHeadlines(ctx, 100)
	if err != nil {
		t.Fatalf("read headlines: %v", err)
	}
	if len(headlines) != 2 {
		t.Fatalf("expected 2 article rows, got %d", len(headlines))
	}

	counts, err := store.SentimentCounts(ctx)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	var total int64
	for _, n := range counts {
		total += n
	}
	if total != 2 {
		t.Fatalf("expected 2 sentiment rows, got %d (%v)", total, counts)
	}

	// Alert text carries the headline; the specific label is the model's
	// business.
	out := alerts.String()
	if !strings.Contains(out, "Stocks rally on rate cut") {
		t.Fatalf("missing alert for positive headline: %q", out)
	}
	if !strings.Contains(out, "Company misses earnings") {
		t.Fatalf("missing alert for negative headline: %q", out)
	}
}

func TestRerunAddsNothing(t *testing.T) {
	t.Parallel()

	store := testStore(t)
	pipeline := NewPipeline(PipelineDeps{
		Source:     &stubSource{articles: twoArticles()},
		Articles:   store,
		Sentiments: store,
		Classifier: stubClassifier{},
		Alerts:     alert.NewConsoleSink(&bytes.Buffer{}),
	})

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := pipeline.Run(ctx, ports.FetchQuery{}); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}

	headlines, err := store.LatestHeadlines(ctx, 100)
	if err != nil {
		t.Fatalf("read headlines: %v", err)
	}
	if len(headlines) != 2 {
		t.Fatalf("rerun created article rows: %d", len(headlines))
	}

	counts, err := store.SentimentCounts(ctx)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	var total int64
	for _, n := range counts {
		total += n
	}
	if total != 2 {
		t.Fatalf("rerun duplicated sentiment rows: %d (%v)", total, counts)
	}
}

func TestNeutralHeadlineStaysSilent(t *testing.T) {
	t.Parallel()

	store := testStore(t)
	var alerts bytes.Buffer

	pipeline := NewPipeline(PipelineDeps{
		Source: &stubSource{articles: []domain.Article{
			{Provider: "newsapi", URL: "https://example.com/u3", Title: "Quarterly report published"},
		}},
		Articles:   store,
		Sentiments: store,
		Classifier: stubClassifier{},
		Alerts:     alert.NewConsoleSink(&alerts),
	})

	if err := pipeline.Run(context.Background(), ports.FetchQuery{}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if alerts.Len() != 0 {
		t.Fatalf("neutral headline must not alert: %q", alerts.String())
	}
}

func TestArticlesWithoutURLAreSkipped(t *testing.T) {
	t.Parallel()

	store := testStore(t)
	pipeline := NewPipeline(PipelineDeps{
		Source: &stubSource{articles: []domain.Article{
			{Provider: "scraper", Title: "Headline with no link"},
		}},
		Articles:   store,
		Sentiments: store,
		Classifier: stubClassifier{},
		Alerts:     alert.NewConsoleSink(&bytes.Buffer{}),
	})

	if err := pipeline.Run(context.Background(), ports.FetchQuery{}); err != nil {
		t.Fatalf("run: %v", err)
	}

	headlines, err := store.LatestHeadlines(context.Background(), 100)
	if err != nil {
		t.Fatalf("read headlines: %v", err)
	}
	if len(headlines) != 0 {
		t.Fatalf("URL-less article must not be persisted: %+v", headlines)
	}
}

func TestClassifierErrorAbortsPass(t *testing.T) {
	t.Parallel()

	store := testStore(t)
	pipeline := NewPipeline(PipelineDeps{
		Source:     &stubSource{articles: twoArticles()},
		Articles:   store,
		Sentiments: store,
		Classifier: failingClassifier{},
		Alerts:     alert.NewConsoleSink(&bytes.Buffer{}),
	})

	if err := pipeline.Run(context.Background(), ports.FetchQuery{}); err == nil {
		t.Fatal("expected the pass to surface the classifier error")
	}

	// The first article was upserted before the failure; committed rows
	// stay committed.
	headlines, err := store.LatestHeadlines(context.Background(), 100)
	if err != nil {
		t.Fatalf("read headlines: %v", err)
	}
	if len(headlines) != 1 {
		t.Fatalf("expected exactly the committed row, got %d", len(headlines))
	}
}

func TestFetchErrorSurfaces(t *testing.T) {
	t.Parallel()

	pipeline := NewPipeline(PipelineDeps{
		Source:     &stubSource{err: fmt.Errorf("all providers down")},
		Articles:   testStore(t),
		Sentiments: testStore(t),
		Classifier: stubClassifier{},
	})

	if err := pipeline.Run(context.Background(), ports.FetchQuery{}); err == nil {
		t.Fatal("expected fetch error to surface")
	}
}
