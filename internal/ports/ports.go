package ports

import (
	"context"

	"finnews/internal/domain"
)

// FetchQuery narrows a headline fetch to categories, countries and language.
type FetchQuery struct {
	Categories []string
	Countries  []string
	Language   string
}

// NewsSource pulls fresh headlines from upstream providers. Implementations
// deduplicate by exact title within one call and return partial results when
// individual providers or category/country pairs fail.
type NewsSource interface {
	Fetch(ctx context.Context, query FetchQuery) ([]domain.Article, error)
}

// ArticleStore persists articles keyed by URL.
type ArticleStore interface {
	// UpsertArticle inserts the article or, when the URL already exists,
	// refreshes its mutable fields and returns the existing id.
	UpsertArticle(ctx context.Context, article domain.Article) (int64, error)
	// FindIDByURL reports the id for a URL and whether it is known.
	FindIDByURL(ctx context.Context, url string) (int64, bool, error)
}

// SentimentStore appends classifier verdicts. HasSentiment is the caller-side
// idempotency guard; the store itself does not enforce uniqueness of
// (article, engine).
type SentimentStore interface {
	SaveSentiment(ctx context.Context, sentiment domain.Sentiment) (int64, error)
	// HasSentiment reports whether any sentiment row exists for the article.
	// An empty engine matches rows from any engine.
	HasSentiment(ctx context.Context, articleID int64, engine string) (bool, error)
}

// PriceMoveStore appends sampled price deltas. Write-only: rows are read back
// only by offline analysis, never by the pipeline.
type PriceMoveStore interface {
	SavePriceMove(ctx context.Context, move domain.PriceMove) (int64, error)
}

// Classifier maps text to a sentiment label. Implementations load their model
// artifact once at construction; Classify is pure for a fixed model version.
type Classifier interface {
	Classify(ctx context.Context, text string) (domain.Prediction, error)
	// Engine identifies which model produced the labels.
	Engine() string
}

// HeadlineReader serves the dashboard's read-only view.
type HeadlineReader interface {
	LatestHeadlines(ctx context.Context, limit int) ([]domain.Headline, error)
	SentimentCounts(ctx context.Context) (map[string]int64, error)
}

// AlertSink receives alert lines for positive/negative headlines.
type AlertSink interface {
	Alert(ctx context.Context, title, label string) error
}
