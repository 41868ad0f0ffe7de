package domain

import (
	"encoding/json"
	"time"
)

// Article is a core entity describing one headline fetched from a provider.
// The URL is the natural key: re-ingesting the same URL refreshes mutable
// metadata but keeps the row identity.
type Article struct {
	ID          int64
	Provider    string
	ExternalID  string
	URL         string
	Title       string
	PublishedAt *time.Time
	Source      string
	Language    string
	Tickers     []string
	Raw         json.RawMessage
	InsertedAt  time.Time
}

// Sentiment labels produced by the classifier. The label column is an open
// string; these are the values the bundled model emits.
const (
	LabelPositive = "positive"
	LabelNegative = "negative"
	LabelNeutral  = "neutral"
)

// Prediction is a single classifier output for one piece of text.
type Prediction struct {
	Label string
	Score float64
}

// Alertable reports whether a label warrants an alert; neutral stays silent.
func (p Prediction) Alertable() bool {
	return p.Label == LabelPositive || p.Label == LabelNegative
}

// Sentiment links an article to one classifier verdict. Rows are appended,
// never updated; the engine field lets multiple models' outputs coexist.
type Sentiment struct {
	ID         int64
	ArticleID  int64
	Engine     string
	Score      *float64
	Label      string
	InsertedAt time.Time
}

// PriceMove correlates an article with a later price delta for one symbol.
// DeltaPct is supplied by the caller; storage does not recompute it from the
// two sampled prices.
type PriceMove struct {
	ID         int64
	ArticleID  int64
	Symbol     string
	T0UTC      time.Time
	T0Px       float64
	TNUTC      time.Time
	TNPx       float64
	DeltaPct   float64
	HorizonMin int
	InsertedAt time.Time
}

// Headline is the dashboard read model: one article joined with its latest
// sentiment label, if any.
type Headline struct {
	Title       string
	Source      string
	URL         string
	PublishedAt string
	Sentiment   string
}
