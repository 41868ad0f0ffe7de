package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"finnews/internal/domain"
	"finnews/internal/metrics"
	"finnews/internal/ports"
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Source     ports.NewsSource
	Articles   ports.ArticleStore
	Sentiments ports.SentimentStore
	Classifier ports.Classifier
	Alerts     ports.AlertSink
	Logger     *slog.Logger
}

// Pipeline implements the headline-ingestion workflow: fetch, deduplicate by
// URL, classify, persist, alert.
type Pipeline struct {
	source     ports.NewsSource
	articles   ports.ArticleStore
	sentiments ports.SentimentStore
	classifier ports.Classifier
	alerts     ports.AlertSink
	logger     *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		source:     deps.Source,
		articles:   deps.Articles,
		sentiments: deps.Sentiments,
		classifier: deps.Classifier,
		alerts:     deps.Alerts,
		logger:     deps.Logger,
	}
}

// Run executes one pass to completion. Any error after the fetch aborts the
// remainder of the pass; rows already committed stay committed. Finding no
// new articles is not an error.
func (p *Pipeline) Run(ctx context.Context, query ports.FetchQuery) error {
	if p.source == nil {
		return nil
	}

	p.info("pass started")

	articles, err := p.source.Fetch(ctx, query)
	if err != nil {
		return fmt.Errorf("fetch headlines: %w", err)
	}

	newArticles := 0
	for _, article := range articles {
		if article.URL == "" {
			continue
		}

		// Existence determines "is this new?" for reporting only; the
		// upsert below runs regardless to refresh stale metadata.
		_, known, err := p.articles.FindIDByURL(ctx, article.URL)
		if err != nil {
			return fmt.Errorf("lookup %s: %w", article.URL, err)
		}

		id, err := p.articles.UpsertArticle(ctx, article)
		if err != nil {
			return fmt.Errorf("upsert %s: %w", article.URL, err)
		}

		if !known {
			newArticles++
			p.info("new article added", "title", article.Title, "url", article.URL)
		}

		prediction, err := p.classifier.Classify(ctx, article.Title)
		if err != nil {
			return fmt.Errorf("classify %s: %w", article.URL, err)
		}
		p.info("sentiment", "title", article.Title, "label", prediction.Label)
		metrics.ArticlesProcessed.Inc()

		labeled, err := p.sentiments.HasSentiment(ctx, id, p.classifier.Engine())
		if err != nil {
			return fmt.Errorf("sentiment lookup %d: %w", id, err)
		}
		if !labeled {
			score := prediction.Score
			_, err = p.sentiments.SaveSentiment(ctx, domain.Sentiment{
				ArticleID: id,
				Engine:    p.classifier.Engine(),
				Score:     &score,
				Label:     prediction.Label,
			})
			if err != nil {
				return fmt.Errorf("save sentiment %d: %w", id, err)
			}
		}

		if prediction.Alertable() && p.alerts != nil {
			metrics.AlertsEmitted.WithLabelValues(prediction.Label).Inc()
			if err := p.alerts.Alert(ctx, article.Title, prediction.Label); err != nil {
				return fmt.Errorf("emit alert: %w", err)
			}
		}
	}

	if newArticles == 0 {
		p.info("no new articles found or all articles have been processed")
	} else {
		p.info("pass complete", "new_articles", newArticles)
	}

	return nil
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}
