package provider

import (
	"context"
	"log/slog"
	"time"

	"finnews/internal/domain"
	"finnews/internal/metrics"
	"finnews/internal/ports"
)

// MultiSource implements ports.NewsSource by fanning out to every registered
// provider. A failing provider is logged and skipped; partial results are
// valid and expected. Titles are deduplicated case-sensitively across the
// whole fetch, first occurrence wins.
type MultiSource struct {
	registry *Registry
	logger   *slog.Logger
}

var _ ports.NewsSource = (*MultiSource)(nil)

// NewMultiSource wires the provider registry into a single source.
func NewMultiSource(registry *Registry, logger *slog.Logger) *MultiSource {
	return &MultiSource{registry: registry, logger: logger}
}

// Fetch collects normalized articles from every provider in registration
// order.
func (s *MultiSource) Fetch(ctx context.Context, query ports.FetchQuery) ([]domain.Article, error) {
	if s.registry == nil {
		return nil, nil
	}

	seen := map[string]struct{}{}
	var aggregated []domain.Article

	for _, name := range s.registry.Names() {
		p, err := s.registry.Resolve(name)
		if err != nil {
			s.warn("unknown provider", "provider", name, "error", err)
			continue
		}

		start := time.Now()
		metrics.FetchRequests.WithLabelValues(name).Inc()

		articles, err := p.Fetch(ctx, query)
		metrics.FetchDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.FetchErrors.WithLabelValues(name).Inc()
			s.warn("provider fetch failed, skipping", "provider", name, "error", err)
			continue
		}

		for _, article := range articles {
			if article.Title == "" {
				continue
			}
			if _, dup := seen[article.Title]; dup {
				continue
			}
			seen[article.Title] = struct{}{}
			aggregated = append(aggregated, article)
		}

		s.debug("provider produced articles", "provider", name, "count", len(articles))
	}

	s.debug("fetch done", "total_articles", len(aggregated))
	return aggregated, nil
}

func (s *MultiSource) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

func (s *MultiSource) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
