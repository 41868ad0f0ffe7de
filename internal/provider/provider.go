package provider

import (
	"context"
	"fmt"

	"finnews/internal/domain"
	"finnews/internal/ports"
)

// Provider captures a single headline source implementation (NewsAPI,
// MarketAux, HTML scraper, etc.).
type Provider interface {
	Name() string
	Fetch(ctx context.Context, query ports.FetchQuery) ([]domain.Article, error)
}

// Registry keeps a mapping from provider names to their implementations.
type Registry struct {
	providers map[string]Provider
	order     []string
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: map[string]Provider{}}
}

// Register adds or replaces a provider implementation, preserving
// registration order for deterministic fetch sequencing.
func (r *Registry) Register(p Provider) {
	if r.providers == nil {
		r.providers = map[string]Provider{}
	}
	if _, exists := r.providers[p.Name()]; !exists {
		r.order = append(r.order, p.Name())
	}
	r.providers[p.Name()] = p
}

// Resolve returns a provider by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Provider, error) {
	if p, ok := r.providers[name]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("provider %s is not registered", name)
}

// Names lists registered providers in registration order.
func (r *Registry) Names() []string {
	return r.order
}
