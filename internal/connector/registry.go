package connector

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"finance-sync-go/internal/models"
)

// ErrUnsupportedProvider indicates a lookup for a provider nothing registered
// a factory for. It is a caller configuration bug, never retried.
var ErrUnsupportedProvider = errors.New("unsupported provider")

// Factory builds a connector for one stored credential set.
type Factory func(credentials models.Credentials) (Connector, error)

// Registry maps provider identifiers (case-insensitive) to connector
// factories. It is constructed once at process start and passed in
// explicitly; registering a factory is the only extension seam for new
// providers.
type Registry struct {
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory for a provider, replacing any existing one.
func (r *Registry) Register(provider string, factory Factory) {
	r.factories[strings.ToLower(provider)] = factory
}

// Create builds a connector for the provider, failing with
// ErrUnsupportedProvider for unknown identifiers.
func (r *Registry) Create(provider string, credentials models.Credentials) (Connector, error) {
	factory, ok := r.factories[strings.ToLower(provider)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, provider)
	}
	return factory(credentials)
}

// Supported reports whether a factory is registered for the provider.
func (r *Registry) Supported(provider string) bool {
	_, ok := r.factories[strings.ToLower(provider)]
	return ok
}

// Providers returns the registered provider identifiers, sorted.
func (r *Registry) Providers() []string {
	providers := make([]string, 0, len(r.factories))
	for provider := range r.factories {
		providers = append(providers, provider)
	}
	sort.Strings(providers)
	return providers
}
