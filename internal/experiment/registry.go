package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/cherrycore/internal/delaunay"
	"github.com/san-kum/cherrycore/internal/geometry"
)

// ProviderDelaunay and ProviderNone name the registered tetrahedralization
// providers. "none" disables steering.
const (
	ProviderDelaunay = "delaunay"
	ProviderNone     = "none"
)

type Registry struct {
	providers map[string]func(margin float64) geometry.Provider
}

func NewRegistry() *Registry {
	r := &Registry{
		providers: make(map[string]func(float64) geometry.Provider),
	}

	r.providers[ProviderDelaunay] = func(margin float64) geometry.Provider {
		if margin > 0 {
			return delaunay.New(delaunay.WithMargin(margin))
		}
		return delaunay.New()
	}
	r.providers[ProviderNone] = func(float64) geometry.Provider { return nil }

	return r
}

// Register adds or replaces a provider factory.
func (r *Registry) Register(name string, fn func(margin float64) geometry.Provider) {
	r.providers[name] = fn
}

// GetProvider builds the named provider. The result is nil for "none".
func (r *Registry) GetProvider(name string, margin float64) (geometry.Provider, error) {
	fn, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", name)
	}
	return fn(margin), nil
}

func (r *Registry) ListProviders() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
