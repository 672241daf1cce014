package search

import (
	"fmt"
	"sort"
)

// Registry is an ordered provider table. It is populated once at wiring time
// and read-only afterwards, so it does no locking of its own.
type Registry struct {
	providers []Provider
}

// Register adds p to the table. Nil providers, empty names, and names
// already present in this registry are rejected.
func (r *Registry) Register(p Provider) error {
	if p == nil {
		return fmt.Errorf("register provider: nil provider")
	}
	name := p.Name()
	if name == "" {
		return fmt.Errorf("register provider: empty name")
	}
	for _, existing := range r.providers {
		if existing.Name() == name {
			return fmt.Errorf("register provider: duplicate name %q", name)
		}
	}
	r.providers = append(r.providers, p)
	return nil
}

// Providers returns the table sorted by ascending priority. The sort is
// stable, so providers sharing a priority keep registration order.
func (r *Registry) Providers() []Provider {
	out := make([]Provider, len(r.providers))
	copy(out, r.providers)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority() < out[j].Priority()
	})
	return out
}

// Status reports the current availability of every registered provider.
func (r *Registry) Status() map[string]bool {
	out := make(map[string]bool, len(r.providers))
	for _, p := range r.providers {
		out[p.Name()] = p.Available()
	}
	return out
}
