// Package agents implements the response agents and their registry. Agents
// are registered once at startup and looked up per request; the registry is
// read-mostly and safe for concurrent use.
package agents

import (
	"fmt"
	"sort"
	"sync"

	"attune/internal/types"
)

// Registry resolves agent identifiers to agents.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]types.Agent
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{agents: make(map[string]types.Agent)}
}

// Register adds an agent under its own ID, replacing any previous
// registration.
func (r *Registry) Register(a types.Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[a.ID()] = a
}

// Get resolves an agent ID.
func (r *Registry) Get(id string) (types.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.agents[id]
	if !ok {
		return nil, fmt.Errorf("agent %q not registered", id)
	}
	return a, nil
}

// IDs returns the registered agent IDs, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.agents))
	for id := range r.agents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
