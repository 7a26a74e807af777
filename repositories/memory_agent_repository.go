package repositories

import (
	"context"
	"sync"

	"github.com/HSouheill/barrim_commission/models"
)

// InMemoryAgentRepository serves agents from a map. It records every lookup so callers
// can check how far a traversal went.
type InMemoryAgentRepository struct {
	mu      sync.RWMutex
	agents  map[string]models.Agent
	lookups []string
	failOn  map[string]error
}

func NewInMemoryAgentRepository(agents ...models.Agent) *InMemoryAgentRepository {
	r := &InMemoryAgentRepository{
		agents: make(map[string]models.Agent, len(agents)),
		failOn: make(map[string]error),
	}
	for _, a := range agents {
		r.agents[a.ID] = a
	}
	return r
}

func (r *InMemoryAgentRepository) Put(agent models.Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[agent.ID] = agent
}

// FailOn makes lookups of id return a StoreError wrapping err.
func (r *InMemoryAgentRepository) FailOn(id string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failOn[id] = err
}

func (r *InMemoryAgentRepository) FindAgentByID(ctx context.Context, id string) (*models.Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lookups = append(r.lookups, id)

	if err := ctx.Err(); err != nil {
		return nil, &models.StoreError{Op: "find agent", Key: id, Err: err}
	}
	if err, ok := r.failOn[id]; ok {
		return nil, &models.StoreError{Op: "find agent", Key: id, Err: err}
	}
	agent, ok := r.agents[id]
	if !ok {
		return nil, models.ErrAgentNotFound
	}
	return &agent, nil
}

// Lookups returns the ids requested so far, in order.
func (r *InMemoryAgentRepository) Lookups() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.lookups...)
}
