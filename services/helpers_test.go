package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/HSouheill/barrim_commission/models"
	"github.com/shopspring/decimal"
)

type diagnosticRecorder struct {
	mu     sync.Mutex
	events []Diagnostic
}

func (r *diagnosticRecorder) Emit(_ context.Context, d Diagnostic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, d)
}

func (r *diagnosticRecorder) Events() []Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Diagnostic(nil), r.events...)
}

func agent(id, parent string, rateType models.RateType, base, markup string) models.Agent {
	return models.Agent{
		ID:                 id,
		ParentAgentID:      parent,
		CommissionRateType: rateType,
		BaseCommissionRate: decimal.RequireFromString(base),
		MarkupRate:         decimal.RequireFromString(markup),
	}
}

// chain builds n percentage agents A1 -> A2 -> ... -> An.
func percentageChain(n int, rate string) []models.Agent {
	agents := make([]models.Agent, 0, n)
	for i := 1; i <= n; i++ {
		parent := ""
		if i < n {
			parent = fmt.Sprintf("A%d", i+1)
		}
		agents = append(agents, agent(fmt.Sprintf("A%d", i), parent, models.Percentage, rate, "0"))
	}
	return agents
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("rec-%d", n)
	}
}
