package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/HSouheill/barrim_commission/models"
)

// MaxAgentLevels bounds how many ancestors are consulted for one transaction.
// It is also the only guard against a cyclic parent graph.
const MaxAgentLevels = 5

// AgentRepository is the read-only agent lookup the engine depends on.
// A missing agent is reported as models.ErrAgentNotFound; store failures as any other error.
type AgentRepository interface {
	FindAgentByID(ctx context.Context, id string) (*models.Agent, error)
}

// AgentChainWalker walks the hierarchy upward from a transaction's direct agent.
type AgentChainWalker struct {
	agents    AgentRepository
	diag      DiagnosticSink
	maxLevels int
}

func NewAgentChainWalker(agents AgentRepository, diag DiagnosticSink) *AgentChainWalker {
	if diag == nil {
		diag = discardSink{}
	}
	return &AgentChainWalker{agents: agents, diag: diag, maxLevels: MaxAgentLevels}
}

// Walk starts a fresh traversal for tx. Nothing is read until the first call to Next.
func (w *AgentChainWalker) Walk(ctx context.Context, tx models.Transaction) *AgentChain {
	return &AgentChain{
		ctx:    ctx,
		walker: w,
		txID:   tx.ID,
		nextID: tx.AgentID,
		level:  1,
	}
}

// AgentChain is a single-use cursor over (agent, level) pairs:
//
//	chain := walker.Walk(ctx, tx)
//	for chain.Next() {
//		use(chain.Agent(), chain.Level())
//	}
//	if err := chain.Err(); err != nil { ... }
type AgentChain struct {
	ctx    context.Context
	walker *AgentChainWalker
	txID   string

	nextID string
	level  int
	done   bool

	agent        *models.Agent
	currentLevel int
	err          error
}

// Next advances to the next ancestor. It returns false once the chain has stopped,
// either normally or because a lookup failed; Err tells the two apart.
func (c *AgentChain) Next() bool {
	if c.done {
		return false
	}
	if c.nextID == "" || c.level > c.walker.maxLevels {
		return c.stop()
	}

	agent, err := c.walker.agents.FindAgentByID(c.ctx, c.nextID)
	if err == nil && agent == nil {
		err = models.ErrAgentNotFound
	}
	if errors.Is(err, models.ErrAgentNotFound) {
		c.walker.diag.Emit(c.ctx, Diagnostic{
			TransactionID: c.txID,
			Level:         c.level,
			AgentID:       c.nextID,
			Reason:        ReasonAgentNotFound,
		})
		return c.stop()
	}
	if err != nil {
		c.err = fmt.Errorf("look up agent %s at level %d: %w", c.nextID, c.level, err)
		return c.stop()
	}

	c.agent = agent
	c.currentLevel = c.level
	c.nextID = agent.ParentAgentID
	c.level++
	return true
}

func (c *AgentChain) stop() bool {
	c.done = true
	c.agent = nil
	c.currentLevel = 0
	return false
}

// Agent returns the agent reached by the last successful Next.
func (c *AgentChain) Agent() *models.Agent {
	return c.agent
}

// Level returns the 1-based level of Agent.
func (c *AgentChain) Level() int {
	return c.currentLevel
}

// Err returns the lookup failure that ended the chain, if any.
func (c *AgentChain) Err() error {
	return c.err
}
