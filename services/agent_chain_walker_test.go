package services

import (
	"context"
	"errors"
	"testing"

	"github.com/HSouheill/barrim_commission/models"
	"github.com/HSouheill/barrim_commission/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type walkStep struct {
	id    string
	level int
}

func walkAll(t *testing.T, chain *AgentChain) []walkStep {
	t.Helper()
	var steps []walkStep
	for chain.Next() {
		steps = append(steps, walkStep{id: chain.Agent().ID, level: chain.Level()})
	}
	return steps
}

func TestAgentChainWalker_FollowsParentsUntilRoot(t *testing.T) {
	repo := repositories.NewInMemoryAgentRepository(percentageChain(3, "0.01")...)
	walker := NewAgentChainWalker(repo, nil)

	chain := walker.Walk(context.Background(), models.Transaction{ID: "tx-1", AgentID: "A1"})
	steps := walkAll(t, chain)

	require.NoError(t, chain.Err())
	assert.Equal(t, []walkStep{{"A1", 1}, {"A2", 2}, {"A3", 3}}, steps)
	assert.Equal(t, []string{"A1", "A2", "A3"}, repo.Lookups())
	assert.False(t, chain.Next(), "a finished chain stays finished")
}

func TestAgentChainWalker_StopsAtMaxLevelsWithoutReadingFurther(t *testing.T) {
	repo := repositories.NewInMemoryAgentRepository(percentageChain(8, "0.01")...)
	walker := NewAgentChainWalker(repo, nil)

	chain := walker.Walk(context.Background(), models.Transaction{ID: "tx-1", AgentID: "A1"})
	steps := walkAll(t, chain)

	require.NoError(t, chain.Err())
	assert.Len(t, steps, MaxAgentLevels)
	assert.Equal(t, MaxAgentLevels, steps[len(steps)-1].level)
	assert.Equal(t, []string{"A1", "A2", "A3", "A4", "A5"}, repo.Lookups())
}

func TestAgentChainWalker_CycleIsBoundedByDepth(t *testing.T) {
	repo := repositories.NewInMemoryAgentRepository(
		agent("A1", "A2", models.Percentage, "0.01", "0"),
		agent("A2", "A1", models.Percentage, "0.01", "0"),
	)
	walker := NewAgentChainWalker(repo, nil)

	chain := walker.Walk(context.Background(), models.Transaction{ID: "tx-1", AgentID: "A1"})
	steps := walkAll(t, chain)

	require.NoError(t, chain.Err())
	assert.Equal(t, []walkStep{{"A1", 1}, {"A2", 2}, {"A1", 3}, {"A2", 4}, {"A1", 5}}, steps)
}

func TestAgentChainWalker_MissingAgentEndsChainWithDiagnostic(t *testing.T) {
	repo := repositories.NewInMemoryAgentRepository(
		agent("A1", "A2", models.Percentage, "0.01", "0"),
		agent("A2", "A3", models.Percentage, "0.01", "0"),
	)
	diag := &diagnosticRecorder{}
	walker := NewAgentChainWalker(repo, diag)

	chain := walker.Walk(context.Background(), models.Transaction{ID: "tx-9", AgentID: "A1"})
	steps := walkAll(t, chain)

	require.NoError(t, chain.Err())
	assert.Equal(t, []walkStep{{"A1", 1}, {"A2", 2}}, steps)
	assert.Equal(t, []Diagnostic{{
		TransactionID: "tx-9",
		Level:         3,
		AgentID:       "A3",
		Reason:        ReasonAgentNotFound,
	}}, diag.Events())
}

func TestAgentChainWalker_NoDirectAgent(t *testing.T) {
	repo := repositories.NewInMemoryAgentRepository()
	walker := NewAgentChainWalker(repo, nil)

	chain := walker.Walk(context.Background(), models.Transaction{ID: "tx-1"})

	assert.False(t, chain.Next())
	assert.NoError(t, chain.Err())
	assert.Empty(t, repo.Lookups())
}

func TestAgentChainWalker_StoreFailureIsReported(t *testing.T) {
	repo := repositories.NewInMemoryAgentRepository(percentageChain(3, "0.01")...)
	outage := errors.New("connection refused")
	repo.FailOn("A2", outage)
	walker := NewAgentChainWalker(repo, nil)

	chain := walker.Walk(context.Background(), models.Transaction{ID: "tx-1", AgentID: "A1"})
	steps := walkAll(t, chain)

	assert.Equal(t, []walkStep{{"A1", 1}}, steps)
	require.Error(t, chain.Err())
	assert.ErrorIs(t, chain.Err(), models.ErrStoreUnavailable)
	assert.ErrorIs(t, chain.Err(), outage)
	assert.Nil(t, chain.Agent())
}

type nilAgentRepository struct{}

func (nilAgentRepository) FindAgentByID(context.Context, string) (*models.Agent, error) {
	return nil, nil
}

func TestAgentChainWalker_NilAgentTreatedAsNotFound(t *testing.T) {
	diag := &diagnosticRecorder{}
	walker := NewAgentChainWalker(nilAgentRepository{}, diag)

	chain := walker.Walk(context.Background(), models.Transaction{ID: "tx-1", AgentID: "A1"})

	assert.False(t, chain.Next())
	assert.NoError(t, chain.Err())
	require.Len(t, diag.Events(), 1)
	assert.Equal(t, ReasonAgentNotFound, diag.Events()[0].Reason)
}
