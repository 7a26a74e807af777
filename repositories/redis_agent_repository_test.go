package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/HSouheill/barrim_commission/models"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisRepo(t *testing.T) (*RedisAgentRepository, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisAgentRepository(client, time.Second), srv
}

func TestRedisAgentRepository_FindAgentByID(t *testing.T) {
	repo, srv := newRedisRepo(t)
	srv.HSet("agent:A1",
		"parentAgentId", "A2",
		"commissionRateType", "percentage",
		"baseCommissionRate", "0.05",
	)

	agent, err := repo.FindAgentByID(context.Background(), "A1")
	require.NoError(t, err)
	assert.Equal(t, "A1", agent.ID)
	assert.Equal(t, "A2", agent.ParentAgentID)
	assert.Equal(t, models.RatePercentage, agent.CommissionRateType.Kind)
	assert.Equal(t, "0.05", agent.BaseCommissionRate.String())
	assert.True(t, agent.MarkupRate.IsZero())
}

func TestRedisAgentRepository_NotFound(t *testing.T) {
	repo, _ := newRedisRepo(t)

	agent, err := repo.FindAgentByID(context.Background(), "ghost")
	assert.Nil(t, agent)
	assert.ErrorIs(t, err, models.ErrAgentNotFound)
}

func TestRedisAgentRepository_StoreError(t *testing.T) {
	repo, srv := newRedisRepo(t)
	srv.SetError("LOADING Redis is loading the dataset in memory")

	_, err := repo.FindAgentByID(context.Background(), "A1")
	assert.ErrorIs(t, err, models.ErrStoreUnavailable)
	assert.NotErrorIs(t, err, models.ErrAgentNotFound)
}

func TestRedisAgentRepository_MalformedRate(t *testing.T) {
	repo, srv := newRedisRepo(t)
	srv.HSet("agent:A1", "commissionRateType", "markup", "markupRate", "lots")

	_, err := repo.FindAgentByID(context.Background(), "A1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrStoreUnavailable)
}

func TestRedisAgentRepository_UpsertAgent(t *testing.T) {
	repo, srv := newRedisRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.UpsertAgent(ctx, models.Agent{
		ID:                 "A1",
		ParentAgentID:      "A2",
		CommissionRateType: models.Markup,
		BaseCommissionRate: decimal.Zero,
		MarkupRate:         decimal.RequireFromString("0.125"),
	}))
	assert.Equal(t, "A2", srv.HGet("agent:A1", "parentAgentId"))

	// re-parenting to the root must drop the old parent link
	require.NoError(t, repo.UpsertAgent(ctx, models.Agent{
		ID:                 "A1",
		CommissionRateType: models.ParseRateType("tiered"),
		BaseCommissionRate: decimal.NewFromInt(3),
		MarkupRate:         decimal.Zero,
	}))

	agent, err := repo.FindAgentByID(ctx, "A1")
	require.NoError(t, err)
	assert.False(t, agent.HasParent())
	assert.Equal(t, "tiered", agent.CommissionRateType.String())
	assert.False(t, agent.CommissionRateType.Known())
	assert.Equal(t, "3", agent.BaseCommissionRate.String())
}
