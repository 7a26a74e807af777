package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/HSouheill/barrim_commission/models"
	"github.com/HSouheill/barrim_commission/utils"
	"github.com/go-redis/redis/v8"
)

const agentKeyPrefix = "agent:"

// RedisAgentRepository keeps each agent in a hash at agent:{id}.
type RedisAgentRepository struct {
	client  *redis.Client
	timeout time.Duration
}

func NewRedisAgentRepository(client *redis.Client, timeout time.Duration) *RedisAgentRepository {
	if timeout <= 0 {
		timeout = defaultLookupTimeout
	}
	return &RedisAgentRepository{client: client, timeout: timeout}
}

func agentKey(id string) string {
	return agentKeyPrefix + id
}

func (r *RedisAgentRepository) FindAgentByID(ctx context.Context, id string) (*models.Agent, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	fields, err := r.client.HGetAll(ctx, agentKey(id)).Result()
	if err != nil {
		return nil, &models.StoreError{Op: "find agent", Key: id, Err: err}
	}
	if len(fields) == 0 {
		return nil, models.ErrAgentNotFound
	}

	base, err := utils.ParseDecimal(fields["baseCommissionRate"])
	if err != nil {
		return nil, fmt.Errorf("agent %s baseCommissionRate: %w", id, err)
	}
	markup, err := utils.ParseDecimal(fields["markupRate"])
	if err != nil {
		return nil, fmt.Errorf("agent %s markupRate: %w", id, err)
	}

	return &models.Agent{
		ID:                 id,
		ParentAgentID:      fields["parentAgentId"],
		CommissionRateType: models.ParseRateType(fields["commissionRateType"]),
		BaseCommissionRate: base,
		MarkupRate:         markup,
	}, nil
}

// UpsertAgent replaces the stored hash for agent.
func (r *RedisAgentRepository) UpsertAgent(ctx context.Context, agent models.Agent) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	fields := map[string]interface{}{
		"commissionRateType": agent.CommissionRateType.String(),
		"baseCommissionRate": agent.BaseCommissionRate.String(),
		"markupRate":         agent.MarkupRate.String(),
	}
	if agent.HasParent() {
		fields["parentAgentId"] = agent.ParentAgentID
	}

	key := agentKey(agent.ID)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, fields)
		return nil
	})
	if err != nil {
		return &models.StoreError{Op: "upsert agent", Key: agent.ID, Err: err}
	}
	return nil
}
