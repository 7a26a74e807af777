package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/HSouheill/barrim_commission/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	AgentsCollection     = "agents"
	defaultLookupTimeout = 3 * time.Second
)

type agentDocument struct {
	ID                 string          `bson:"_id"`
	ParentAgentID      string          `bson:"parentAgentId,omitempty"`
	CommissionRateType models.RateType `bson:"commissionRateType"`
	BaseCommissionRate bson.RawValue   `bson:"baseCommissionRate"`
	MarkupRate         bson.RawValue   `bson:"markupRate"`
}

func (d agentDocument) toModel() (*models.Agent, error) {
	base, err := decimalFromBSON(d.BaseCommissionRate)
	if err != nil {
		return nil, fmt.Errorf("agent %s baseCommissionRate: %w", d.ID, err)
	}
	markup, err := decimalFromBSON(d.MarkupRate)
	if err != nil {
		return nil, fmt.Errorf("agent %s markupRate: %w", d.ID, err)
	}
	return &models.Agent{
		ID:                 d.ID,
		ParentAgentID:      d.ParentAgentID,
		CommissionRateType: d.CommissionRateType,
		BaseCommissionRate: base,
		MarkupRate:         markup,
	}, nil
}

// AgentRepository reads agents from MongoDB. Each lookup is bounded by its own timeout.
type AgentRepository struct {
	collection *mongo.Collection
	timeout    time.Duration
}

func NewAgentRepository(db *mongo.Database, timeout time.Duration) *AgentRepository {
	if timeout <= 0 {
		timeout = defaultLookupTimeout
	}
	return &AgentRepository{
		collection: db.Collection(AgentsCollection),
		timeout:    timeout,
	}
}

func (r *AgentRepository) FindAgentByID(ctx context.Context, id string) (*models.Agent, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var doc agentDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrAgentNotFound
	}
	if err != nil {
		return nil, &models.StoreError{Op: "find agent", Key: id, Err: err}
	}

	return doc.toModel()
}
