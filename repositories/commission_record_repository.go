package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/HSouheill/barrim_commission/models"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CommissionRecordsCollection = "commission_records"
	commissionAmountPlaces      = 4
	duplicateKeyCode            = 11000
)

type commissionRecordDocument struct {
	ID               string                  `bson:"_id"`
	TransactionID    string                  `bson:"transactionId"`
	AgentID          string                  `bson:"agentId"`
	CommissionAmount primitive.Decimal128    `bson:"commissionAmount"`
	Currency         string                  `bson:"currency"`
	CommissionType   models.RateType         `bson:"commissionType"`
	CommissionRate   primitive.Decimal128    `bson:"commissionRate"`
	MarkupRate       primitive.Decimal128    `bson:"markupRate"`
	Level            int                     `bson:"level"`
	Status           models.CommissionStatus `bson:"status"`
	CreatedAt        time.Time               `bson:"createdAt"`
}

func newCommissionRecordDocument(rec models.CommissionRecord) (commissionRecordDocument, error) {
	amount, err := amountToBSON(rec.CommissionAmount, commissionAmountPlaces)
	if err != nil {
		return commissionRecordDocument{}, fmt.Errorf("commissionAmount: %w", err)
	}
	rate, err := decimalToBSON(rec.CommissionRate)
	if err != nil {
		return commissionRecordDocument{}, fmt.Errorf("commissionRate: %w", err)
	}
	markup, err := decimalToBSON(rec.MarkupRate)
	if err != nil {
		return commissionRecordDocument{}, fmt.Errorf("markupRate: %w", err)
	}
	return commissionRecordDocument{
		ID:               rec.ID,
		TransactionID:    rec.TransactionID,
		AgentID:          rec.AgentID,
		CommissionAmount: amount,
		Currency:         rec.Currency,
		CommissionType:   rec.CommissionType,
		CommissionRate:   rate,
		MarkupRate:       markup,
		Level:            rec.Level,
		Status:           rec.Status,
		CreatedAt:        rec.CreatedAt,
	}, nil
}

func (d commissionRecordDocument) toModel() (models.CommissionRecord, error) {
	amount, err := decimal.NewFromString(d.CommissionAmount.String())
	if err != nil {
		return models.CommissionRecord{}, fmt.Errorf("record %s commissionAmount: %w", d.ID, err)
	}
	rate, err := decimal.NewFromString(d.CommissionRate.String())
	if err != nil {
		return models.CommissionRecord{}, fmt.Errorf("record %s commissionRate: %w", d.ID, err)
	}
	markup, err := decimal.NewFromString(d.MarkupRate.String())
	if err != nil {
		return models.CommissionRecord{}, fmt.Errorf("record %s markupRate: %w", d.ID, err)
	}
	return models.CommissionRecord{
		ID:               d.ID,
		TransactionID:    d.TransactionID,
		AgentID:          d.AgentID,
		CommissionAmount: amount,
		Currency:         d.Currency,
		CommissionType:   d.CommissionType,
		CommissionRate:   rate,
		MarkupRate:       markup,
		Level:            d.Level,
		Status:           d.Status,
		CreatedAt:        d.CreatedAt,
	}, nil
}

// CommissionRecordRepository stores computed records in the commission_records collection.
type CommissionRecordRepository struct {
	collection *mongo.Collection
	validate   *validator.Validate
}

func NewCommissionRecordRepository(db *mongo.Database) *CommissionRecordRepository {
	return &CommissionRecordRepository{
		collection: db.Collection(CommissionRecordsCollection),
		validate:   validator.New(),
	}
}

// InsertPending writes records in one unordered batch. Records already present from an
// earlier attempt (same transaction, agent and level) are skipped rather than reported.
func (r *CommissionRecordRepository) InsertPending(ctx context.Context, records []models.CommissionRecord) error {
	if len(records) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(records))
	for _, rec := range records {
		if err := r.validate.Struct(rec); err != nil {
			return fmt.Errorf("invalid commission record %s: %w", rec.ID, err)
		}
		doc, err := newCommissionRecordDocument(rec)
		if err != nil {
			return fmt.Errorf("encode commission record %s: %w", rec.ID, err)
		}
		docs = append(docs, doc)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := r.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err != nil && !onlyDuplicateKeyErrors(err) {
		return &models.StoreError{Op: "insert commission records", Key: records[0].TransactionID, Err: err}
	}
	return nil
}

func onlyDuplicateKeyErrors(err error) bool {
	var bwe mongo.BulkWriteException
	if !errors.As(err, &bwe) {
		return false
	}
	if bwe.WriteConcernError != nil || len(bwe.WriteErrors) == 0 {
		return false
	}
	for _, we := range bwe.WriteErrors {
		if we.Code != duplicateKeyCode {
			return false
		}
	}
	return true
}

// FindByTransaction returns the records of one transaction ordered by level.
func (r *CommissionRecordRepository) FindByTransaction(ctx context.Context, transactionID string) ([]models.CommissionRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "level", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"transactionId": transactionID}, opts)
	if err != nil {
		return nil, &models.StoreError{Op: "find commission records", Key: transactionID, Err: err}
	}
	defer cursor.Close(ctx)

	records := []models.CommissionRecord{}
	for cursor.Next(ctx) {
		var doc commissionRecordDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode commission record: %w", err)
		}
		rec, err := doc.toModel()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := cursor.Err(); err != nil {
		return nil, &models.StoreError{Op: "find commission records", Key: transactionID, Err: err}
	}
	return records, nil
}

// PendingBalance sums the pending commissions owed to an agent in one currency.
func (r *CommissionRecordRepository) PendingBalance(ctx context.Context, agentID, currency string) (decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"agentId":  agentID,
			"currency": currency,
			"status":   models.CommissionPending,
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$commissionAmount"},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return decimal.Zero, &models.StoreError{Op: "aggregate pending balance", Key: agentID, Err: err}
	}
	defer cursor.Close(ctx)

	var result struct {
		Total bson.RawValue `bson:"total"`
	}
	if !cursor.Next(ctx) {
		if err := cursor.Err(); err != nil {
			return decimal.Zero, &models.StoreError{Op: "aggregate pending balance", Key: agentID, Err: err}
		}
		return decimal.Zero, nil
	}
	if err := cursor.Decode(&result); err != nil {
		return decimal.Zero, fmt.Errorf("decode pending balance: %w", err)
	}
	return decimalFromBSON(result.Total)
}
