package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/HSouheill/barrim_commission/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	TransactionsCollection = "transactions"
	defaultClaimLease      = 5 * time.Minute
)

// Values of a transaction's commissionStatus field.
const (
	TransactionUnprocessed = "unprocessed"
	TransactionProcessing  = "processing"
	TransactionProcessed   = "processed"
	TransactionInvalid     = "invalid"
)

type transactionDocument struct {
	ID         string        `bson:"_id"`
	Amount     bson.RawValue `bson:"amount"`
	Currency   string        `bson:"currency"`
	MerchantID string        `bson:"merchantId"`
	AgentID    string        `bson:"agentId,omitempty"`
	Attempts   int           `bson:"commissionAttempts"`
}

func (d transactionDocument) toModel() (*models.Transaction, error) {
	amount, err := decimalFromBSON(d.Amount)
	if err != nil {
		return nil, fmt.Errorf("transaction %s amount: %w", d.ID, err)
	}
	return &models.Transaction{
		ID:         d.ID,
		Amount:     amount,
		Currency:   d.Currency,
		MerchantID: d.MerchantID,
		AgentID:    d.AgentID,
		Attempts:   d.Attempts,
	}, nil
}

// TransactionRepository is the queue of payments waiting for commission calculation.
// Upstream writers insert transactions with commissionStatus "unprocessed".
type TransactionRepository struct {
	collection *mongo.Collection
	lease      time.Duration
	now        func() time.Time
}

// NewTransactionRepository returns a queue whose claims expire after lease, so a
// transaction held by a crashed worker is handed out again. Zero means five minutes.
func NewTransactionRepository(db *mongo.Database, lease time.Duration) *TransactionRepository {
	if lease <= 0 {
		lease = defaultClaimLease
	}
	return &TransactionRepository{
		collection: db.Collection(TransactionsCollection),
		lease:      lease,
		now:        time.Now,
	}
}

// ClaimNext atomically moves the oldest claimable transaction to processing, counts the
// attempt and returns it. Claimable means unprocessed and past its commissionRetryAt, or
// processing under a claim older than the lease. It returns nil, nil when nothing qualifies.
func (r *TransactionRepository) ClaimNext(ctx context.Context) (*models.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	now := r.now()
	filter := bson.M{"$or": bson.A{
		bson.M{
			"commissionStatus":  TransactionUnprocessed,
			"commissionRetryAt": bson.M{"$not": bson.M{"$gt": now}},
		},
		bson.M{
			"commissionStatus":    TransactionProcessing,
			"commissionClaimedAt": bson.M{"$lt": now.Add(-r.lease)},
		},
	}}
	update := bson.M{
		"$set": bson.M{
			"commissionStatus":    TransactionProcessing,
			"commissionClaimedAt": now,
		},
		"$inc": bson.M{"commissionAttempts": 1},
	}
	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "createdAt", Value: 1}}).
		SetReturnDocument(options.After)

	var doc transactionDocument
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, &models.StoreError{Op: "claim transaction", Key: TransactionUnprocessed, Err: err}
	}

	tx, err := doc.toModel()
	if err != nil {
		_ = r.MarkInvalid(ctx, doc.ID, err)
		return nil, err
	}
	return tx, nil
}

// MarkInvalid takes a transaction out of the queue for good.
func (r *TransactionRepository) MarkInvalid(ctx context.Context, transactionID string, cause error) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	set := bson.M{"commissionStatus": TransactionInvalid}
	if cause != nil {
		set["commissionLastError"] = cause.Error()
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": transactionID}, bson.M{"$set": set})
	if err != nil {
		return &models.StoreError{Op: "mark transaction invalid", Key: transactionID, Err: err}
	}
	return nil
}

func (r *TransactionRepository) MarkProcessed(ctx context.Context, transactionID string, recordCount int) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{"_id": transactionID, "commissionStatus": TransactionProcessing}
	update := bson.M{"$set": bson.M{
		"commissionStatus":      TransactionProcessed,
		"commissionRecordCount": recordCount,
		"commissionProcessedAt": r.now(),
	}}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return &models.StoreError{Op: "mark transaction processed", Key: transactionID, Err: err}
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("transaction %s is not being processed", transactionID)
	}
	return nil
}

// Release returns a claimed transaction to the queue and records why it failed.
// It is not claimable again before retryAt.
func (r *TransactionRepository) Release(ctx context.Context, transactionID string, cause error, retryAt time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	set := bson.M{
		"commissionStatus":  TransactionUnprocessed,
		"commissionRetryAt": retryAt,
	}
	if cause != nil {
		set["commissionLastError"] = cause.Error()
	}
	update := bson.M{"$set": set}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": transactionID, "commissionStatus": TransactionProcessing}, update)
	if err != nil {
		return &models.StoreError{Op: "release transaction", Key: transactionID, Err: err}
	}
	return nil
}
