package services

import (
	"time"

	"github.com/HSouheill/barrim_commission/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CommissionAmountPlaces is the scale every stored commission amount is rounded to.
const CommissionAmountPlaces = 4

// NormalizeAmount rounds half-up (away from zero) to CommissionAmountPlaces digits.
func NormalizeAmount(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(CommissionAmountPlaces)
}

// CommissionRecordBuilder turns an evaluated amount into a pending record.
type CommissionRecordBuilder struct {
	newID func() string
	now   func() time.Time
}

func NewCommissionRecordBuilder(newID func() string, now func() time.Time) *CommissionRecordBuilder {
	if newID == nil {
		newID = uuid.NewString
	}
	if now == nil {
		now = time.Now
	}
	return &CommissionRecordBuilder{newID: newID, now: now}
}

// Build returns false when the normalized amount is not strictly positive.
func (b *CommissionRecordBuilder) Build(tx models.Transaction, agent *models.Agent, level int, amount decimal.Decimal) (models.CommissionRecord, bool) {
	normalized := NormalizeAmount(amount)
	if !normalized.IsPositive() {
		return models.CommissionRecord{}, false
	}

	return models.CommissionRecord{
		ID:               b.newID(),
		TransactionID:    tx.ID,
		AgentID:          agent.ID,
		CommissionAmount: normalized,
		Currency:         tx.Currency,
		CommissionType:   agent.CommissionRateType,
		CommissionRate:   agent.BaseCommissionRate,
		MarkupRate:       agent.MarkupRate,
		Level:            level,
		Status:           models.CommissionPending,
		CreatedAt:        b.now().UTC(),
	}, true
}
