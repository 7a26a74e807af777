package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CommissionStatus tracks a record through the ledger. Records are created pending;
// settling and voiding happen in the ledger, not here.
type CommissionStatus string

const (
	CommissionPending CommissionStatus = "pending"
	CommissionSettled CommissionStatus = "settled"
	CommissionVoided  CommissionStatus = "voided"
)

// CommissionRecord is an amount owed to one agent for one transaction.
type CommissionRecord struct {
	ID               string           `json:"id" validate:"required"`
	TransactionID    string           `json:"transactionId" validate:"required"`
	AgentID          string           `json:"agentId" validate:"required"`
	CommissionAmount decimal.Decimal  `json:"commissionAmount"`
	Currency         string           `json:"currency"`
	CommissionType   RateType         `json:"commissionType"`
	CommissionRate   decimal.Decimal  `json:"commissionRate"`
	MarkupRate       decimal.Decimal  `json:"markupRate"`
	Level            int              `json:"level" validate:"min=1,max=5"`
	Status           CommissionStatus `json:"status" validate:"oneof=pending settled voided"`
	CreatedAt        time.Time        `json:"createdAt"`
}
