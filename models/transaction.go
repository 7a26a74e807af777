package models

import "github.com/shopspring/decimal"

// Transaction is a settled payment handed over by the payment flow.
// AgentID is empty when the merchant has no direct agent.
// Attempts counts commission runs started for it, including the current one.
type Transaction struct {
	ID         string          `json:"id"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	MerchantID string          `json:"merchantId"`
	AgentID    string          `json:"agentId,omitempty"`
	Attempts   int             `json:"attempts,omitempty"`
}
