package models

import "github.com/shopspring/decimal"

// Agent is a node in the reseller hierarchy. ParentAgentID is a lookup key only;
// an empty value marks the top of the chain.
type Agent struct {
	ID                 string          `json:"id"`
	ParentAgentID      string          `json:"parentAgentId,omitempty"`
	CommissionRateType RateType        `json:"commissionRateType"`
	BaseCommissionRate decimal.Decimal `json:"baseCommissionRate"`
	MarkupRate         decimal.Decimal `json:"markupRate"`
}

// HasParent reports whether the agent points at an upline agent.
func (a *Agent) HasParent() bool {
	return a.ParentAgentID != ""
}
