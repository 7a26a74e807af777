package services

import (
	"github.com/HSouheill/barrim_commission/models"
	"github.com/shopspring/decimal"
)

// RateStrategy turns a transaction amount into one agent's commission.
type RateStrategy interface {
	Commission(agent *models.Agent, amount decimal.Decimal) decimal.Decimal
}

// RateStrategyFunc adapts a function to RateStrategy.
type RateStrategyFunc func(agent *models.Agent, amount decimal.Decimal) decimal.Decimal

func (f RateStrategyFunc) Commission(agent *models.Agent, amount decimal.Decimal) decimal.Decimal {
	return f(agent, amount)
}

// PercentageOfAmount pays amount × baseCommissionRate.
var PercentageOfAmount = RateStrategyFunc(func(agent *models.Agent, amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(agent.BaseCommissionRate)
})

// FixedAmount pays baseCommissionRate regardless of the transaction amount.
var FixedAmount = RateStrategyFunc(func(agent *models.Agent, _ decimal.Decimal) decimal.Decimal {
	return agent.BaseCommissionRate
})

// MarkupOnAmount pays amount × markupRate. It approximates a markup without a cost basis;
// replace it with WithRateStrategy(models.RateMarkup, ...) once cost data is available.
var MarkupOnAmount = RateStrategyFunc(func(agent *models.Agent, amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(agent.MarkupRate)
})

func defaultRateStrategies() map[models.RateKind]RateStrategy {
	return map[models.RateKind]RateStrategy{
		models.RatePercentage: PercentageOfAmount,
		models.RateFixed:      FixedAmount,
		models.RateMarkup:     MarkupOnAmount,
	}
}

// CommissionRuleEvaluator dispatches on an agent's rate type.
type CommissionRuleEvaluator struct {
	strategies map[models.RateKind]RateStrategy
}

func NewCommissionRuleEvaluator(strategies map[models.RateKind]RateStrategy) *CommissionRuleEvaluator {
	if strategies == nil {
		strategies = defaultRateStrategies()
	}
	return &CommissionRuleEvaluator{strategies: strategies}
}

// Evaluate returns the unrounded commission owed to agent on amount. The boolean is false
// when the agent's rate type is unknown or has no strategy; the amount is then zero and
// the caller is expected to report an unsupported_rate_type diagnostic.
func (e *CommissionRuleEvaluator) Evaluate(agent *models.Agent, amount decimal.Decimal) (decimal.Decimal, bool) {
	if !agent.CommissionRateType.Known() {
		return decimal.Zero, false
	}
	strategy, ok := e.strategies[agent.CommissionRateType.Kind]
	if !ok || strategy == nil {
		return decimal.Zero, false
	}
	return strategy.Commission(agent, amount), true
}
