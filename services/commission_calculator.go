package services

import (
	"context"
	"fmt"
	"time"

	"github.com/HSouheill/barrim_commission/models"
)

// CommissionCalculator computes the pending commission records for one transaction.
// It keeps no state between calls and may be shared across goroutines.
type CommissionCalculator struct {
	walker    *AgentChainWalker
	evaluator *CommissionRuleEvaluator
	builder   *CommissionRecordBuilder
	diag      DiagnosticSink
}

type calculatorOptions struct {
	diag       DiagnosticSink
	strategies map[models.RateKind]RateStrategy
	newID      func() string
	now        func() time.Time
}

// CalculatorOption customizes a CommissionCalculator.
type CalculatorOption func(*calculatorOptions)

// WithDiagnosticSink routes agent_not_found and unsupported_rate_type events to sink.
func WithDiagnosticSink(sink DiagnosticSink) CalculatorOption {
	return func(o *calculatorOptions) { o.diag = sink }
}

// WithRateStrategy replaces the strategy used for kind.
func WithRateStrategy(kind models.RateKind, strategy RateStrategy) CalculatorOption {
	return func(o *calculatorOptions) { o.strategies[kind] = strategy }
}

// WithIDGenerator overrides how record ids are allocated.
func WithIDGenerator(newID func() string) CalculatorOption {
	return func(o *calculatorOptions) { o.newID = newID }
}

// WithClock overrides the record creation time source.
func WithClock(now func() time.Time) CalculatorOption {
	return func(o *calculatorOptions) { o.now = now }
}

func NewCommissionCalculator(agents AgentRepository, opts ...CalculatorOption) *CommissionCalculator {
	o := calculatorOptions{
		diag:       discardSink{},
		strategies: defaultRateStrategies(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.diag == nil {
		o.diag = discardSink{}
	}

	return &CommissionCalculator{
		walker:    NewAgentChainWalker(agents, o.diag),
		evaluator: NewCommissionRuleEvaluator(o.strategies),
		builder:   NewCommissionRecordBuilder(o.newID, o.now),
		diag:      o.diag,
	}
}

// CalculateCommission returns one pending record per qualifying ancestor, ordered by level.
// Missing agents, unsupported rate types and non-positive amounts shorten or empty the
// result without an error. An error is returned only when the agent store fails; it
// matches models.ErrStoreUnavailable when the repository reports it that way.
func (c *CommissionCalculator) CalculateCommission(ctx context.Context, tx models.Transaction) ([]models.CommissionRecord, error) {
	records := []models.CommissionRecord{}
	if !tx.Amount.IsPositive() {
		return records, nil
	}

	chain := c.walker.Walk(ctx, tx)
	for chain.Next() {
		agent, level := chain.Agent(), chain.Level()

		amount, ok := c.evaluator.Evaluate(agent, tx.Amount)
		if !ok {
			c.diag.Emit(ctx, Diagnostic{
				TransactionID: tx.ID,
				Level:         level,
				AgentID:       agent.ID,
				Reason:        ReasonUnsupportedRateType,
				RateType:      agent.CommissionRateType.Raw,
			})
			continue
		}
		if record, ok := c.builder.Build(tx, agent, level, amount); ok {
			records = append(records, record)
		}
	}
	if err := chain.Err(); err != nil {
		return nil, fmt.Errorf("calculate commission for transaction %s: %w", tx.ID, err)
	}

	return records, nil
}
