package reconcile

import (
	"fmt"
	"math"

	"koperasikasir/backend/internal/domain"
	"koperasikasir/backend/internal/store"
)

// Engine computes expected cash positions for a shift and classifies
// the difference against the physically counted drawer amount.
type Engine struct {
	minorAbsLimit    int64
	minorPctLimit    float64
	moderateAbsLimit int64
	moderatePctLimit float64
}

func NewEngine() *Engine {
	return &Engine{
		minorAbsLimit:    10_000,
		minorPctLimit:    1.0,
		moderateAbsLimit: 50_000,
		moderatePctLimit: 5.0,
	}
}

// ComputeExpectedCash aggregates a shift's sales into a cash summary.
// Only cash payments move the drawer, credit sales are tracked as
// receivables and never contribute to expected cash.
func (e *Engine) ComputeExpectedCash(openingFloat int64, sales []domain.Transaction) (domain.CashSummary, error) {
	if openingFloat < 0 {
		return domain.CashSummary{}, fmt.Errorf("%w: opening float is negative", store.ErrDataCorruption)
	}

	summary := domain.CashSummary{}
	for _, sale := range sales {
		if sale.Total < 0 {
			return domain.CashSummary{}, fmt.Errorf("%w: transaction %s has negative total", store.ErrDataCorruption, sale.ID)
		}
		summary.TotalSales += sale.Total
		summary.TransactionCount++
		switch sale.PaymentMethod {
		case domain.PaymentCash:
			summary.TotalCash += sale.Total
		case domain.PaymentCredit:
			summary.TotalCredit += sale.Total
		default:
			return domain.CashSummary{}, fmt.Errorf("%w: transaction %s has unknown payment method %q", store.ErrDataCorruption, sale.ID, sale.PaymentMethod)
		}
	}
	summary.ExpectedCash = openingFloat + summary.TotalCash
	return summary, nil
}

// Reconcile compares the counted drawer amount against the expected
// cash and grades the discrepancy. An explanation is required for any
// non-zero difference.
func (e *Engine) Reconcile(counted int64, summary domain.CashSummary) (domain.ReconciliationResult, error) {
	if counted < 0 {
		return domain.ReconciliationResult{}, fmt.Errorf("%w: counted cash cannot be negative", store.ErrValidation)
	}

	diff := counted - summary.ExpectedCash
	result := domain.ReconciliationResult{
		ExpectedCash:       summary.ExpectedCash,
		CountedCash:        counted,
		Difference:         diff,
		AbsoluteDifference: absInt64(diff),
	}
	if summary.ExpectedCash > 0 {
		result.PercentDifference = math.Abs(float64(diff)) / float64(summary.ExpectedCash) * 100
	}

	switch {
	case diff == 0:
		result.Status = domain.ReconcileStatusBalanced
	case diff > 0:
		result.Status = domain.ReconcileStatusOver
	default:
		result.Status = domain.ReconcileStatusShort
	}

	result.Severity = e.classify(result.AbsoluteDifference, result.PercentDifference, summary.ExpectedCash)
	result.ExplanationRequired = diff != 0
	return result, nil
}

func (e *Engine) classify(absDiff int64, pctDiff float64, expected int64) string {
	if absDiff == 0 {
		return domain.SeverityNormal
	}
	if absDiff <= e.minorAbsLimit || (expected > 0 && pctDiff <= e.minorPctLimit) {
		return domain.SeverityRingan
	}
	if absDiff <= e.moderateAbsLimit || (expected > 0 && pctDiff <= e.moderatePctLimit) {
		return domain.SeveritySedang
	}
	return domain.SeverityBerat
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
