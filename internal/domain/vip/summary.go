package vip

import (
	"github.com/clinic/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// LedgerRow is the loosely-typed row shape returned by the external ledger
// store. Rows are validated at the aggregator boundary before anything
// downstream touches them, so upstream schema drift stays contained.
type LedgerRow struct {
	Code              string
	TotalRevenue      decimal.Decimal
	NoncoveredRevenue decimal.Decimal
	CopayRevenue      decimal.Decimal
	VisitCount        int64
}

// Validate checks that the row is usable
func (r LedgerRow) Validate() error {
	if r.Code == "" {
		return shared.NewDomainError("INVALID_LEDGER_ROW", "Ledger row is missing the customer code")
	}
	if r.VisitCount < 0 {
		return shared.NewDomainError("INVALID_LEDGER_ROW", "Ledger row has a negative visit count")
	}
	return nil
}

// ToSummary converts a validated row into a typed summary for the given year
func (r LedgerRow) ToSummary(year int) LedgerSummary {
	return LedgerSummary{
		Code:              r.Code,
		Year:              year,
		TotalRevenue:      r.TotalRevenue,
		NoncoveredRevenue: r.NoncoveredRevenue,
		CopayRevenue:      r.CopayRevenue,
		VisitCount:        int(r.VisitCount),
	}
}

// LedgerSummary holds a customer's aggregated financial and visit metrics for
// one year (or lifetime when Year is 0). It is derived per run and never
// persisted. VisitCount counts distinct visit-days, not individual charges.
type LedgerSummary struct {
	Code              string          `json:"code"`
	Year              int             `json:"year"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	NoncoveredRevenue decimal.Decimal `json:"noncovered_revenue"`
	CopayRevenue      decimal.Decimal `json:"copay_revenue"`
	VisitCount        int             `json:"visit_count"`
}

// Add returns the metric-wise sum of two summaries. The receiver's code and
// year are kept; this is how a household's effective aggregate is built.
func (s LedgerSummary) Add(other LedgerSummary) LedgerSummary {
	return LedgerSummary{
		Code:              s.Code,
		Year:              s.Year,
		TotalRevenue:      s.TotalRevenue.Add(other.TotalRevenue),
		NoncoveredRevenue: s.NoncoveredRevenue.Add(other.NoncoveredRevenue),
		CopayRevenue:      s.CopayRevenue.Add(other.CopayRevenue),
		VisitCount:        s.VisitCount + other.VisitCount,
	}
}

// HasRevenue returns true when the summary's total revenue is positive
func (s LedgerSummary) HasRevenue() bool {
	return s.TotalRevenue.GreaterThan(decimal.Zero)
}
