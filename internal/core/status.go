package core

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Totals is the running cash position of one deal.
type Totals struct {
	Received decimal.Decimal
	Paid     decimal.Decimal
}

// CalculateTotals sums received and paid amounts over the transactions of
// dealID. Both totals are zero when the deal has no transactions.
func CalculateTotals(dealID int, txs []Transaction) Totals {
	matching := lo.Filter(txs, func(t Transaction, _ int) bool {
		return t.DealID == dealID
	})
	return Totals{
		Received: sumDecimals(matching, func(t Transaction) decimal.Decimal { return t.ReceivedFromParty }),
		Paid:     sumDecimals(matching, func(t Transaction) decimal.Decimal { return t.PaidToContractor }),
	}
}

// DeriveStatus is the deal state machine: Completed once both agreed
// amounts are covered, Pending otherwise. It depends only on the sums, never
// on transaction order.
func DeriveStatus(d Deal, t Totals) DealStatus {
	if t.Received.GreaterThanOrEqual(d.AgreedFromParty) && t.Paid.GreaterThanOrEqual(d.AgreedToContractor) {
		return StatusCompleted
	}
	return StatusPending
}

// StatusChange describes the outcome of a status re-evaluation.
type StatusChange struct {
	DealID  int
	From    DealStatus
	To      DealStatus
	Totals  Totals
	Changed bool
}
