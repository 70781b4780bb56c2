package core

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// DashboardColumns is the column order of a dashboard row, shared by the
// export artifact.
var DashboardColumns = []string{
	"Deal_ID", "Party", "Contractor", "Agreed_From_Party", "Agreed_To_Contractor", "Status",
	"Total_Received", "Total_Paid", "Remaining_From_Party", "Remaining_To_Contractor", "Profit", "Start_Date",
}

// DashboardRow is one deal joined with its transaction aggregates.
type DashboardRow struct {
	DealID                int             `json:"deal_id"`
	Party                 string          `json:"party"`
	Contractor            string          `json:"contractor"`
	AgreedFromParty       decimal.Decimal `json:"agreed_from_party"`
	AgreedToContractor    decimal.Decimal `json:"agreed_to_contractor"`
	Status                DealStatus      `json:"status"`
	TotalReceived         decimal.Decimal `json:"total_received"`
	TotalPaid             decimal.Decimal `json:"total_paid"`
	RemainingFromParty    decimal.Decimal `json:"remaining_from_party"`
	RemainingToContractor decimal.Decimal `json:"remaining_to_contractor"`
	Profit                decimal.Decimal `json:"profit"`
	StartDate             Date            `json:"start_date"`
}

// BuildDashboard left-joins deals with their transaction sums. Deals without
// transactions get zero aggregates and are never dropped. Row order follows
// the deals slice.
func BuildDashboard(deals []Deal, txs []Transaction) []DashboardRow {
	if len(deals) == 0 {
		return []DashboardRow{}
	}
	byDeal := lo.GroupBy(txs, func(t Transaction) int { return t.DealID })

	rows := make([]DashboardRow, 0, len(deals))
	for _, d := range deals {
		totals := CalculateTotals(d.ID, byDeal[d.ID])
		rows = append(rows, DashboardRow{
			DealID:                d.ID,
			Party:                 d.Party,
			Contractor:            d.Contractor,
			AgreedFromParty:       d.AgreedFromParty,
			AgreedToContractor:    d.AgreedToContractor,
			Status:                d.Status,
			TotalReceived:         totals.Received,
			TotalPaid:             totals.Paid,
			RemainingFromParty:    d.AgreedFromParty.Sub(totals.Received),
			RemainingToContractor: d.AgreedToContractor.Sub(totals.Paid),
			// Contractual margin, independent of payment progress.
			Profit:    d.AgreedFromParty.Sub(d.AgreedToContractor),
			StartDate: d.StartDate,
		})
	}
	return rows
}

// Values returns the row as cell values in DashboardColumns order. Amounts
// are float64 and a null start date is an empty string.
func (r DashboardRow) Values() []any {
	return []any{
		r.DealID,
		r.Party,
		r.Contractor,
		r.AgreedFromParty.InexactFloat64(),
		r.AgreedToContractor.InexactFloat64(),
		string(r.Status),
		r.TotalReceived.InexactFloat64(),
		r.TotalPaid.InexactFloat64(),
		r.RemainingFromParty.InexactFloat64(),
		r.RemainingToContractor.InexactFloat64(),
		r.Profit.InexactFloat64(),
		r.StartDate.String(),
	}
}
