package core

import (
	"sort"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Summary holds the headline metrics of a dashboard view.
type Summary struct {
	// TotalProfit covers the whole book, not only the filtered rows. The
	// receivable/payable figures below do follow the filter.
	TotalProfit        decimal.Decimal `json:"total_profit"`
	PendingReceivables decimal.Decimal `json:"pending_receivables"`
	PendingPayables    decimal.Decimal `json:"pending_payables"`
}

// MonthProfit is the contractual profit of deals started in a month.
type MonthProfit struct {
	Month  Date            `json:"month"` // first day of the month
	Profit decimal.Decimal `json:"profit"`
}

// Report is the full dashboard view handed to presentation and export.
type Report struct {
	From      Date           `json:"from"`
	To        Date           `json:"to"`
	Rows      []DashboardRow `json:"rows"`
	Pending   []DashboardRow `json:"pending"`
	Completed []DashboardRow `json:"completed"`
	Summary   Summary        `json:"summary"`
	Monthly   []MonthProfit  `json:"monthly"`
}

// PartitionByStatus splits rows into Pending and Completed, preserving order.
func PartitionByStatus(rows []DashboardRow) (pending, completed []DashboardRow) {
	pending = lo.Filter(rows, func(r DashboardRow, _ int) bool { return r.Status == StatusPending })
	completed = lo.Filter(rows, func(r DashboardRow, _ int) bool { return r.Status == StatusCompleted })
	return pending, completed
}

// Summarize computes the summary metrics. all is the unfiltered dashboard,
// filtered the rows currently shown.
func Summarize(all, filtered []DashboardRow) Summary {
	pending, _ := PartitionByStatus(filtered)
	return Summary{
		TotalProfit:        sumDecimals(all, func(r DashboardRow) decimal.Decimal { return r.Profit }),
		PendingReceivables: sumDecimals(pending, func(r DashboardRow) decimal.Decimal { return r.RemainingFromParty }),
		PendingPayables:    sumDecimals(pending, func(r DashboardRow) decimal.Decimal { return r.RemainingToContractor }),
	}
}

// MonthlyProfit groups rows by the calendar month of their start date and
// sums profit, ascending by month. Rows without a start date are skipped.
func MonthlyProfit(rows []DashboardRow) []MonthProfit {
	dated := lo.Filter(rows, func(r DashboardRow, _ int) bool { return !r.StartDate.IsEmpty() })
	byMonth := lo.GroupBy(dated, func(r DashboardRow) Date { return r.StartDate.MonthStart() })

	out := make([]MonthProfit, 0, len(byMonth))
	for month, group := range byMonth {
		out = append(out, MonthProfit{
			Month:  month,
			Profit: sumDecimals(group, func(r DashboardRow) decimal.Decimal { return r.Profit }),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })
	return out
}

// BuildReport runs the whole dashboard pipeline over already loaded tables.
func BuildReport(deals []Deal, txs []Transaction, f Filter, today Date) Report {
	all := BuildDashboard(deals, txs)
	filtered := f.Apply(all, today)
	pending, completed := PartitionByStatus(filtered)
	from, to := f.Resolve(today)
	return Report{
		From:      from,
		To:        to,
		Rows:      filtered,
		Pending:   pending,
		Completed: completed,
		Summary:   Summarize(all, filtered),
		Monthly:   MonthlyProfit(filtered),
	}
}
