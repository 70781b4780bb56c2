package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func sampleDeals() []Deal {
	return []Deal{
		{ID: 1, Party: "Acme Corp", Contractor: "Bob Builders", AgreedFromParty: dec("1000"), AgreedToContractor: dec("800"), Status: StatusCompleted, StartDate: NewDate(2024, 5, 20)},
		{ID: 2, Party: "Globex", Contractor: "Carla Paints", AgreedFromParty: dec("500"), AgreedToContractor: dec("300"), Status: StatusPending, StartDate: NewDate(2024, 6, 5)},
		{ID: 3, Party: "acme labs", Contractor: "Dan Electric", AgreedFromParty: dec("250"), AgreedToContractor: dec("100"), Status: StatusPending, StartDate: NewDate(2024, 6, 9)},
		{ID: 4, Party: "Initech", Contractor: "Bob Builders", AgreedFromParty: dec("90"), AgreedToContractor: dec("40"), Status: StatusPending},
	}
}

func sampleTxs() []Transaction {
	return []Transaction{
		{DealID: 1, ReceivedFromParty: dec("400"), PaidToContractor: dec("300"), Date: NewDate(2024, 5, 21)},
		{DealID: 1, ReceivedFromParty: dec("600"), PaidToContractor: dec("500"), Date: NewDate(2024, 5, 28)},
		{DealID: 2, ReceivedFromParty: dec("100"), PaidToContractor: decimal.Zero, Date: NewDate(2024, 6, 6)},
		{DealID: 99, ReceivedFromParty: dec("5"), Date: NewDate(2024, 6, 6)}, // orphan
	}
}

func TestCalculateTotalsAndStatus(t *testing.T) {
	deal := Deal{ID: 1, AgreedFromParty: dec("1000"), AgreedToContractor: dec("800"), Status: StatusPending}
	txs := []Transaction{{DealID: 1, ReceivedFromParty: dec("400"), PaidToContractor: dec("300")}}

	totals := CalculateTotals(1, txs)
	if !totals.Received.Equal(dec("400")) || !totals.Paid.Equal(dec("300")) {
		t.Fatalf("unexpected totals after first tx: %+v", totals)
	}
	if got := DeriveStatus(deal, totals); got != StatusPending {
		t.Fatalf("status after first tx = %s, want Pending", got)
	}

	txs = append(txs, Transaction{DealID: 1, ReceivedFromParty: dec("600"), PaidToContractor: dec("500")})
	totals = CalculateTotals(1, txs)
	if !totals.Received.Equal(dec("1000")) || !totals.Paid.Equal(dec("800")) {
		t.Fatalf("unexpected totals after second tx: %+v", totals)
	}
	if got := DeriveStatus(deal, totals); got != StatusCompleted {
		t.Fatalf("status after second tx = %s, want Completed", got)
	}
}

func TestDeriveStatusNoTransactionsIsPending(t *testing.T) {
	for _, d := range sampleDeals() {
		totals := CalculateTotals(d.ID, nil)
		if !totals.Received.IsZero() || !totals.Paid.IsZero() {
			t.Fatalf("deal %d: expected zero totals, got %+v", d.ID, totals)
		}
		if got := DeriveStatus(d, totals); got != StatusPending {
			t.Fatalf("deal %d without transactions is %s", d.ID, got)
		}
	}
}

func TestDeriveStatusNeedsBothSides(t *testing.T) {
	deal := Deal{ID: 7, AgreedFromParty: dec("100"), AgreedToContractor: dec("50")}
	if DeriveStatus(deal, Totals{Received: dec("100"), Paid: dec("49.99")}) != StatusPending {
		t.Fatal("partially paid contractor must stay Pending")
	}
	if DeriveStatus(deal, Totals{Received: dec("150"), Paid: dec("60")}) != StatusCompleted {
		t.Fatal("overpayment on both sides is Completed")
	}
}

func TestDeriveStatusMonotonicAppends(t *testing.T) {
	deal := Deal{ID: 1, AgreedFromParty: dec("300"), AgreedToContractor: dec("200")}
	steps := []Transaction{
		{DealID: 1, ReceivedFromParty: dec("100")},
		{DealID: 1, PaidToContractor: dec("200")},
		{DealID: 1, ReceivedFromParty: dec("200")},
		{DealID: 1, ReceivedFromParty: dec("10"), PaidToContractor: dec("10")},
	}
	var ledger []Transaction
	completed := false
	for i, tx := range steps {
		ledger = append(ledger, tx)
		status := DeriveStatus(deal, CalculateTotals(1, ledger))
		if completed && status != StatusCompleted {
			t.Fatalf("step %d moved a Completed deal back to %s", i, status)
		}
		completed = status == StatusCompleted
	}
	if !completed {
		t.Fatal("deal should end Completed")
	}
}

func TestBuildDashboard(t *testing.T) {
	rows := BuildDashboard(sampleDeals(), sampleTxs())
	if len(rows) != 4 {
		t.Fatalf("expected every deal to appear, got %d rows", len(rows))
	}

	first := rows[0]
	if !first.RemainingFromParty.IsZero() || !first.RemainingToContractor.IsZero() || !first.Profit.Equal(dec("200")) {
		t.Fatalf("worked example mismatch: %+v", first)
	}

	for _, r := range rows {
		if !r.RemainingFromParty.Add(r.TotalReceived).Equal(r.AgreedFromParty) {
			t.Errorf("deal %d: remaining_from_party + total_received != agreed_from_party", r.DealID)
		}
		if !r.RemainingToContractor.Add(r.TotalPaid).Equal(r.AgreedToContractor) {
			t.Errorf("deal %d: remaining_to_contractor + total_paid != agreed_to_contractor", r.DealID)
		}
		if !r.Profit.Equal(r.AgreedFromParty.Sub(r.AgreedToContractor)) {
			t.Errorf("deal %d: profit is not contractual", r.DealID)
		}
	}

	if rows[3].TotalReceived.Sign() != 0 || rows[3].TotalPaid.Sign() != 0 {
		t.Errorf("deal without transactions should have zero aggregates: %+v", rows[3])
	}
}

func TestBuildDashboardEmpty(t *testing.T) {
	rows := BuildDashboard(nil, sampleTxs())
	if rows == nil || len(rows) != 0 {
		t.Fatalf("expected empty non-nil result, got %#v", rows)
	}
}

func TestDashboardRowValuesOrder(t *testing.T) {
	rows := BuildDashboard(sampleDeals(), sampleTxs())
	vals := rows[3].Values()
	if len(vals) != len(DashboardColumns) {
		t.Fatalf("values/columns mismatch: %d vs %d", len(vals), len(DashboardColumns))
	}
	if vals[0] != 4 || vals[1] != "Initech" || vals[5] != "Pending" || vals[11] != "" {
		t.Errorf("unexpected values: %v", vals)
	}
	if vals[10] != 50.0 {
		t.Errorf("profit cell = %v", vals[10])
	}
}
