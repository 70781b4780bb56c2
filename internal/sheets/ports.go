package sheets

import (
	"context"
	"errors"
)

// Logical table names. Backends map them to their own storage (sheet tab,
// SQL table, map key).
const (
	TableDeals        = "Deals"
	TableTransactions = "Transactions"
)

// Column names, as they appear in the header row of each table.
const (
	ColDealID             = "Deal_ID"
	ColParty              = "Party"
	ColContractor         = "Contractor"
	ColAgreedFromParty    = "Agreed_From_Party"
	ColAgreedToContractor = "Agreed_To_Contractor"
	ColStatus             = "Status"
	ColStartDate          = "Start_Date"

	ColReceivedFromParty = "Received_From_Party"
	ColPaidToContractor  = "Paid_To_Contractor"
	ColDate              = "Date"
)

var (
	DealColumns = []string{
		ColDealID, ColParty, ColContractor, ColAgreedFromParty, ColAgreedToContractor, ColStatus, ColStartDate,
	}
	TransactionColumns = []string{
		ColDealID, ColReceivedFromParty, ColPaidToContractor, ColDate,
	}
)

var (
	// ErrStoreNotFound means the backing document or table does not exist or
	// is not shared with the configured identity.
	ErrStoreNotFound = errors.New("table store not found")
	// ErrStoreAccess wraps any other backend failure (quota, network, SQL).
	ErrStoreAccess   = errors.New("table store access failed")
	ErrUnknownTable  = errors.New("unknown table")
	ErrUnknownColumn = errors.New("unknown column")
	ErrRowOutOfRange = errors.New("row index out of range")
)

// Record is one data row keyed by column name. Values are whatever the
// backend produced (string, float64, int64); the ledger coerces them.
type Record = map[string]any

// TableStore is the outbound port to a tabular backend.
type TableStore interface {
	// Load returns every data row of table in stored order. The header is
	// not a row.
	Load(ctx context.Context, table string) ([]Record, error)
	// ReplaceAll overwrites table with the header followed by records.
	ReplaceAll(ctx context.Context, table string, records []Record) error
	// Append adds one row at the end of table.
	Append(ctx context.Context, table string, record Record) error
	// UpdateCell sets one cell. rowIndex is the 0-based data row.
	UpdateCell(ctx context.Context, table string, rowIndex int, column string, value any) error
}

// Columns returns the schema of table, or ErrUnknownTable.
func Columns(table string) ([]string, error) {
	switch table {
	case TableDeals:
		return DealColumns, nil
	case TableTransactions:
		return TransactionColumns, nil
	default:
		return nil, ErrUnknownTable
	}
}

// ColumnIndex returns the 0-based position of column in table's schema.
func ColumnIndex(table, column string) (int, error) {
	cols, err := Columns(table)
	if err != nil {
		return -1, err
	}
	for i, c := range cols {
		if c == column {
			return i, nil
		}
	}
	return -1, ErrUnknownColumn
}

// Row flattens a record into schema order; missing columns become "".
func Row(columns []string, r Record) []any {
	out := make([]any, len(columns))
	for i, c := range columns {
		if v, ok := r[c]; ok && v != nil {
			out[i] = v
		} else {
			out[i] = ""
		}
	}
	return out
}
