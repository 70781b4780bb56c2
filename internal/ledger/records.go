package ledger

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"dealtracker/internal/core"
	"dealtracker/internal/sheets"

	"github.com/shopspring/decimal"
)

var errEmptyCell = errors.New("empty cell")

// sheetsEpoch is day zero of spreadsheet date serial numbers.
var sheetsEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// CoercionError reports a stored cell that cannot be read as its column's
// type. Row is the spreadsheet row number (header is row 1).
type CoercionError struct {
	Table  string
	Row    int
	Column string
	Value  any
	Err    error
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("%s row %d column %s: cannot read %v: %v", e.Table, e.Row, e.Column, e.Value, e.Err)
}

func (e *CoercionError) Unwrap() error {
	return e.Err
}

func coercionErr(table string, idx int, col string, v any, err error) error {
	return &CoercionError{Table: table, Row: idx + 2, Column: col, Value: v, Err: err}
}

func dealFromRecord(idx int, r sheets.Record) (core.Deal, error) {
	const table = sheets.TableDeals
	var (
		d   core.Deal
		err error
	)
	if d.ID, err = toInt(r[sheets.ColDealID]); err != nil {
		return d, coercionErr(table, idx, sheets.ColDealID, r[sheets.ColDealID], err)
	}
	if d.AgreedFromParty, err = toDecimal(r[sheets.ColAgreedFromParty]); err != nil {
		return d, coercionErr(table, idx, sheets.ColAgreedFromParty, r[sheets.ColAgreedFromParty], err)
	}
	if d.AgreedToContractor, err = toDecimal(r[sheets.ColAgreedToContractor]); err != nil {
		return d, coercionErr(table, idx, sheets.ColAgreedToContractor, r[sheets.ColAgreedToContractor], err)
	}
	d.Status = core.StatusPending
	if s := toString(r[sheets.ColStatus]); s != "" {
		if d.Status, err = core.ParseDealStatus(s); err != nil {
			return d, coercionErr(table, idx, sheets.ColStatus, s, err)
		}
	}
	d.Party = toString(r[sheets.ColParty])
	d.Contractor = toString(r[sheets.ColContractor])
	d.StartDate = toDate(r[sheets.ColStartDate])
	return d, nil
}

func transactionFromRecord(idx int, r sheets.Record) (core.Transaction, error) {
	const table = sheets.TableTransactions
	var (
		t   core.Transaction
		err error
	)
	if t.DealID, err = toInt(r[sheets.ColDealID]); err != nil {
		return t, coercionErr(table, idx, sheets.ColDealID, r[sheets.ColDealID], err)
	}
	// A blank amount on a transaction means nothing moved in that direction.
	if t.ReceivedFromParty, err = toDecimalOrZero(r[sheets.ColReceivedFromParty]); err != nil {
		return t, coercionErr(table, idx, sheets.ColReceivedFromParty, r[sheets.ColReceivedFromParty], err)
	}
	if t.PaidToContractor, err = toDecimalOrZero(r[sheets.ColPaidToContractor]); err != nil {
		return t, coercionErr(table, idx, sheets.ColPaidToContractor, r[sheets.ColPaidToContractor], err)
	}
	t.Date = toDate(r[sheets.ColDate])
	return t, nil
}

// dealRecord encodes amounts as exact decimal strings; spreadsheets parse
// them back into numbers on entry.
func dealRecord(d core.Deal) sheets.Record {
	return sheets.Record{
		sheets.ColDealID:             d.ID,
		sheets.ColParty:              d.Party,
		sheets.ColContractor:         d.Contractor,
		sheets.ColAgreedFromParty:    d.AgreedFromParty.String(),
		sheets.ColAgreedToContractor: d.AgreedToContractor.String(),
		sheets.ColStatus:             d.Status.String(),
		sheets.ColStartDate:          d.StartDate.String(),
	}
}

func transactionRecord(t core.Transaction) sheets.Record {
	return sheets.Record{
		sheets.ColDealID:            t.DealID,
		sheets.ColReceivedFromParty: t.ReceivedFromParty.String(),
		sheets.ColPaidToContractor:  t.PaidToContractor.String(),
		sheets.ColDate:              t.Date.String(),
	}
}

func toString(v any) string {
	if v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case []byte:
		return strings.TrimSpace(string(s))
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("not an integer")
		}
		return int(n), nil
	}
	s := toString(v)
	if s == "" {
		return 0, errEmptyCell
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("not an integer")
	}
	return int(f), nil
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n), nil
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case decimal.Decimal:
		return n, nil
	}
	s := toString(v)
	if s == "" {
		return decimal.Zero, errEmptyCell
	}
	return decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
}

func toDecimalOrZero(v any) (decimal.Decimal, error) {
	d, err := toDecimal(v)
	if errors.Is(err, errEmptyCell) {
		return decimal.Zero, nil
	}
	return d, err
}

// toDate reads YYYY-MM-DD text or a spreadsheet serial number. Anything
// else is a null date, never an error.
func toDate(v any) core.Date {
	switch n := v.(type) {
	case float64:
		if n <= 0 {
			return core.Date{}
		}
		return core.DateOf(sheetsEpoch.AddDate(0, 0, int(n)))
	case int:
		if n <= 0 {
			return core.Date{}
		}
		return core.DateOf(sheetsEpoch.AddDate(0, 0, n))
	case time.Time:
		return core.DateOf(n)
	}
	d, err := core.ParseDate(toString(v))
	if err != nil {
		return core.Date{}
	}
	return d
}
