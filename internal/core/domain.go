package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusPending   DealStatus = "Pending"
	StatusCompleted DealStatus = "Completed"
)

// DateLayout is the on-sheet representation of a calendar date.
const DateLayout = "2006-01-02"

type (
	DealStatus string

	// Date is a calendar date without a time component. The zero value
	// means "no date" (an unparsable or missing cell).
	Date struct {
		time.Time
	}

	Deal struct {
		ID                 int
		Party              string // paying counterparty
		Contractor         string // receiving counterparty
		AgreedFromParty    decimal.Decimal
		AgreedToContractor decimal.Decimal
		Status             DealStatus
		StartDate          Date
	}

	Transaction struct {
		DealID            int
		ReceivedFromParty decimal.Decimal
		PaidToContractor  decimal.Decimal
		Date              Date
	}

	// DealInput carries the user-supplied fields of a new deal. ID and status
	// are assigned by the deal service.
	DealInput struct {
		Party              string
		Contractor         string
		AgreedFromParty    decimal.Decimal
		AgreedToContractor decimal.Decimal
		StartDate          Date
	}

	TransactionInput struct {
		DealID            int
		ReceivedFromParty decimal.Decimal
		PaidToContractor  decimal.Decimal
		Date              Date
	}
)

// ParseDealStatus maps the stored status text to a DealStatus. Matching is
// case-insensitive; anything unrecognised is reported as invalid.
func ParseDealStatus(s string) (DealStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return StatusPending, nil
	case "completed":
		return StatusCompleted, nil
	default:
		return "", &ValidationError{Field: "Status", Err: ErrInvalidStatus}
	}
}

func (s DealStatus) String() string {
	return string(s)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// IsEmpty returns true if the date is zero (null date)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (d Date) String() string {
	if d.IsEmpty() {
		return ""
	}
	return d.Format(DateLayout)
}

// AddDays returns the date n calendar days later (earlier when n < 0).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// MonthStart returns the first day of d's month.
func (d Date) MonthStart() Date {
	return NewDate(d.Year(), int(d.Month()), 1)
}

// Before reports whether d is strictly before o.
func (d Date) Before(o Date) bool {
	return d.Time.Before(o.Time)
}

// After reports whether d is strictly after o.
func (d Date) After(o Date) bool {
	return d.Time.After(o.Time)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsEmpty() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (in DealInput) Validate() error {
	if strings.TrimSpace(in.Party) == "" {
		return &ValidationError{Field: "party", Err: ErrEmptyParty}
	}
	if strings.TrimSpace(in.Contractor) == "" {
		return &ValidationError{Field: "contractor", Err: ErrEmptyContractor}
	}
	if len(in.Party) > 200 || len(in.Contractor) > 200 {
		return &ValidationError{Field: "party", Err: ErrNameTooLong}
	}
	if !in.AgreedFromParty.IsPositive() {
		return &ValidationError{Field: "agreed_from_party", Err: ErrInvalidAmount}
	}
	if !in.AgreedToContractor.IsPositive() {
		return &ValidationError{Field: "agreed_to_contractor", Err: ErrInvalidAmount}
	}
	if in.StartDate.IsEmpty() {
		return &ValidationError{Field: "start_date", Err: ErrMissingDate}
	}
	return nil
}

func (in TransactionInput) Validate() error {
	if in.DealID < 1 {
		return &ValidationError{Field: "deal_id", Err: ErrInvalidDealID}
	}
	if in.ReceivedFromParty.IsNegative() {
		return &ValidationError{Field: "received_from_party", Err: ErrNegativeAmount}
	}
	if in.PaidToContractor.IsNegative() {
		return &ValidationError{Field: "paid_to_contractor", Err: ErrNegativeAmount}
	}
	if in.ReceivedFromParty.IsZero() && in.PaidToContractor.IsZero() {
		return &ValidationError{Field: "amount", Err: ErrNoMovement}
	}
	if in.Date.IsEmpty() {
		return &ValidationError{Field: "date", Err: ErrMissingDate}
	}
	return nil
}

// NewDeal builds the Pending deal stored for a validated input.
func NewDeal(id int, in DealInput) Deal {
	return Deal{
		ID:                 id,
		Party:              strings.TrimSpace(in.Party),
		Contractor:         strings.TrimSpace(in.Contractor),
		AgreedFromParty:    in.AgreedFromParty,
		AgreedToContractor: in.AgreedToContractor,
		Status:             StatusPending,
		StartDate:          in.StartDate,
	}
}

func NewTransaction(in TransactionInput) Transaction {
	return Transaction{
		DealID:            in.DealID,
		ReceivedFromParty: in.ReceivedFromParty,
		PaidToContractor:  in.PaidToContractor,
		Date:              in.Date,
	}
}
