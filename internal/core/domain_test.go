package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestDealInputValidate(t *testing.T) {
	valid := DealInput{
		Party:              "Acme",
		Contractor:         "Bob Builders",
		AgreedFromParty:    dec("1000"),
		AgreedToContractor: dec("800"),
		StartDate:          NewDate(2024, 6, 1),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*DealInput)
		want   error
	}{
		{"blank party", func(in *DealInput) { in.Party = "  " }, ErrEmptyParty},
		{"blank contractor", func(in *DealInput) { in.Contractor = "" }, ErrEmptyContractor},
		{"zero from party", func(in *DealInput) { in.AgreedFromParty = decimal.Zero }, ErrInvalidAmount},
		{"negative to contractor", func(in *DealInput) { in.AgreedToContractor = dec("-5") }, ErrInvalidAmount},
		{"missing start date", func(in *DealInput) { in.StartDate = Date{} }, ErrMissingDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			err := in.Validate()
			if !errors.Is(err, tt.want) {
				t.Fatalf("Validate() = %v, want %v", err, tt.want)
			}
			if !IsValidation(err) {
				t.Fatalf("expected a ValidationError, got %T", err)
			}
		})
	}
}

func TestTransactionInputValidate(t *testing.T) {
	tests := []struct {
		name string
		in   TransactionInput
		want error
	}{
		{
			name: "received only",
			in:   TransactionInput{DealID: 1, ReceivedFromParty: dec("10"), PaidToContractor: decimal.Zero, Date: NewDate(2024, 1, 1)},
		},
		{
			name: "paid only",
			in:   TransactionInput{DealID: 1, PaidToContractor: dec("10"), Date: NewDate(2024, 1, 1)},
		},
		{
			name: "both zero",
			in:   TransactionInput{DealID: 1, Date: NewDate(2024, 1, 1)},
			want: ErrNoMovement,
		},
		{
			name: "negative received",
			in:   TransactionInput{DealID: 1, ReceivedFromParty: dec("-1"), PaidToContractor: dec("3"), Date: NewDate(2024, 1, 1)},
			want: ErrNegativeAmount,
		},
		{
			name: "missing date",
			in:   TransactionInput{DealID: 1, ReceivedFromParty: dec("1")},
			want: ErrMissingDate,
		},
		{
			name: "bad deal id",
			in:   TransactionInput{DealID: 0, ReceivedFromParty: dec("1"), Date: NewDate(2024, 1, 1)},
			want: ErrInvalidDealID,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			if tt.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseDealStatus(t *testing.T) {
	for in, want := range map[string]DealStatus{
		"Pending":     StatusPending,
		"completed":   StatusCompleted,
		" COMPLETED ": StatusCompleted,
	} {
		got, err := ParseDealStatus(in)
		if err != nil || got != want {
			t.Errorf("ParseDealStatus(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseDealStatus("Cancelled"); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestDateHelpers(t *testing.T) {
	d, err := ParseDate("2024-06-10")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if d.String() != "2024-06-10" {
		t.Errorf("String() = %q", d.String())
	}
	if got := d.AddDays(-7).String(); got != "2024-06-03" {
		t.Errorf("AddDays(-7) = %q", got)
	}
	if got := d.MonthStart().String(); got != "2024-06-01" {
		t.Errorf("MonthStart() = %q", got)
	}
	if _, err := ParseDate("10/06/2024"); err == nil {
		t.Error("expected error for non ISO date")
	}
	if (Date{}).String() != "" {
		t.Error("empty date should render as empty string")
	}

	b, _ := d.MarshalJSON()
	if string(b) != `"2024-06-10"` {
		t.Errorf("MarshalJSON = %s", b)
	}
	var back Date
	if err := back.UnmarshalJSON([]byte("null")); err != nil || !back.IsEmpty() {
		t.Errorf("UnmarshalJSON(null) = %v, %v", back, err)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"12.34", "12.34", false},
		{"12,34", "12.34", false},
		{" 1000 ", "1000", false},
		{"", "0", false},
		{"0", "0", false},
		{"-1", "", true},
		{"abc", "", true},
		{"1.2.3", "", true},
	}
	for _, tt := range tests {
		got, err := ParseAmount(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseAmount(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil || !got.Equal(dec(tt.want)) {
			t.Errorf("ParseAmount(%q) = %s, %v; want %s", tt.in, got, err, tt.want)
		}
	}
	if FormatAmount(dec("200")) != "200.00" {
		t.Errorf("FormatAmount = %q", FormatAmount(dec("200")))
	}
}
