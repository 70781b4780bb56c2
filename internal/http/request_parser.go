// Package http provides the HTTP server, the JSON API and the dashboard page.
//
// This file holds request decoding: JSON bodies and HTML forms are read into
// request structs, checked with validator tags and converted to domain input.
package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"dealtracker/internal/core"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
)

const maxBodyBytes = 1 << 20

var (
	json     = jsoniter.ConfigCompatibleWithStandardLibrary
	validate = newValidator()

	errMalformedBody = errors.New("malformed request body")
	errInvalidField  = errors.New("invalid value")
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// amount accepts a JSON number or a JSON string, so "12,50" and 12.5 both
// reach ParseAmount.
type amount string

func (a *amount) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*a = ""
		return nil
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	*a = amount(s)
	return nil
}

type dealRequest struct {
	Party              string `json:"party" validate:"required,max=200"`
	Contractor         string `json:"contractor" validate:"required,max=200"`
	AgreedFromParty    amount `json:"agreed_from_party" validate:"required"`
	AgreedToContractor amount `json:"agreed_to_contractor" validate:"required"`
	StartDate          string `json:"start_date" validate:"required,datetime=2006-01-02"`
}

type transactionRequest struct {
	ReceivedFromParty amount `json:"received_from_party"`
	PaidToContractor  amount `json:"paid_to_contractor"`
	Date              string `json:"date" validate:"required,datetime=2006-01-02"`
}

// readJSON decodes and validates the request body into T.
func readJSON[T any](r *http.Request) (T, error) {
	var v T
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return v, fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return v, fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	if err := validate.Struct(v); err != nil {
		return v, validationError(err)
	}
	return v, nil
}

// validationError turns the first validator failure into a domain
// ValidationError naming the JSON field.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &core.ValidationError{Err: errInvalidField}
	}
	fe := verrs[0]
	cause := errInvalidField
	switch fe.Field() {
	case "start_date", "date":
		cause = core.ErrMissingDate
	case "party":
		cause = core.ErrEmptyParty
		if fe.Tag() == "max" {
			cause = core.ErrNameTooLong
		}
	case "contractor":
		cause = core.ErrEmptyContractor
		if fe.Tag() == "max" {
			cause = core.ErrNameTooLong
		}
	case "agreed_from_party", "agreed_to_contractor":
		cause = core.ErrInvalidAmount
	}
	return &core.ValidationError{Field: fe.Field(), Err: cause}
}

func (req dealRequest) toInput() (core.DealInput, error) {
	from, err := parseAmountField("agreed_from_party", string(req.AgreedFromParty))
	if err != nil {
		return core.DealInput{}, err
	}
	to, err := parseAmountField("agreed_to_contractor", string(req.AgreedToContractor))
	if err != nil {
		return core.DealInput{}, err
	}
	start, err := parseDateField("start_date", req.StartDate)
	if err != nil {
		return core.DealInput{}, err
	}
	return core.DealInput{
		Party:              sanitizeText(req.Party),
		Contractor:         sanitizeText(req.Contractor),
		AgreedFromParty:    from,
		AgreedToContractor: to,
		StartDate:          start,
	}, nil
}

func (req transactionRequest) toInput(dealID int) (core.TransactionInput, error) {
	received, err := parseAmountField("received_from_party", string(req.ReceivedFromParty))
	if err != nil {
		return core.TransactionInput{}, err
	}
	paid, err := parseAmountField("paid_to_contractor", string(req.PaidToContractor))
	if err != nil {
		return core.TransactionInput{}, err
	}
	date, err := parseDateField("date", req.Date)
	if err != nil {
		return core.TransactionInput{}, err
	}
	return core.TransactionInput{
		DealID:            dealID,
		ReceivedFromParty: received,
		PaidToContractor:  paid,
		Date:              date,
	}, nil
}

// dealRequestFromForm reads the dashboard's add-deal form.
func dealRequestFromForm(form url.Values) (dealRequest, error) {
	req := dealRequest{
		Party:              form.Get("party"),
		Contractor:         form.Get("contractor"),
		AgreedFromParty:    amount(strings.TrimSpace(form.Get("agreed_from_party"))),
		AgreedToContractor: amount(strings.TrimSpace(form.Get("agreed_to_contractor"))),
		StartDate:          strings.TrimSpace(form.Get("start_date")),
	}
	if err := validate.Struct(req); err != nil {
		return req, validationError(err)
	}
	return req, nil
}

// transactionRequestFromForm reads the add-transaction form, which also
// carries the target deal id.
func transactionRequestFromForm(form url.Values) (transactionRequest, int, error) {
	req := transactionRequest{
		ReceivedFromParty: amount(strings.TrimSpace(form.Get("received_from_party"))),
		PaidToContractor:  amount(strings.TrimSpace(form.Get("paid_to_contractor"))),
		Date:              strings.TrimSpace(form.Get("date")),
	}
	id, err := parseDealID(form.Get("deal_id"))
	if err != nil {
		return req, 0, err
	}
	if err := validate.Struct(req); err != nil {
		return req, 0, validationError(err)
	}
	return req, id, nil
}

func parseDealID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id < 1 {
		return 0, &core.ValidationError{Field: "deal_id", Err: core.ErrInvalidDealID}
	}
	return id, nil
}

func parseAmountField(field, s string) (decimal.Decimal, error) {
	d, err := core.ParseAmount(s)
	if err != nil {
		return d, &core.ValidationError{Field: field, Err: err}
	}
	return d, nil
}

func parseDateField(field, s string) (core.Date, error) {
	d, err := core.ParseDate(s)
	if err != nil || d.IsEmpty() {
		return core.Date{}, &core.ValidationError{Field: field, Err: core.ErrMissingDate}
	}
	return d, nil
}

// parseFilter reads the dashboard filter from query parameters. Empty
// parameters leave the matching bound unset.
func parseFilter(q url.Values) (core.Filter, error) {
	f := core.Filter{
		Party:      strings.TrimSpace(q.Get("party")),
		Contractor: strings.TrimSpace(q.Get("contractor")),
	}
	var err error
	if v := strings.TrimSpace(q.Get("from")); v != "" {
		if f.From, err = parseDateField("from", v); err != nil {
			return f, err
		}
	}
	if v := strings.TrimSpace(q.Get("to")); v != "" {
		if f.To, err = parseDateField("to", v); err != nil {
			return f, err
		}
	}
	f.Range, err = core.ParseQuickRange(q.Get("range"))
	return f, err
}
