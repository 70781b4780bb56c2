// Package http provides the HTTP server, the JSON API and the dashboard page.
//
// This file builds responses: a fluent builder for the HTMX fragments of the
// dashboard page, JSON writers for the API, and the mapping from domain
// errors to status codes.
package http

import (
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"dealtracker/internal/core"
	"dealtracker/internal/ledger"
	applog "dealtracker/internal/log"
	"dealtracker/internal/sheets"
)

var errRateLimited = errors.New("rate limit exceeded")

// HTMXResponseBuilder provides a fluent API for building HTMX responses.
// It encapsulates the construction of HX-Trigger headers and response bodies.
type HTMXResponseBuilder struct {
	triggers   map[string]any
	statusCode int
	body       []byte
	headers    map[string]string
}

// NewHTMXResponse creates a new response builder with default 200 status.
func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{
		triggers:   make(map[string]any),
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.statusCode = code
	return b
}

// Trigger adds a named trigger with optional data to the HX-Trigger header.
func (b *HTMXResponseBuilder) Trigger(name string, data any) *HTMXResponseBuilder {
	b.triggers[name] = data
	return b
}

func (b *HTMXResponseBuilder) TriggerDealCreated(dealID int) *HTMXResponseBuilder {
	return b.Trigger("deal:created", map[string]int{"deal_id": dealID})
}

// TriggerTransactionAdded carries the deal's status after the transaction,
// so the page can move the row between the pending and completed tables.
func (b *HTMXResponseBuilder) TriggerTransactionAdded(dealID int, status core.DealStatus) *HTMXResponseBuilder {
	return b.Trigger("transaction:added", map[string]any{"deal_id": dealID, "status": status.String()})
}

func (b *HTMXResponseBuilder) TriggerFormReset() *HTMXResponseBuilder {
	return b.Trigger("form:reset", struct{}{})
}

// NotificationType represents the type of notification to display.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
)

// TriggerNotification adds a show-notification trigger.
func (b *HTMXResponseBuilder) TriggerNotification(notifType NotificationType, message string, durationMs int) *HTMXResponseBuilder {
	return b.Trigger("show-notification", map[string]any{
		"type":     string(notifType),
		"message":  message,
		"duration": durationMs,
	})
}

func (b *HTMXResponseBuilder) TriggerSuccessNotification(message string) *HTMXResponseBuilder {
	return b.TriggerNotification(NotificationSuccess, message, 3000)
}

// BodyHTML sets the response body as HTML content.
func (b *HTMXResponseBuilder) BodyHTML(html string) *HTMXResponseBuilder {
	b.headers["Content-Type"] = "text/html; charset=utf-8"
	b.body = []byte(html)
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if len(b.triggers) > 0 {
		if triggerJSON, err := json.Marshal(b.triggers); err == nil {
			w.Header().Set("HX-Trigger", string(triggerJSON))
		}
	}
	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// ErrorFragment renders message as an escaped error div.
func ErrorFragment(statusCode int, message string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(statusCode).
		BodyHTML(`<div class="error">` + template.HTMLEscapeString(message) + `</div>`)
}

// SuccessFragment renders message as an escaped success div.
func SuccessFragment(message string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		BodyHTML(`<div class="success">` + template.HTMLEscapeString(message) + `</div>`)
}

// errorBody is the JSON shape of every API error.
type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)
	_, err = w.Write(body)
	return err
}

// statusFor maps an error returned by the services to an HTTP status and
// the message shown to the caller. Internal detail never reaches the body.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, errMalformedBody):
		return http.StatusBadRequest, "Malformed request body."
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests, "Rate limit exceeded. Please try again later."
	case core.IsValidation(err):
		return http.StatusUnprocessableEntity, core.UserMessage(err)
	case errors.Is(err, ledger.ErrDealNotFound):
		return http.StatusNotFound, "Deal not found."
	case errors.Is(err, sheets.ErrStoreNotFound):
		return http.StatusServiceUnavailable, "The deal store is not available."
	case errors.Is(err, sheets.ErrStoreAccess):
		return http.StatusBadGateway, "The deal store could not be reached."
	default:
		return http.StatusInternalServerError, core.UserMessage(err)
	}
}

// writeError logs server-side failures and writes the JSON error body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	body := errorBody{Error: msg}
	var ve *core.ValidationError
	if errors.As(err, &ve) {
		body.Field = ve.Field
	}
	if status >= http.StatusInternalServerError {
		applog.NewStructuredLogger(applog.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, applog.ComponentHTTP, r.Method+" "+r.URL.Path, nil)
	}
	_ = writeJSON(w, status, body)
}

// handler adapts an error-returning handler to http.HandlerFunc.
func handler(f func(w http.ResponseWriter, r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := f(w, r); err != nil {
			writeError(w, r, err)
		}
	}
}
