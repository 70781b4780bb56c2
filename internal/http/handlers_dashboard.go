package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"dealtracker/internal/core"
	"dealtracker/internal/export"
	applog "dealtracker/internal/log"
)

// ExportUploader stores a generated workbook and returns where it went.
type ExportUploader interface {
	Upload(ctx context.Context, r io.Reader) (string, error)
}

// handleDashboard handles GET /api/dashboard. The query string carries
// the filter: party, contractor, from, to and range.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) error {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		return err
	}
	report, err := s.report(r.Context(), f)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, report)
}

// handleExport streams the filtered dashboard rows as an xlsx attachment.
// The workbook is rendered into memory first so a failure still yields a
// proper error response.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) error {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		return err
	}
	report, err := s.report(r.Context(), f)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, report.Rows); err != nil {
		return fmt.Errorf("render workbook: %w", err)
	}

	if s.uploader != nil {
		logger := applog.FromContext(r.Context()).WithComponent(applog.ComponentExport)
		if uri, err := s.uploader.Upload(r.Context(), bytes.NewReader(buf.Bytes())); err != nil {
			logger.ErrorContext(r.Context(), "Export upload failed", applog.FieldError, err)
		} else {
			logger.InfoContext(r.Context(), "Export uploaded", "uri", uri, applog.FieldRows, len(report.Rows))
		}
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(buf.Bytes())
	return err
}

func (s *Server) report(ctx context.Context, f core.Filter) (core.Report, error) {
	// Keep slow backends from hanging the page.
	cctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	return s.dashboard.Report(cctx, f)
}

type indexData struct {
	Report       core.Report
	Filter       core.Filter
	PendingDeals []core.Deal
	Today        core.Date
	// From and To pre-fill the date inputs.
	From         core.Date
	To           core.Date
	Error        string
}

// handleIndex renders the dashboard page. A bad filter or an unreachable
// store is shown on the page instead of failing the whole request.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	data := indexData{Today: s.dashboard.Today()}
	f, err := parseFilter(r.URL.Query())
	if err == nil {
		data.Filter = f
		data.Report, err = s.report(r.Context(), f)
	}
	if err == nil {
		data.PendingDeals, err = s.deals.PendingDeals(r.Context())
	}
	if err != nil {
		_, data.Error = statusFor(err)
		s.logger.WarnContext(r.Context(), "Dashboard rendered with error", applog.FieldError, err)
	}
	// A first visit shows every deal but offers the last 30 days as the window.
	data.From, data.To = data.Filter.From, data.Filter.To
	if r.URL.RawQuery == "" {
		data.From, data.To = core.DefaultWindow(data.Today)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "dashboard.html", data); err != nil {
		s.logger.ErrorContext(r.Context(), "Dashboard template execution failed", applog.FieldError, err)
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

// handleCreateDealForm handles the add-deal form and answers with an HTML
// fragment.
func (s *Server) handleCreateDealForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		ErrorFragment(http.StatusBadRequest, "Invalid request format.").Write(w)
		return
	}
	req, err := dealRequestFromForm(r.PostForm)
	if err != nil {
		s.formError(w, r, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		s.formError(w, r, err)
		return
	}
	deal, err := s.deals.AddDeal(r.Context(), in)
	if err != nil {
		s.formError(w, r, err)
		return
	}
	msg := fmt.Sprintf("Deal #%d added: %s / %s", deal.ID, deal.Party, deal.Contractor)
	SuccessFragment(msg).
		TriggerDealCreated(deal.ID).
		TriggerFormReset().
		TriggerSuccessNotification("Deal added successfully!").
		Write(w)
}

// handleCreateTransactionForm handles the add-transaction form.
func (s *Server) handleCreateTransactionForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		ErrorFragment(http.StatusBadRequest, "Invalid request format.").Write(w)
		return
	}
	req, dealID, err := transactionRequestFromForm(r.PostForm)
	if err != nil {
		s.formError(w, r, err)
		return
	}
	in, err := req.toInput(dealID)
	if err != nil {
		s.formError(w, r, err)
		return
	}
	res, err := s.deals.AddTransaction(r.Context(), in)
	if err != nil {
		s.formError(w, r, err)
		return
	}
	msg := fmt.Sprintf("Transaction recorded for deal #%d. Status: %s", dealID, res.Status.To)
	SuccessFragment(msg).
		TriggerTransactionAdded(dealID, res.Status.To).
		TriggerFormReset().
		TriggerSuccessNotification("Transaction added successfully!").
		Write(w)
}

func (s *Server) formError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "Form submission failed", applog.FieldError, err, "url", r.URL.Path)
	}
	ErrorFragment(status, msg).Write(w)
}
