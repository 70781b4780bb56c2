package http

import (
	"fmt"
	"net/http"

	"dealtracker/internal/core"
	"dealtracker/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type dealResponse struct {
	DealID             int             `json:"deal_id"`
	Party              string          `json:"party"`
	Contractor         string          `json:"contractor"`
	AgreedFromParty    decimal.Decimal `json:"agreed_from_party"`
	AgreedToContractor decimal.Decimal `json:"agreed_to_contractor"`
	Status             core.DealStatus `json:"status"`
	StartDate          core.Date       `json:"start_date"`
}

type transactionResponse struct {
	DealID            int             `json:"deal_id"`
	ReceivedFromParty decimal.Decimal `json:"received_from_party"`
	PaidToContractor  decimal.Decimal `json:"paid_to_contractor"`
	Date              core.Date       `json:"date"`
	TotalReceived     decimal.Decimal `json:"total_received"`
	TotalPaid         decimal.Decimal `json:"total_paid"`
	Status            core.DealStatus `json:"status"`
	StatusChanged     bool            `json:"status_changed"`
}

func newDealResponse(d core.Deal) dealResponse {
	return dealResponse{
		DealID:             d.ID,
		Party:              d.Party,
		Contractor:         d.Contractor,
		AgreedFromParty:    d.AgreedFromParty,
		AgreedToContractor: d.AgreedToContractor,
		Status:             d.Status,
		StartDate:          d.StartDate,
	}
}

func newTransactionResponse(res services.TransactionResult) transactionResponse {
	return transactionResponse{
		DealID:            res.Transaction.DealID,
		ReceivedFromParty: res.Transaction.ReceivedFromParty,
		PaidToContractor:  res.Transaction.PaidToContractor,
		Date:              res.Transaction.Date,
		TotalReceived:     res.Status.Totals.Received,
		TotalPaid:         res.Status.Totals.Paid,
		Status:            res.Status.To,
		StatusChanged:     res.Status.Changed,
	}
}

// handleCreateDeal handles POST /api/deals.
func (s *Server) handleCreateDeal(w http.ResponseWriter, r *http.Request) error {
	req, err := readJSON[dealRequest](r)
	if err != nil {
		return err
	}
	in, err := req.toInput()
	if err != nil {
		return err
	}
	deal, err := s.deals.AddDeal(r.Context(), in)
	if err != nil {
		return err
	}
	w.Header().Set("Location", fmt.Sprintf("/api/deals/%d", deal.ID))
	return writeJSON(w, http.StatusCreated, newDealResponse(deal))
}

// handleCreateTransaction handles POST /api/deals/{id}/transactions.
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) error {
	dealID, err := parseDealID(chi.URLParam(r, "id"))
	if err != nil {
		return err
	}
	req, err := readJSON[transactionRequest](r)
	if err != nil {
		return err
	}
	in, err := req.toInput(dealID)
	if err != nil {
		return err
	}
	res, err := s.deals.AddTransaction(r.Context(), in)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, newTransactionResponse(res))
}

// handlePendingDeals lists the deals a transaction can still be recorded
// against.
func (s *Server) handlePendingDeals(w http.ResponseWriter, r *http.Request) error {
	deals, err := s.deals.PendingDeals(r.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{
		"deals": lo.Map(deals, func(d core.Deal, _ int) dealResponse { return newDealResponse(d) }),
	})
}
