package services

import (
	"context"
	"fmt"

	"dealtracker/internal/core"
	"dealtracker/internal/ledger"
	applog "dealtracker/internal/log"
	"dealtracker/internal/metrics"

	"github.com/samber/lo"
)

// ErrDealNotFound is returned for operations on an unknown deal id.
var ErrDealNotFound = ledger.ErrDealNotFound

// StatusNotifier is told about every status write. Failures are logged by
// the caller and never undo the write.
type StatusNotifier interface {
	NotifyStatusChange(ctx context.Context, change core.StatusChange) error
}

// TransactionResult is what AddTransaction reports back.
type TransactionResult struct {
	Transaction core.Transaction
	Status      core.StatusChange
}

// DealService runs the deal actions and the status engine over a ledger.
type DealService struct {
	ledger   *ledger.Ledger
	notifier StatusNotifier
	metrics  *metrics.Metrics
	logger   *applog.Logger
	events   *applog.StructuredLogger
}

type DealOption func(*DealService)

func WithNotifier(n StatusNotifier) DealOption {
	return func(s *DealService) { s.notifier = n }
}

func WithDealMetrics(m *metrics.Metrics) DealOption {
	return func(s *DealService) { s.metrics = m }
}

func WithDealLogger(l *applog.Logger) DealOption {
	return func(s *DealService) { s.logger = l }
}

func NewDealService(l *ledger.Ledger, opts ...DealOption) *DealService {
	s := &DealService{ledger: l}
	for _, o := range opts {
		o(s)
	}
	if s.logger == nil {
		s.logger = applog.Discard()
	}
	s.events = applog.NewStructuredLogger(s.logger)
	s.logger = s.logger.WithComponent(applog.ComponentStatus)
	return s
}

// AddDeal validates input, assigns the next id and stores the deal as
// Pending.
func (s *DealService) AddDeal(ctx context.Context, in core.DealInput) (core.Deal, error) {
	if err := in.Validate(); err != nil {
		return core.Deal{}, err
	}
	id, err := s.ledger.GenerateDealID(ctx)
	if err != nil {
		return core.Deal{}, fmt.Errorf("generate deal id: %w", err)
	}
	deal := core.NewDeal(id, in)
	if err := s.ledger.AppendDeal(ctx, deal); err != nil {
		return core.Deal{}, fmt.Errorf("save deal: %w", err)
	}
	s.events.LogDealCreated(ctx, deal.ID, deal.Party, deal.Contractor)
	return deal, nil
}

// AddTransaction records a payment against an existing deal and then
// re-evaluates the deal's status before returning.
func (s *DealService) AddTransaction(ctx context.Context, in core.TransactionInput) (TransactionResult, error) {
	if err := in.Validate(); err != nil {
		return TransactionResult{}, err
	}
	if _, err := s.ledger.Deal(ctx, in.DealID); err != nil {
		return TransactionResult{}, err
	}
	tx := core.NewTransaction(in)
	if err := s.ledger.AppendTransaction(ctx, tx); err != nil {
		return TransactionResult{}, fmt.Errorf("save transaction: %w", err)
	}
	s.events.LogTransactionAdded(ctx, tx.DealID, core.FormatAmount(tx.ReceivedFromParty), core.FormatAmount(tx.PaidToContractor))

	change, err := s.CheckAndUpdateStatus(ctx, tx.DealID)
	if err != nil {
		return TransactionResult{Transaction: tx}, fmt.Errorf("update status: %w", err)
	}
	return TransactionResult{Transaction: tx, Status: change}, nil
}

// CalculateTotals sums the stored transactions of dealID.
func (s *DealService) CalculateTotals(ctx context.Context, dealID int) (core.Totals, error) {
	txs, err := s.ledger.LoadTransactions(ctx)
	if err != nil {
		return core.Totals{}, err
	}
	return core.CalculateTotals(dealID, txs), nil
}

// CheckAndUpdateStatus derives the deal's status from its totals and
// writes it only when it differs from the stored one, so repeated calls
// without new transactions never write.
func (s *DealService) CheckAndUpdateStatus(ctx context.Context, dealID int) (core.StatusChange, error) {
	deal, err := s.ledger.Deal(ctx, dealID)
	if err != nil {
		return core.StatusChange{}, err
	}
	totals, err := s.CalculateTotals(ctx, dealID)
	if err != nil {
		return core.StatusChange{}, err
	}

	target := core.DeriveStatus(deal, totals)
	change := core.StatusChange{
		DealID:  dealID,
		From:    deal.Status,
		To:      target,
		Totals:  totals,
		Changed: target != deal.Status,
	}
	if !change.Changed {
		return change, nil
	}

	if err := s.ledger.UpdateDealStatus(ctx, dealID, target); err != nil {
		return core.StatusChange{}, err
	}
	s.metrics.StatusTransition(target.String())
	s.logger.InfoContext(ctx, "Deal status changed",
		applog.FieldDealID, dealID,
		applog.FieldStatusFrom, change.From.String(),
		applog.FieldStatusTo, change.To.String())

	if s.notifier != nil {
		if err := s.notifier.NotifyStatusChange(ctx, change); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish status change",
				applog.FieldDealID, dealID, applog.FieldError, err)
		}
	}
	return change, nil
}

// PendingDeals lists the deals that still accept transactions in the
// entry form.
func (s *DealService) PendingDeals(ctx context.Context) ([]core.Deal, error) {
	deals, err := s.ledger.LoadDeals(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Filter(deals, func(d core.Deal, _ int) bool { return d.Status == core.StatusPending }), nil
}
