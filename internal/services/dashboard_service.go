package services

import (
	"context"
	"time"

	"dealtracker/internal/core"
	"dealtracker/internal/ledger"
	applog "dealtracker/internal/log"

	"golang.org/x/sync/errgroup"
)

// DashboardService recomputes the dashboard from both tables on each call.
type DashboardService struct {
	ledger *ledger.Ledger
	now    func() time.Time
	logger *applog.Logger
}

type DashboardOption func(*DashboardService)

// WithClock overrides the source of "today" used by quick ranges.
func WithClock(now func() time.Time) DashboardOption {
	return func(s *DashboardService) { s.now = now }
}

func WithDashboardLogger(l *applog.Logger) DashboardOption {
	return func(s *DashboardService) { s.logger = l }
}

func NewDashboardService(l *ledger.Ledger, opts ...DashboardOption) *DashboardService {
	s := &DashboardService{ledger: l, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	if s.logger == nil {
		s.logger = applog.Discard()
	}
	s.logger = s.logger.WithComponent(applog.ComponentDashboard)
	return s
}

// Today is the calendar date quick ranges are anchored to.
func (s *DashboardService) Today() core.Date {
	return core.DateOf(s.now())
}

// Report loads both tables concurrently and builds the filtered dashboard.
func (s *DashboardService) Report(ctx context.Context, f core.Filter) (core.Report, error) {
	var (
		deals []core.Deal
		txs   []core.Transaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		deals, err = s.ledger.LoadDeals(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		txs, err = s.ledger.LoadTransactions(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.Report{}, err
	}

	report := core.BuildReport(deals, txs, f, s.Today())
	s.logger.DebugContext(ctx, "Dashboard built",
		"deals", len(deals),
		"transactions", len(txs),
		applog.FieldRows, len(report.Rows))
	return report, nil
}
