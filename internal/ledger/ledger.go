// Package ledger is the typed, cached view of the deal and transaction
// tables. Every write goes through here so the cache is invalidated on all
// mutation paths.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"dealtracker/internal/cache"
	"dealtracker/internal/core"
	applog "dealtracker/internal/log"
	"dealtracker/internal/metrics"
	"dealtracker/internal/sheets"
)

const (
	opLoad       = "load"
	opAppend     = "append"
	opUpdateCell = "update_cell"
	opReplaceAll = "replace_all"
)

// ErrDealNotFound is returned when no deal carries the requested id.
var ErrDealNotFound = errors.New("deal not found")

type Ledger struct {
	store   sheets.TableStore
	cache   *cache.TableCache
	logger  *applog.Logger
	metrics *metrics.Metrics
}

type Option func(*Ledger)

func WithLogger(l *applog.Logger) Option {
	return func(lg *Ledger) { lg.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(lg *Ledger) { lg.metrics = m }
}

// New builds a ledger over store. The cache is owned by the ledger; pass
// cache.NewTableCache(0) to turn caching off.
func New(store sheets.TableStore, c *cache.TableCache, opts ...Option) *Ledger {
	lg := &Ledger{store: store, cache: c}
	for _, o := range opts {
		o(lg)
	}
	if lg.cache == nil {
		lg.cache = cache.NewTableCache(0)
	}
	if lg.logger == nil {
		lg.logger = applog.Discard()
	}
	lg.logger = lg.logger.WithComponent(applog.ComponentLedger)
	return lg
}

// LoadDeals returns all deals in stored order, served from cache within
// the TTL.
func (l *Ledger) LoadDeals(ctx context.Context) ([]core.Deal, error) {
	key := cache.Key(sheets.TableDeals, opLoad)
	if deals, ok := cache.Lookup[[]core.Deal](l.cache, key); ok {
		return slices.Clone(deals), nil
	}
	recs, err := l.load(ctx, sheets.TableDeals)
	if err != nil {
		return nil, err
	}
	deals := make([]core.Deal, 0, len(recs))
	for i, r := range recs {
		d, err := dealFromRecord(i, r)
		if err != nil {
			return nil, err
		}
		deals = append(deals, d)
	}
	l.cache.Set(key, deals)
	return slices.Clone(deals), nil
}

// LoadTransactions returns all transactions in stored order, cached like
// LoadDeals.
func (l *Ledger) LoadTransactions(ctx context.Context) ([]core.Transaction, error) {
	key := cache.Key(sheets.TableTransactions, opLoad)
	if txs, ok := cache.Lookup[[]core.Transaction](l.cache, key); ok {
		return slices.Clone(txs), nil
	}
	recs, err := l.load(ctx, sheets.TableTransactions)
	if err != nil {
		return nil, err
	}
	txs := make([]core.Transaction, 0, len(recs))
	for i, r := range recs {
		t, err := transactionFromRecord(i, r)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	l.cache.Set(key, txs)
	return slices.Clone(txs), nil
}

// LoadRecords returns the raw rows of table, bypassing the cache.
func (l *Ledger) LoadRecords(ctx context.Context, table string) ([]sheets.Record, error) {
	return l.load(ctx, table)
}

// Deal returns the deal with id, or ErrDealNotFound.
func (l *Ledger) Deal(ctx context.Context, id int) (core.Deal, error) {
	deals, err := l.LoadDeals(ctx)
	if err != nil {
		return core.Deal{}, err
	}
	i := slices.IndexFunc(deals, func(d core.Deal) bool { return d.ID == id })
	if i < 0 {
		return core.Deal{}, fmt.Errorf("%w: %d", ErrDealNotFound, id)
	}
	return deals[i], nil
}

// GenerateDealID returns max(Deal_ID)+1, or 1 for an empty table.
func (l *Ledger) GenerateDealID(ctx context.Context) (int, error) {
	deals, err := l.LoadDeals(ctx)
	if err != nil {
		return 0, err
	}
	next := 1
	for _, d := range deals {
		if d.ID >= next {
			next = d.ID + 1
		}
	}
	return next, nil
}

func (l *Ledger) AppendDeal(ctx context.Context, d core.Deal) error {
	defer l.Invalidate(sheets.TableDeals)
	return l.call(ctx, sheets.TableDeals, opAppend, func() error {
		return l.store.Append(ctx, sheets.TableDeals, dealRecord(d))
	})
}

func (l *Ledger) AppendTransaction(ctx context.Context, t core.Transaction) error {
	defer l.Invalidate(sheets.TableTransactions)
	return l.call(ctx, sheets.TableTransactions, opAppend, func() error {
		return l.store.Append(ctx, sheets.TableTransactions, transactionRecord(t))
	})
}

// UpdateDealStatus locates the deal's data row and writes its Status cell.
// Exactly one cell is written.
func (l *Ledger) UpdateDealStatus(ctx context.Context, dealID int, status core.DealStatus) error {
	deals, err := l.LoadDeals(ctx)
	if err != nil {
		return err
	}
	row := slices.IndexFunc(deals, func(d core.Deal) bool { return d.ID == dealID })
	if row < 0 {
		return fmt.Errorf("%w: %d", ErrDealNotFound, dealID)
	}
	defer l.Invalidate(sheets.TableDeals)
	return l.call(ctx, sheets.TableDeals, opUpdateCell, func() error {
		return l.store.UpdateCell(ctx, sheets.TableDeals, row, sheets.ColStatus, status.String())
	})
}

// ReplaceTable overwrites table with records.
func (l *Ledger) ReplaceTable(ctx context.Context, table string, records []sheets.Record) error {
	defer l.Invalidate(table)
	return l.call(ctx, table, opReplaceAll, func() error {
		return l.store.ReplaceAll(ctx, table, records)
	})
}

// Invalidate drops every cached read of table.
func (l *Ledger) Invalidate(table string) {
	if n := l.cache.Invalidate(table); n > 0 {
		l.logger.Debug("Cache invalidated", applog.FieldTable, table, "entries", n)
	}
}

func (l *Ledger) load(ctx context.Context, table string) ([]sheets.Record, error) {
	var recs []sheets.Record
	err := l.call(ctx, table, opLoad, func() error {
		var err error
		recs, err = l.store.Load(ctx, table)
		return err
	})
	if err != nil {
		return nil, err
	}
	l.logger.DebugContext(ctx, "Loaded table", applog.FieldTable, table, applog.FieldRows, len(recs))
	return recs, nil
}

func (l *Ledger) call(ctx context.Context, table, op string, fn func() error) error {
	err := fn()
	l.metrics.StoreOp(table, op, err)
	if err != nil {
		l.logger.ErrorContext(ctx, "Table store call failed",
			applog.FieldTable, table,
			applog.FieldOperation, op,
			applog.FieldError, err)
		return fmt.Errorf("%s %s: %w", op, table, err)
	}
	return nil
}
