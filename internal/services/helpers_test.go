package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"dealtracker/internal/cache"
	"dealtracker/internal/core"
	"dealtracker/internal/ledger"
	"dealtracker/internal/sheets"
	"dealtracker/internal/sheets/memory"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// spyStore counts writes going to the wrapped store.
type spyStore struct {
	sheets.TableStore
	mu          sync.Mutex
	updateCells int
	appends     map[string]int
	failAppend  bool
}

func newSpyStore() *spyStore {
	return &spyStore{TableStore: memory.New(), appends: map[string]int{}}
}

func (s *spyStore) Append(ctx context.Context, table string, r sheets.Record) error {
	s.mu.Lock()
	s.appends[table]++
	fail := s.failAppend
	s.mu.Unlock()
	if fail {
		return sheets.ErrStoreAccess
	}
	return s.TableStore.Append(ctx, table, r)
}

func (s *spyStore) UpdateCell(ctx context.Context, table string, row int, col string, v any) error {
	s.mu.Lock()
	s.updateCells++
	s.mu.Unlock()
	return s.TableStore.UpdateCell(ctx, table, row, col, v)
}

type fakeNotifier struct {
	changes []core.StatusChange
	err     error
}

func (f *fakeNotifier) NotifyStatusChange(_ context.Context, c core.StatusChange) error {
	f.changes = append(f.changes, c)
	return f.err
}

var errNotifier = errors.New("broker down")

func newLedger(store sheets.TableStore) *ledger.Ledger {
	return ledger.New(store, cache.NewTableCache(time.Minute))
}

func dealInput(party, contractor, from, to string, start core.Date) core.DealInput {
	return core.DealInput{
		Party:              party,
		Contractor:         contractor,
		AgreedFromParty:    dec(from),
		AgreedToContractor: dec(to),
		StartDate:          start,
	}
}

func mustAddDeal(t *testing.T, s *DealService, in core.DealInput) core.Deal {
	t.Helper()
	d, err := s.AddDeal(context.Background(), in)
	if err != nil {
		t.Fatalf("AddDeal: %v", err)
	}
	return d
}
