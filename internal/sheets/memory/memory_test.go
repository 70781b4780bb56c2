package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"dealtracker/internal/sheets"
)

func TestMemoryStoreAppendLoadUpdate(t *testing.T) {
	ctx := context.Background()
	s := New()

	rows, err := s.Load(ctx, sheets.TableDeals)
	if err != nil || len(rows) != 0 {
		t.Fatalf("expected empty deals table, got %v, %v", rows, err)
	}

	rec := sheets.Record{sheets.ColDealID: 1, sheets.ColStatus: "Pending"}
	if err := s.Append(ctx, sheets.TableDeals, rec); err != nil {
		t.Fatalf("append: %v", err)
	}
	// mutating the caller's map must not leak into the store
	rec[sheets.ColStatus] = "Hacked"

	if err := s.UpdateCell(ctx, sheets.TableDeals, 0, sheets.ColStatus, "Completed"); err != nil {
		t.Fatalf("update: %v", err)
	}
	rows, _ = s.Load(ctx, sheets.TableDeals)
	if len(rows) != 1 || rows[0][sheets.ColStatus] != "Completed" {
		t.Fatalf("unexpected rows: %v", rows)
	}
}

func TestMemoryStoreErrors(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, err := s.Load(ctx, "Missing"); !errors.Is(err, sheets.ErrStoreNotFound) {
		t.Errorf("Load(Missing) = %v, want ErrStoreNotFound", err)
	}
	if err := s.Append(ctx, "Missing", sheets.Record{}); !errors.Is(err, sheets.ErrUnknownTable) {
		t.Errorf("Append(Missing) = %v", err)
	}
	if err := s.UpdateCell(ctx, sheets.TableDeals, 0, sheets.ColStatus, "x"); !errors.Is(err, sheets.ErrRowOutOfRange) {
		t.Errorf("UpdateCell on empty table = %v", err)
	}
	if err := s.UpdateCell(ctx, sheets.TableDeals, 0, "Bogus", "x"); !errors.Is(err, sheets.ErrUnknownColumn) {
		t.Errorf("UpdateCell unknown column = %v", err)
	}
}

func TestMemoryStoreReplaceAll(t *testing.T) {
	ctx := context.Background()
	s := New()
	_ = s.Append(ctx, sheets.TableTransactions, sheets.Record{sheets.ColDealID: 9})

	err := s.ReplaceAll(ctx, sheets.TableTransactions, []sheets.Record{
		{sheets.ColDealID: 1}, {sheets.ColDealID: 2},
	})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	rows, _ := s.Load(ctx, sheets.TableTransactions)
	if len(rows) != 2 || rows[0][sheets.ColDealID] != 1 || rows[1][sheets.ColDealID] != 2 {
		t.Fatalf("unexpected rows after replace: %v", rows)
	}
}

func TestNewFromFilesSeeds(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFromFiles(dir)
	if err != nil {
		t.Fatalf("missing files should not fail: %v", err)
	}
	if rows, _ := s.Load(context.Background(), sheets.TableDeals); len(rows) != 0 {
		t.Fatalf("expected empty seed, got %v", rows)
	}

	content := "# seed\nDeal_ID,Party,Contractor,Agreed_From_Party,Agreed_To_Contractor,Status,Start_Date\n" +
		"1,Acme,Bob,1000,800,Pending,2024-06-01\n" +
		"2,Globex,Carla,500,300,Completed,\n"
	if err := os.WriteFile(filepath.Join(dir, "deals.csv"), []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	s, err = NewFromFiles(dir)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	rows, _ := s.Load(context.Background(), sheets.TableDeals)
	if len(rows) != 2 {
		t.Fatalf("expected 2 seeded deals, got %d", len(rows))
	}
	if rows[0][sheets.ColParty] != "Acme" || rows[1][sheets.ColStartDate] != "" {
		t.Fatalf("unexpected seeded rows: %v", rows)
	}
}
