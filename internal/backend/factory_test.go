package backend

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dealtracker/internal/config"
	"dealtracker/internal/sheets"
	"dealtracker/internal/sheets/memory"
	"dealtracker/internal/storage"
)

func TestCreateMemoryBackendSeedsFromDirectory(t *testing.T) {
	dir := t.TempDir()
	csv := "Deal_ID,Party,Contractor,Agreed_From_Party,Agreed_To_Contractor,Status,Start_Date\n1,Acme,Bob,1000,800,Pending,2024-06-01\n"
	if err := os.WriteFile(filepath.Join(dir, "deals.csv"), []byte(csv), 0644); err != nil {
		t.Fatal(err)
	}

	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: MemoryBackend, DataDirectory: dir})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	defer res.Close()

	if _, ok := res.Store.(*memory.Store); !ok {
		t.Fatalf("expected *memory.Store, got %T", res.Store)
	}
	deals, err := res.Store.Load(context.Background(), sheets.TableDeals)
	if err != nil || len(deals) != 1 || deals[0][sheets.ColParty] != "Acme" {
		t.Fatalf("seeded deals = %v, %v", deals, err)
	}
	txs, err := res.Store.Load(context.Background(), sheets.TableTransactions)
	if err != nil || len(txs) != 0 {
		t.Fatalf("missing transactions.csv should give an empty table: %v, %v", txs, err)
	}
}

func TestCreateSQLiteBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deals.db")
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: SQLiteBackend, SQLiteDBPath: path})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	if _, ok := res.Store.(*storage.SQLiteRepository); !ok {
		t.Fatalf("expected *storage.SQLiteRepository, got %T", res.Store)
	}
	if res.Cleanup == nil {
		t.Fatal("sqlite backend must return a cleanup func")
	}
	if err := res.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestCreateBackendRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{"unknown type", Config{Type: "postgres"}, "invalid backend type"},
		{"sqlite without path", Config{Type: SQLiteBackend}, "SQLite database path is required"},
		{"sheets without id", Config{Type: SheetsBackend}, "Spreadsheet ID is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFactory(nil).CreateBackend(context.Background(), tt.config)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("CreateBackend error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	app := &config.Config{
		DataBackend:                  "sheets",
		GoogleSpreadsheetID:          "sheet-id",
		GoogleApplicationCredentials: "/creds.json",
		DealsSheetName:               "My Deals",
		TransactionsSheetName:        "Payments",
		DataDir:                      "seed",
	}
	cfg, err := FromAppConfig(app)
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Type != SheetsBackend || cfg.Sheets.SpreadsheetID != "sheet-id" || cfg.Sheets.CredentialsFile != "/creds.json" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.Sheets.DealsSheet != "My Deals" || cfg.Sheets.TransactionsSheet != "Payments" || cfg.DataDirectory != "seed" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}

	if _, err := FromAppConfig(&config.Config{DataBackend: "nope"}); err == nil {
		t.Error("expected error for invalid backend")
	}
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
}

func TestGetBackendTypeStrings(t *testing.T) {
	got := strings.Join(GetBackendTypeStrings(), ",")
	if got != "sqlite,sheets,memory" {
		t.Errorf("GetBackendTypeStrings() = %s", got)
	}
}
