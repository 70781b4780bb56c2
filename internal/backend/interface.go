// Package backend builds the table store named by DATA_BACKEND.
package backend

import (
	"context"

	"dealtracker/internal/sheets"
	"dealtracker/internal/sheets/google"
)

// BackendResult is an opened table store plus whatever releases it.
type BackendResult struct {
	Store   sheets.TableStore
	Cleanup func() error
}

// Close runs Cleanup when there is one.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config selects a backend and carries the settings only that backend reads.
type Config struct {
	Type BackendType

	SQLiteDBPath string
	Sheets       google.Config
	// DataDirectory may hold deals.csv and transactions.csv to seed the
	// memory backend.
	DataDirectory string
}

type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string { return string(bt) }

func (bt BackendType) IsValid() bool {
	return bt == SQLiteBackend || bt == SheetsBackend || bt == MemoryBackend
}
