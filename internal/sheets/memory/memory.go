package memory

import (
	"context"
	"encoding/csv"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"dealtracker/internal/sheets"
)

// Store keeps tables in process memory. It is the default backend for local
// runs and the fake used by most tests.
type Store struct {
	mu     sync.Mutex
	tables map[string][]sheets.Record
}

var _ sheets.TableStore = (*Store)(nil)

func New() *Store {
	return &Store{tables: map[string][]sheets.Record{
		sheets.TableDeals:        {},
		sheets.TableTransactions: {},
	}}
}

// NewFromFiles seeds the store from deals.csv and transactions.csv in base.
// Each file needs a header row; missing files leave the table empty.
func NewFromFiles(base string) (*Store, error) {
	s := New()
	for table, name := range map[string]string{
		sheets.TableDeals:        "deals.csv",
		sheets.TableTransactions: "transactions.csv",
	} {
		recs, err := readCSV(filepath.Join(base, name))
		if err != nil {
			return nil, fmt.Errorf("seed %s: %w", table, err)
		}
		s.tables[table] = recs
	}
	return s, nil
}

func (s *Store) Load(_ context.Context, table string) ([]sheets.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.tables[table]
	if !ok {
		return nil, fmt.Errorf("%w: %s", sheets.ErrStoreNotFound, table)
	}
	out := make([]sheets.Record, len(rows))
	for i, r := range rows {
		out[i] = maps.Clone(r)
	}
	return out, nil
}

func (s *Store) ReplaceAll(_ context.Context, table string, records []sheets.Record) error {
	if _, err := sheets.Columns(table); err != nil {
		return fmt.Errorf("%w: %s", err, table)
	}
	rows := make([]sheets.Record, len(records))
	for i, r := range records {
		rows[i] = maps.Clone(r)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[table] = rows
	return nil
}

func (s *Store) Append(_ context.Context, table string, record sheets.Record) error {
	if _, err := sheets.Columns(table); err != nil {
		return fmt.Errorf("%w: %s", err, table)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[table] = append(s.tables[table], maps.Clone(record))
	return nil
}

func (s *Store) UpdateCell(_ context.Context, table string, rowIndex int, column string, value any) error {
	if _, err := sheets.ColumnIndex(table, column); err != nil {
		return fmt.Errorf("%w: %s.%s", err, table, column)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.tables[table]
	if rowIndex < 0 || rowIndex >= len(rows) {
		return fmt.Errorf("%w: %s row %d", sheets.ErrRowOutOfRange, table, rowIndex)
	}
	rows[rowIndex][column] = value
	return nil
}

func readCSV(path string) ([]sheets.Record, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return []sheets.Record{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comment = '#'
	r.FieldsPerRecord = -1
	lines, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return []sheets.Record{}, nil
	}
	header := lines[0]
	out := make([]sheets.Record, 0, len(lines)-1)
	for _, line := range lines[1:] {
		rec := sheets.Record{}
		for i, col := range header {
			if i < len(line) {
				rec[strings.TrimSpace(col)] = strings.TrimSpace(line[i])
			}
		}
		out = append(out, rec)
	}
	return out, nil
}
