// Package storage is a SQLite implementation of the table store, for
// running the tracker without a spreadsheet.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	applog "dealtracker/internal/log"
	"dealtracker/internal/sheets"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

var sqlTables = map[string]string{
	sheets.TableDeals:        "deals",
	sheets.TableTransactions: "transactions",
}

type SQLiteRepository struct {
	db     *sqlx.DB
	logger *applog.Logger
}

var _ sheets.TableStore = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string, logger *applog.Logger) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; SQLite serialises them anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := migrateSchema(dbPath)
	if err != nil {
		db.Close()
		return nil, err
	}

	if logger == nil {
		logger = applog.Discard()
	}
	logger = logger.WithComponent(applog.ComponentStorage)
	logger.Debug("SQLite store ready", "path", dbPath, "schema_version", version)
	return &SQLiteRepository{db: db, logger: logger}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Load returns the rows of table ordered by insertion.
func (r *SQLiteRepository) Load(ctx context.Context, table string) ([]sheets.Record, error) {
	name, cols, err := schema(table)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY row_id", strings.Join(sqlColumns(cols), ", "), name)
	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, storeErr("load "+table, err)
	}
	defer rows.Close()

	out := []sheets.Record{}
	for rows.Next() {
		raw := map[string]any{}
		if err := rows.MapScan(raw); err != nil {
			return nil, storeErr("scan "+table, err)
		}
		rec := make(sheets.Record, len(cols))
		for _, c := range cols {
			rec[c] = normalize(raw[sqlColumn(c)])
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("load "+table, err)
	}
	return out, nil
}

// ReplaceAll swaps the table contents in one transaction.
func (r *SQLiteRepository) ReplaceAll(ctx context.Context, table string, records []sheets.Record) error {
	name, cols, err := schema(table)
	if err != nil {
		return err
	}
	err = r.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+name); err != nil {
			return err
		}
		insert := insertQuery(name, cols)
		for _, rec := range records {
			if _, err := tx.ExecContext(ctx, insert, sheets.Row(cols, rec)...); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return storeErr("replace "+table, err)
	}
	r.logger.InfoContext(ctx, "Table replaced", applog.FieldTable, table, applog.FieldRows, len(records))
	return nil
}

func (r *SQLiteRepository) Append(ctx context.Context, table string, record sheets.Record) error {
	name, cols, err := schema(table)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, insertQuery(name, cols), sheets.Row(cols, record)...); err != nil {
		return storeErr("append "+table, err)
	}
	return nil
}

// UpdateCell sets column on the rowIndex-th row in insertion order. Column
// names are checked against the schema before they reach SQL.
func (r *SQLiteRepository) UpdateCell(ctx context.Context, table string, rowIndex int, column string, value any) error {
	name, _, err := schema(table)
	if err != nil {
		return err
	}
	if _, err := sheets.ColumnIndex(table, column); err != nil {
		return fmt.Errorf("%w: %s.%s", err, table, column)
	}
	if rowIndex < 0 {
		return fmt.Errorf("%w: %s row %d", sheets.ErrRowOutOfRange, table, rowIndex)
	}

	query := fmt.Sprintf(
		"UPDATE %[1]s SET %[2]s = ? WHERE row_id = (SELECT row_id FROM %[1]s ORDER BY row_id LIMIT 1 OFFSET ?)",
		name, sqlColumn(column))
	res, err := r.db.ExecContext(ctx, query, value, rowIndex)
	if err != nil {
		return storeErr("update "+table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr("update "+table, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s row %d", sheets.ErrRowOutOfRange, table, rowIndex)
	}
	return nil
}

func (r *SQLiteRepository) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w; rollback: %v", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

func schema(table string) (string, []string, error) {
	cols, err := sheets.Columns(table)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %s", err, table)
	}
	return sqlTables[table], cols, nil
}

func sqlColumn(c string) string {
	return strings.ToLower(c)
}

func sqlColumns(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = sqlColumn(c)
	}
	return out
}

func insertQuery(table string, cols []string) string {
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(sqlColumns(cols), ", "), marks)
}

// normalize turns driver values into the string/number shapes the ledger
// coerces.
func normalize(v any) any {
	switch t := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(t)
	}
	return v
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", sheets.ErrStoreAccess, op, err)
}
