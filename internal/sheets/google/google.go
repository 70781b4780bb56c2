package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	applog "dealtracker/internal/log"
	ports "dealtracker/internal/sheets"

	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const (
	valueInputUserEntered = "USER_ENTERED"
	insertRows            = "INSERT_ROWS"
	renderUnformatted     = "UNFORMATTED_VALUE"
	dateTimeFormatted     = "FORMATTED_STRING"
)

// Config selects the spreadsheet and the worksheet backing each table.
type Config struct {
	SpreadsheetID     string
	DealsSheet        string
	TransactionsSheet string

	// Service account credentials: inline JSON wins over a file path.
	CredentialsJSON string
	CredentialsFile string
}

// Store is a TableStore over one Google spreadsheet. Each logical table
// lives in its own worksheet with the header in row 1.
type Store struct {
	svc           *gsheet.Service
	spreadsheetID string
	tabs          map[string]string
	logger        *applog.Logger
}

var _ ports.TableStore = (*Store)(nil)

// New wraps an existing Sheets service. tabs maps logical table names to
// worksheet titles; unmapped tables use their logical name.
func New(svc *gsheet.Service, spreadsheetID string, tabs map[string]string, logger *applog.Logger) *Store {
	if logger == nil {
		logger = applog.Discard()
	}
	if tabs == nil {
		tabs = map[string]string{}
	}
	return &Store{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		tabs:          tabs,
		logger:        logger.WithComponent(applog.ComponentSheets),
	}
}

// NewFromConfig authenticates with a service account and returns a Store.
func NewFromConfig(ctx context.Context, cfg Config, logger *applog.Logger) (*Store, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	tabs := map[string]string{
		ports.TableDeals:        defaultIfEmpty(cfg.DealsSheet, ports.TableDeals),
		ports.TableTransactions: defaultIfEmpty(cfg.TransactionsSheet, ports.TableTransactions),
	}
	return New(svc, strings.TrimSpace(cfg.SpreadsheetID), tabs, logger), nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context, cfg Config, logger *applog.Logger) (*gsheet.Service, error) {
	if logger == nil {
		logger = applog.Discard()
	}
	logger = logger.WithComponent(applog.ComponentSheets)

	credentialsJSON, err := loadCredentials(cfg)
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func loadCredentials(cfg Config) ([]byte, error) {
	inline := strings.TrimSpace(cfg.CredentialsJSON)
	file := strings.TrimSpace(cfg.CredentialsFile)
	switch {
	case inline != "":
		return []byte(inline), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

func (s *Store) Load(ctx context.Context, table string) ([]ports.Record, error) {
	if s.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	tab := s.tab(table)
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, quoteTab(tab)).
		ValueRenderOption(renderUnformatted).
		DateTimeRenderOption(dateTimeFormatted).
		Context(ctx).Do()
	if err != nil {
		return nil, mapError("load", tab, err)
	}
	recs := recordsFromValues(resp.Values)
	s.logger.DebugContext(ctx, "Loaded worksheet", applog.FieldTable, tab, applog.FieldRows, len(recs))
	return recs, nil
}

func (s *Store) ReplaceAll(ctx context.Context, table string, records []ports.Record) error {
	if s.svc == nil {
		return errors.New("sheets service not initialized")
	}
	cols, err := ports.Columns(table)
	if err != nil {
		return fmt.Errorf("%w: %s", err, table)
	}
	tab := s.tab(table)

	values := make([][]any, 0, len(records)+1)
	values = append(values, headerRow(cols))
	for _, r := range records {
		values = append(values, guardRow(ports.Row(cols, r)))
	}

	if _, err := s.svc.Spreadsheets.Values.Clear(s.spreadsheetID, quoteTab(tab), &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return mapError("clear", tab, err)
	}
	vr := &gsheet.ValueRange{Values: values}
	if _, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, quoteTab(tab)+"!A1", vr).
		ValueInputOption(valueInputUserEntered).Context(ctx).Do(); err != nil {
		return mapError("replace", tab, err)
	}
	s.logger.InfoContext(ctx, "Replaced worksheet", applog.FieldTable, tab, applog.FieldRows, len(records))
	return nil
}

func (s *Store) Append(ctx context.Context, table string, record ports.Record) error {
	if s.svc == nil {
		return errors.New("sheets service not initialized")
	}
	cols, err := ports.Columns(table)
	if err != nil {
		return fmt.Errorf("%w: %s", err, table)
	}
	tab := s.tab(table)
	vr := &gsheet.ValueRange{Values: [][]any{guardRow(ports.Row(cols, record))}}
	_, err = s.svc.Spreadsheets.Values.Append(s.spreadsheetID, quoteTab(tab)+"!A1", vr).
		ValueInputOption(valueInputUserEntered).
		InsertDataOption(insertRows).
		Context(ctx).Do()
	if err != nil {
		return mapError("append", tab, err)
	}
	return nil
}

// UpdateCell writes one cell. The column is located through the live header
// row so hand-reordered worksheets still get the right cell.
func (s *Store) UpdateCell(ctx context.Context, table string, rowIndex int, column string, value any) error {
	if s.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if rowIndex < 0 {
		return fmt.Errorf("%w: %s row %d", ports.ErrRowOutOfRange, table, rowIndex)
	}
	if _, err := ports.ColumnIndex(table, column); err != nil {
		return fmt.Errorf("%w: %s.%s", err, table, column)
	}
	tab := s.tab(table)

	header, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, quoteTab(tab)+"!1:1").Context(ctx).Do()
	if err != nil {
		return mapError("read header", tab, err)
	}
	col := -1
	if len(header.Values) > 0 {
		col = indexOf(toStrings(header.Values[0]), column)
	}
	if col < 0 {
		return fmt.Errorf("%w: %s has no %s header", ports.ErrUnknownColumn, tab, column)
	}

	cell := fmt.Sprintf("%s!%s%d", quoteTab(tab), columnLetter(col), rowIndex+2)
	vr := &gsheet.ValueRange{Values: [][]any{{guardCell(value)}}}
	if _, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, cell, vr).
		ValueInputOption(valueInputUserEntered).Context(ctx).Do(); err != nil {
		return mapError("update", tab, err)
	}
	return nil
}

func (s *Store) tab(table string) string {
	if t, ok := s.tabs[table]; ok && t != "" {
		return t
	}
	return table
}

// mapError classifies API failures. A 404 (spreadsheet missing or not
// shared) and an unparsable range (worksheet missing) are ErrStoreNotFound;
// everything else is ErrStoreAccess.
func mapError(op, tab string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if gerr.Code == http.StatusNotFound ||
			(gerr.Code == http.StatusBadRequest && strings.Contains(gerr.Message, "Unable to parse range")) {
			return fmt.Errorf("%s %s: %w: %v", op, tab, ports.ErrStoreNotFound, err)
		}
	}
	return fmt.Errorf("%s %s: %w: %v", op, tab, ports.ErrStoreAccess, err)
}

// quoteTab renders a worksheet title for A1 notation.
func quoteTab(tab string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
}

// columnLetter converts a 0-based column index to its A1 letters
// (0 -> A, 25 -> Z, 26 -> AA).
func columnLetter(idx int) string {
	var b []byte
	for n := idx + 1; n > 0; n = (n - 1) / 26 {
		b = append([]byte{byte('A' + (n-1)%26)}, b...)
	}
	return string(b)
}

func headerRow(cols []string) []any {
	out := make([]any, len(cols))
	for i, c := range cols {
		out[i] = c
	}
	return out
}

func defaultIfEmpty(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return strings.TrimSpace(v)
}
