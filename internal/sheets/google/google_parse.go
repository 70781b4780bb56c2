package google

import (
	"fmt"
	"strings"

	ports "dealtracker/internal/sheets"

	"github.com/shopspring/decimal"
)

// recordsFromValues turns a values matrix (header first) into records keyed
// by header name. Short rows get "" for missing cells. Row order is kept so
// record i is data row i.
func recordsFromValues(values [][]any) []ports.Record {
	if len(values) == 0 {
		return []ports.Record{}
	}
	headers := toStrings(values[0])
	out := make([]ports.Record, 0, len(values)-1)
	for _, row := range values[1:] {
		rec := make(ports.Record, len(headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			if i < len(row) && row[i] != nil {
				rec[h] = row[i]
			} else {
				rec[h] = ""
			}
		}
		out = append(out, rec)
	}
	return out
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}

// guardCell stops USER_ENTERED from evaluating text as a formula. Sheets
// treats a leading quote as a text marker and does not store it, so the
// value reads back unchanged. Numbers are left alone.
func guardCell(v any) any {
	s, ok := v.(string)
	if !ok || s == "" || !strings.ContainsRune("=+-@", rune(s[0])) {
		return v
	}
	if _, err := decimal.NewFromString(s); err == nil {
		return v
	}
	return "'" + s
}

func guardRow(row []any) []any {
	for i := range row {
		row[i] = guardCell(row[i])
	}
	return row
}
