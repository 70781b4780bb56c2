package core

import (
	"strings"

	"github.com/samber/lo"
)

const (
	RangeCustom    QuickRange = "Custom"
	RangeLastWeek  QuickRange = "Last Week"
	RangeLastMonth QuickRange = "Last Month"
	RangeLastYear  QuickRange = "Last Year"
)

// QuickRange is a named date window ending today.
type QuickRange string

var quickRangeDays = map[QuickRange]int{
	RangeLastWeek:  7,
	RangeLastMonth: 30,
	RangeLastYear:  365,
}

// ParseQuickRange accepts the display names ("Last Week") as well as compact
// forms ("last_week", "lastweek", "week"). Empty means Custom.
func ParseQuickRange(s string) (QuickRange, error) {
	norm := strings.ToLower(strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.TrimSpace(s)))
	switch norm {
	case "", "custom":
		return RangeCustom, nil
	case "lastweek", "week":
		return RangeLastWeek, nil
	case "lastmonth", "month":
		return RangeLastMonth, nil
	case "lastyear", "year":
		return RangeLastYear, nil
	default:
		return "", &ValidationError{Field: "range", Err: ErrInvalidRange}
	}
}

// Filter selects dashboard rows. All criteria are conjunctive; the zero
// Filter matches everything.
type Filter struct {
	Party      string
	Contractor string
	From       Date
	To         Date
	Range      QuickRange
}

// Resolve returns the effective inclusive date bounds. A quick range other
// than Custom overrides From/To with [today-N days, today].
func (f Filter) Resolve(today Date) (from, to Date) {
	if days, ok := quickRangeDays[f.Range]; ok {
		return today.AddDays(-days), today
	}
	return f.From, f.To
}

// Apply returns the rows matching f. Text criteria are case-insensitive
// substring matches. Each date bound that is set is applied inclusively to
// StartDate, and rows without a start date drop out once any bound is set.
func (f Filter) Apply(rows []DashboardRow, today Date) []DashboardRow {
	from, to := f.Resolve(today)
	party := strings.ToLower(strings.TrimSpace(f.Party))
	contractor := strings.ToLower(strings.TrimSpace(f.Contractor))

	return lo.Filter(rows, func(r DashboardRow, _ int) bool {
		if party != "" && !strings.Contains(strings.ToLower(r.Party), party) {
			return false
		}
		if contractor != "" && !strings.Contains(strings.ToLower(r.Contractor), contractor) {
			return false
		}
		if from.IsEmpty() && to.IsEmpty() {
			return true
		}
		if r.StartDate.IsEmpty() {
			return false
		}
		if !from.IsEmpty() && r.StartDate.Before(from) {
			return false
		}
		if !to.IsEmpty() && r.StartDate.After(to) {
			return false
		}
		return true
	})
}

// DefaultWindow is the date window a form pre-fills: the last 30 days.
func DefaultWindow(today Date) (from, to Date) {
	return today.AddDays(-30), today
}
