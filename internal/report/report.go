// Package report aggregates expense amounts into labelled totals.
package report

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"expenses/internal/core"
)

// NoCategoryLabel is the label used for expenses without a category.
const NoCategoryLabel = "-"

// OverallLabel is the label of the grand total.
const OverallLabel = "overall"

// Entry is one labelled total.
type Entry struct {
	Label string
	Total decimal.Decimal
}

// MonthEntry is the total for one calendar month.
type MonthEntry struct {
	Month core.Date
	Total decimal.Decimal
}

// Label renders the month as YYYY-MM.
func (m MonthEntry) Label() string {
	return m.Month.Format("2006-01")
}

// PerCategory sums amounts by category name, ordered by name.
func PerCategory(expenses []core.Expense) []Entry {
	totals := make(map[string]decimal.Decimal)
	for _, e := range expenses {
		label := e.CategoryName
		if !e.HasCategory() {
			label = NoCategoryLabel
		}
		totals[label] = totals[label].Add(e.Amount)
	}

	out := make([]Entry, 0, len(totals))
	for label, total := range totals {
		out = append(out, Entry{Label: label, Total: total})
	}
	slices.SortFunc(out, func(a, b Entry) int {
		return cmp.Compare(a.Label, b.Label)
	})
	return out
}

// PerYearMonth sums amounts by the first day of each expense's month,
// ordered chronologically.
func PerYearMonth(expenses []core.Expense) []MonthEntry {
	totals := make(map[string]MonthEntry)
	for _, e := range expenses {
		month := e.Date.MonthStart()
		entry, ok := totals[month.String()]
		if !ok {
			entry = MonthEntry{Month: month, Total: decimal.Zero}
		}
		entry.Total = entry.Total.Add(e.Amount)
		totals[month.String()] = entry
	}

	out := make([]MonthEntry, 0, len(totals))
	for _, entry := range totals {
		out = append(out, entry)
	}
	slices.SortFunc(out, func(a, b MonthEntry) int {
		return a.Month.Compare(b.Month.Time)
	})
	return out
}

// Overall sums every amount. An empty list totals zero.
func Overall(expenses []core.Expense) Entry {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return Entry{Label: OverallLabel, Total: total}
}

// Summary bundles the three aggregations of one set of expenses.
type Summary struct {
	PerCategory  []Entry
	PerYearMonth []MonthEntry
	Overall      Entry
}

// Summarize computes every aggregation over expenses.
func Summarize(expenses []core.Expense) Summary {
	return Summary{
		PerCategory:  PerCategory(expenses),
		PerYearMonth: PerYearMonth(expenses),
		Overall:      Overall(expenses),
	}
}
