package query

import (
	"cmp"
	"slices"

	"expenses/internal/core"
)

// Match reports whether e satisfies every predicate of the view.
func (v ExpenseView) Match(e core.Expense) bool {
	for _, p := range v.predicates {
		switch p := p.(type) {
		case NameContains:
			if !containsFold(e.Name, p.Substring) {
				return false
			}
		case CategoryIn:
			if e.CategoryID == nil || !slices.Contains(p.IDs, *e.CategoryID) {
				return false
			}
		case DateEquals:
			if !e.Date.Equal(p.Date) {
				return false
			}
		}
	}
	return true
}

// Apply evaluates the view over rows in memory. rows is not modified.
func (v ExpenseView) Apply(rows []core.Expense) []core.Expense {
	out := make([]core.Expense, 0, len(rows))
	for _, e := range rows {
		if v.Match(e) {
			out = append(out, e)
		}
	}
	keys := v.Ordering()
	slices.SortStableFunc(out, func(a, b core.Expense) int {
		return compareExpenses(keys, a, b)
	})
	return out
}

func compareExpenses(keys []OrderKey, a, b core.Expense) int {
	for _, k := range keys {
		var c int
		switch k.Field {
		case OrderByCategoryName:
			// Expenses without a category sort as an empty name.
			c = cmp.Compare(a.CategoryName, b.CategoryName)
		case OrderByDate:
			c = a.Date.Compare(b.Date.Time)
		case OrderByID:
			c = cmp.Compare(a.ID, b.ID)
		}
		if k.Descending {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

// Match reports whether c satisfies every predicate of the view.
func (v CategoryView) Match(c core.Category) bool {
	for _, p := range v.predicates {
		if p, ok := p.(NameContains); ok && !containsFold(c.Name, p.Substring) {
			return false
		}
	}
	return true
}

// Apply evaluates the view over rows in memory, ordered by id.
func (v CategoryView) Apply(rows []core.Category) []core.Category {
	out := make([]core.Category, 0, len(rows))
	for _, c := range rows {
		if v.Match(c) {
			out = append(out, c)
		}
	}
	slices.SortStableFunc(out, func(a, b core.Category) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}
