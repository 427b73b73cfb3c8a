package query

import (
	"strings"

	"expenses/internal/core"
)

// ExpenseStage is one step of the expense query pipeline.
type ExpenseStage func(ExpenseView) ExpenseView

// BuildExpenseView applies a validated search to base. Stages run in a fixed
// order: name, categories, date, sort_by, group_by.
func BuildExpenseView(base ExpenseView, s ExpenseSearch) ExpenseView {
	stages := []ExpenseStage{
		FilterName(s.Name),
		FilterCategories(s.Categories),
		FilterDate(s.Date),
		SortBy(s.SortBy),
		GroupBy(s.GroupBy),
	}
	v := base
	for _, stage := range stages {
		v = stage(v)
	}
	return v
}

// FilterName keeps expenses whose name contains the trimmed name, ignoring case.
func FilterName(name string) ExpenseStage {
	name = strings.TrimSpace(name)
	return func(v ExpenseView) ExpenseView {
		if name == "" {
			return v
		}
		return v.Filter(NameContains{Substring: name})
	}
}

// FilterCategories keeps expenses in any of ids. An empty set means no
// restriction, not "match nothing".
func FilterCategories(ids []int64) ExpenseStage {
	return func(v ExpenseView) ExpenseView {
		if len(ids) == 0 {
			return v
		}
		return v.Filter(CategoryIn{IDs: append([]int64(nil), ids...)})
	}
}

// FilterDate keeps expenses dated exactly d.
func FilterDate(d *core.Date) ExpenseStage {
	return func(v ExpenseView) ExpenseView {
		if d == nil {
			return v
		}
		return v.Filter(DateEquals{Date: *d})
	}
}

// SortBy orders the whole view by a single decoded key.
func SortBy(token string) ExpenseStage {
	return func(v ExpenseView) ExpenseView {
		if token == "" {
			return v
		}
		key, ok := DecodeOrdering(token)
		if !ok {
			return v
		}
		return v.OrderBy(key)
	}
}

// GroupBy orders by a decoded key and breaks ties by descending id, so rows
// of one group come out newest first.
func GroupBy(token string) ExpenseStage {
	return func(v ExpenseView) ExpenseView {
		if token == "" {
			return v
		}
		key, ok := DecodeOrdering(token)
		if !ok {
			return v
		}
		return v.OrderBy(key, Desc(OrderByID))
	}
}

// BuildCategoryView applies a validated category search to base.
func BuildCategoryView(base CategoryView, s CategorySearch) CategoryView {
	name := strings.TrimSpace(s.Name)
	if name == "" {
		return base
	}
	return base.Filter(NameContains{Substring: name})
}

// ExpensesOfCategory is the view of every expense referencing one category.
func ExpensesOfCategory(id int64) ExpenseView {
	return AllExpenses().Filter(CategoryIn{IDs: []int64{id}})
}
