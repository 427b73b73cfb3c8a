// Package query turns listing request parameters into validated searches and
// applies them to expense and category views.
//
// The flow is Parse -> Build -> evaluate: parsing produces an ExpenseSearch or
// CategorySearch, building folds the search into an immutable view
// description, and a store evaluates the view once.
package query

import "expenses/internal/core"

// DefaultItemsPerPage is the page size used when a search does not override it.
const DefaultItemsPerPage = 5

// Accepted sort_by values.
const (
	SortCategoryAsc  = "category:asc"
	SortCategoryDesc = "category:desc"
	SortDateAsc      = "date:asc"
	SortDateDesc     = "date:desc"
)

// Accepted group_by values.
const (
	GroupCategoryAsc  = "category:asc"
	GroupCategoryDesc = "category:desc"
	GroupDate         = "date"
)

var (
	SortChoices  = []string{SortCategoryAsc, SortCategoryDesc, SortDateAsc, SortDateDesc}
	GroupChoices = []string{GroupCategoryAsc, GroupCategoryDesc, GroupDate}
)

// ExpenseSearch is the validated form of an expense listing request.
// Zero values mean "not provided".
type ExpenseSearch struct {
	Name         string
	Categories   []int64
	Date         *core.Date
	SortBy       string
	GroupBy      string
	ItemsPerPage int
}

// CategorySearch is the validated form of a category listing request.
type CategorySearch struct {
	Name         string
	ItemsPerPage int
}

// PageSize returns the effective page size for the search.
func (s ExpenseSearch) PageSize() int {
	return pageSize(s.ItemsPerPage)
}

// PageSize returns the effective page size for the search.
func (s CategorySearch) PageSize() int {
	return pageSize(s.ItemsPerPage)
}

func pageSize(n int) int {
	if n > 0 {
		return n
	}
	return DefaultItemsPerPage
}
