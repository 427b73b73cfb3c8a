package query

import (
	"slices"
	"strings"

	"expenses/internal/core"
)

// Predicate is one filter condition of a view. The set of predicates is
// closed; stores switch over the concrete types.
type Predicate interface {
	predicate()
}

// NameContains keeps rows whose name contains Substring, ignoring case.
type NameContains struct{ Substring string }

// CategoryIn keeps expenses whose category is one of IDs.
type CategoryIn struct{ IDs []int64 }

// DateEquals keeps expenses dated exactly Date.
type DateEquals struct{ Date core.Date }

func (NameContains) predicate() {}
func (CategoryIn) predicate() {}
func (DateEquals) predicate() {}

// ExpenseView describes a filtered, ordered selection of expenses without
// executing it. Every method returns a new view; the receiver is never changed.
type ExpenseView struct {
	predicates []Predicate
	ordering   []OrderKey
}

// AllExpenses is the unfiltered base view.
func AllExpenses() ExpenseView {
	return ExpenseView{}
}

// Filter returns a view additionally restricted by p.
func (v ExpenseView) Filter(p Predicate) ExpenseView {
	return ExpenseView{
		predicates: append(slices.Clone(v.predicates), p),
		ordering:   v.ordering,
	}
}

// OrderBy returns a view ordered by keys, replacing any earlier ordering.
func (v ExpenseView) OrderBy(keys ...OrderKey) ExpenseView {
	return ExpenseView{
		predicates: v.predicates,
		ordering:   slices.Clone(keys),
	}
}

// Unordered returns the view without ordering, as used for aggregation.
func (v ExpenseView) Unordered() ExpenseView {
	return ExpenseView{predicates: v.predicates}
}

// Predicates returns a copy of the view's filter conditions.
func (v ExpenseView) Predicates() []Predicate {
	return slices.Clone(v.predicates)
}

// Ordering returns the explicit ordering, followed by ascending id as the
// final tie-break so evaluation is deterministic on every store.
func (v ExpenseView) Ordering() []OrderKey {
	return withIDTieBreak(v.ordering)
}

// CategoryView describes a filtered selection of categories.
type CategoryView struct {
	predicates []Predicate
}

// AllCategories is the unfiltered base view.
func AllCategories() CategoryView {
	return CategoryView{}
}

// Filter returns a view additionally restricted by p. Only NameContains
// applies to categories; other predicates are ignored by stores.
func (v CategoryView) Filter(p Predicate) CategoryView {
	return CategoryView{predicates: append(slices.Clone(v.predicates), p)}
}

// Predicates returns a copy of the view's filter conditions.
func (v CategoryView) Predicates() []Predicate {
	return slices.Clone(v.predicates)
}

func withIDTieBreak(keys []OrderKey) []OrderKey {
	out := slices.Clone(keys)
	for _, k := range out {
		if k.Field == OrderByID {
			return out
		}
	}
	return append(out, Asc(OrderByID))
}

// containsFold reports whether substr is within s, ignoring case.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
