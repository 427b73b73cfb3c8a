// Package memory is a process-local Store used for development and tests.
package memory

import (
	"context"
	"slices"
	"sync"

	"expenses/internal/core"
	"expenses/internal/query"
	"expenses/internal/storage"
)

type Store struct {
	mu         sync.Mutex
	categories []core.Category
	expenses   []core.Expense
	nextCat    int64
	nextExp    int64
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{nextCat: 1, nextExp: 1}
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error { return nil }

func (s *Store) FindExpenses(_ context.Context, view query.ExpenseView) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return view.Apply(s.resolved()), nil
}

func (s *Store) CountExpenses(_ context.Context, view query.ExpenseView) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.expenses {
		if view.Match(s.resolve(e)) {
			n++
		}
	}
	return n, nil
}

func (s *Store) GetExpense(_ context.Context, id int64) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.expenseIndex(id)
	if i < 0 {
		return core.Expense{}, core.ErrNotFound
	}
	return s.resolve(s.expenses[i]), nil
}

func (s *Store) CreateExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.CategoryID != nil && s.categoryIndex(*e.CategoryID) < 0 {
		return core.Expense{}, core.ErrUnknownCategory
	}
	e.ID = s.nextExp
	s.nextExp++
	e.CategoryID = copyRef(e.CategoryID)
	s.expenses = append(s.expenses, e)
	return s.resolve(e), nil
}

func (s *Store) UpdateExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.expenseIndex(e.ID)
	if i < 0 {
		return core.Expense{}, core.ErrNotFound
	}
	if e.CategoryID != nil && s.categoryIndex(*e.CategoryID) < 0 {
		return core.Expense{}, core.ErrUnknownCategory
	}
	e.CategoryID = copyRef(e.CategoryID)
	s.expenses[i] = e
	return s.resolve(e), nil
}

func (s *Store) DeleteExpense(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.expenseIndex(id)
	if i < 0 {
		return core.ErrNotFound
	}
	s.expenses = slices.Delete(s.expenses, i, i+1)
	return nil
}

func (s *Store) FindCategories(_ context.Context, view query.CategoryView) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return view.Apply(s.categories), nil
}

func (s *Store) GetCategory(_ context.Context, id int64) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.categoryIndex(id)
	if i < 0 {
		return core.Category{}, core.ErrNotFound
	}
	return s.categories[i], nil
}

func (s *Store) CreateCategory(_ context.Context, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.nextCat
	s.nextCat++
	s.categories = append(s.categories, c)
	return c, nil
}

func (s *Store) UpdateCategory(_ context.Context, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.categoryIndex(c.ID)
	if i < 0 {
		return core.Category{}, core.ErrNotFound
	}
	s.categories[i] = c
	return c, nil
}

// DeleteCategory removes the category and its expenses under one lock, so
// no reader observes one without the other.
func (s *Store) DeleteCategory(_ context.Context, id int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.categoryIndex(id)
	if i < 0 {
		return 0, core.ErrNotFound
	}
	before := len(s.expenses)
	s.expenses = slices.DeleteFunc(s.expenses, func(e core.Expense) bool {
		return e.CategoryID != nil && *e.CategoryID == id
	})
	s.categories = slices.Delete(s.categories, i, i+1)
	return before - len(s.expenses), nil
}

func (s *Store) MissingCategories(_ context.Context, ids []int64) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var missing []int64
	for _, id := range ids {
		if s.categoryIndex(id) < 0 {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// resolved returns every expense with its category name filled in.
// Callers hold s.mu.
func (s *Store) resolved() []core.Expense {
	out := make([]core.Expense, len(s.expenses))
	for i, e := range s.expenses {
		out[i] = s.resolve(e)
	}
	return out
}

func (s *Store) resolve(e core.Expense) core.Expense {
	e.CategoryName = ""
	if e.CategoryID != nil {
		if i := s.categoryIndex(*e.CategoryID); i >= 0 {
			e.CategoryName = s.categories[i].Name
		}
		e.CategoryID = copyRef(e.CategoryID)
	}
	return e
}

func (s *Store) expenseIndex(id int64) int {
	return slices.IndexFunc(s.expenses, func(e core.Expense) bool { return e.ID == id })
}

func (s *Store) categoryIndex(id int64) int {
	return slices.IndexFunc(s.categories, func(c core.Category) bool { return c.ID == id })
}

func copyRef(id *int64) *int64 {
	if id == nil {
		return nil
	}
	return core.CategoryRef(*id)
}
