// Package storage persists categories and expenses and evaluates query views
// against them.
package storage

import (
	"context"

	"expenses/internal/core"
	"expenses/internal/query"
)

// ExpenseStore reads and writes expenses.
type ExpenseStore interface {
	// FindExpenses evaluates view and returns the matching expenses in view order.
	FindExpenses(ctx context.Context, view query.ExpenseView) ([]core.Expense, error)
	// CountExpenses returns the number of expenses matching view.
	CountExpenses(ctx context.Context, view query.ExpenseView) (int, error)
	GetExpense(ctx context.Context, id int64) (core.Expense, error)
	// CreateExpense stores e and returns it with its id and category name set.
	// A reference to a missing category fails with core.ErrUnknownCategory.
	CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	DeleteExpense(ctx context.Context, id int64) error
}

// CategoryStore reads and writes categories.
type CategoryStore interface {
	query.CategoryChecker
	FindCategories(ctx context.Context, view query.CategoryView) ([]core.Category, error)
	GetCategory(ctx context.Context, id int64) (core.Category, error)
	CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
	UpdateCategory(ctx context.Context, c core.Category) (core.Category, error)
	// DeleteCategory removes the category together with every expense that
	// references it, atomically, and returns how many expenses went with it.
	DeleteCategory(ctx context.Context, id int64) (int, error)
}

// Store is the full persistence port used by services.
type Store interface {
	ExpenseStore
	CategoryStore
	Ping(ctx context.Context) error
	Close() error
}
