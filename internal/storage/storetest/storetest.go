// Package storetest holds behaviour checks shared by every storage.Store
// implementation.
package storetest

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenses/internal/core"
	"expenses/internal/query"
	"expenses/internal/storage"
)

// Fixture is the data set loaded by Seed.
type Fixture struct {
	Unnecessary core.Category
	Necessary   core.Category
	Console     core.Expense
	Groceries   core.Expense
}

// Seed loads two categories with one expense each.
func Seed(t *testing.T, s storage.Store) Fixture {
	t.Helper()
	ctx := context.Background()

	var f Fixture
	var err error
	f.Unnecessary, err = s.CreateCategory(ctx, core.Category{Name: "unnecessary"})
	require.NoError(t, err)
	f.Necessary, err = s.CreateCategory(ctx, core.Category{Name: "necessary"})
	require.NoError(t, err)

	f.Console, err = s.CreateExpense(ctx, core.Expense{
		Name:       "Nintendo DS",
		Amount:     decimal.RequireFromString("100.15"),
		Date:       core.NewDate(2020, 5, 8),
		CategoryID: core.CategoryRef(f.Unnecessary.ID),
	})
	require.NoError(t, err)
	f.Groceries, err = s.CreateExpense(ctx, core.Expense{
		Name:       "Groceries",
		Amount:     decimal.RequireFromString("50.40"),
		Date:       core.NewDate(2020, 5, 4),
		CategoryID: core.CategoryRef(f.Necessary.ID),
	})
	require.NoError(t, err)
	return f
}

// Run exercises newStore with the full set of store checks. newStore must
// return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	t.Run("create and get", func(t *testing.T) {
		s := newStore(t)
		f := Seed(t, s)

		got, err := s.GetExpense(context.Background(), f.Console.ID)
		require.NoError(t, err)
		assert.Equal(t, "Nintendo DS", got.Name)
		assert.Equal(t, "100.15", core.FormatAmount(got.Amount))
		assert.True(t, got.Date.Equal(core.NewDate(2020, 5, 8)))
		require.NotNil(t, got.CategoryID)
		assert.Equal(t, f.Unnecessary.ID, *got.CategoryID)
		assert.Equal(t, "unnecessary", got.CategoryName)

		_, err = s.GetExpense(context.Background(), 9999)
		assert.ErrorIs(t, err, core.ErrNotFound)
		_, err = s.GetCategory(context.Background(), 9999)
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("expense without category", func(t *testing.T) {
		s := newStore(t)
		e, err := s.CreateExpense(context.Background(), core.Expense{
			Name:   "Tip",
			Amount: decimal.RequireFromString("2"),
			Date:   core.NewDate(2021, 1, 1),
		})
		require.NoError(t, err)
		assert.False(t, e.HasCategory())
		assert.Empty(t, e.CategoryName)
		assert.Equal(t, "2.00", core.FormatAmount(e.Amount))
	})

	t.Run("unknown category is rejected", func(t *testing.T) {
		s := newStore(t)
		_, err := s.CreateExpense(context.Background(), core.Expense{
			Name:       "Orphan",
			Amount:     decimal.RequireFromString("1.00"),
			Date:       core.NewDate(2021, 1, 1),
			CategoryID: core.CategoryRef(42),
		})
		assert.ErrorIs(t, err, core.ErrUnknownCategory)
	})

	t.Run("find evaluates filters and ordering", func(t *testing.T) {
		s := newStore(t)
		f := Seed(t, s)
		ctx := context.Background()

		tests := []struct {
			name   string
			search query.ExpenseSearch
			want   []int64
		}{
			{"everything in id order", query.ExpenseSearch{}, []int64{f.Console.ID, f.Groceries.ID}},
			{"name ignores case", query.ExpenseSearch{Name: "NINTENDO"}, []int64{f.Console.ID}},
			{"category", query.ExpenseSearch{Categories: []int64{f.Necessary.ID}}, []int64{f.Groceries.ID}},
			{"date", query.ExpenseSearch{Date: ptr(core.NewDate(2020, 5, 4))}, []int64{f.Groceries.ID}},
			{"category ascending", query.ExpenseSearch{SortBy: query.SortCategoryAsc}, []int64{f.Groceries.ID, f.Console.ID}},
			{"category descending", query.ExpenseSearch{SortBy: query.SortCategoryDesc}, []int64{f.Console.ID, f.Groceries.ID}},
			{"date ascending", query.ExpenseSearch{SortBy: query.SortDateAsc}, []int64{f.Groceries.ID, f.Console.ID}},
			{"date descending", query.ExpenseSearch{SortBy: query.SortDateDesc}, []int64{f.Console.ID, f.Groceries.ID}},
			{"group by date", query.ExpenseSearch{GroupBy: query.GroupDate}, []int64{f.Groceries.ID, f.Console.ID}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				view := query.BuildExpenseView(query.AllExpenses(), tt.search)
				got, err := s.FindExpenses(ctx, view)
				require.NoError(t, err)
				assert.Equal(t, tt.want, expenseIDs(got))

				n, err := s.CountExpenses(ctx, view)
				require.NoError(t, err)
				assert.Equal(t, len(tt.want), n)
			})
		}
	})

	t.Run("group by breaks ties by descending id", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		var ids []int64
		for _, name := range []string{"a", "b", "c"} {
			e, err := s.CreateExpense(ctx, core.Expense{
				Name:   name,
				Amount: decimal.RequireFromString("1.00"),
				Date:   core.NewDate(2021, 3, 1),
			})
			require.NoError(t, err)
			ids = append(ids, e.ID)
		}
		got, err := s.FindExpenses(ctx, query.BuildExpenseView(query.AllExpenses(), query.ExpenseSearch{GroupBy: query.GroupDate}))
		require.NoError(t, err)
		assert.Equal(t, []int64{ids[2], ids[1], ids[0]}, expenseIDs(got))
	})

	t.Run("update expense", func(t *testing.T) {
		s := newStore(t)
		f := Seed(t, s)
		ctx := context.Background()

		e := f.Console
		e.Name = "Nintendo Switch"
		e.Amount = decimal.RequireFromString("299.99")
		e.CategoryID = core.CategoryRef(f.Necessary.ID)
		got, err := s.UpdateExpense(ctx, e)
		require.NoError(t, err)
		assert.Equal(t, "necessary", got.CategoryName)
		assert.Equal(t, "299.99", core.FormatAmount(got.Amount))

		e.ID = 9999
		_, err = s.UpdateExpense(ctx, e)
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("delete expense", func(t *testing.T) {
		s := newStore(t)
		f := Seed(t, s)
		ctx := context.Background()

		require.NoError(t, s.DeleteExpense(ctx, f.Console.ID))
		assert.ErrorIs(t, s.DeleteExpense(ctx, f.Console.ID), core.ErrNotFound)

		n, err := s.CountExpenses(ctx, query.AllExpenses())
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("categories", func(t *testing.T) {
		s := newStore(t)
		f := Seed(t, s)
		ctx := context.Background()

		all, err := s.FindCategories(ctx, query.AllCategories())
		require.NoError(t, err)
		assert.Equal(t, []core.Category{f.Unnecessary, f.Necessary}, all)

		got, err := s.FindCategories(ctx, query.BuildCategoryView(query.AllCategories(), query.CategorySearch{Name: "NEC"}))
		require.NoError(t, err)
		assert.Len(t, got, 2)

		renamed := f.Necessary
		renamed.Name = "essential"
		_, err = s.UpdateCategory(ctx, renamed)
		require.NoError(t, err)
		e, err := s.GetExpense(ctx, f.Groceries.ID)
		require.NoError(t, err)
		assert.Equal(t, "essential", e.CategoryName)

		_, err = s.UpdateCategory(ctx, core.Category{ID: 9999, Name: "x"})
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("missing categories", func(t *testing.T) {
		s := newStore(t)
		f := Seed(t, s)

		missing, err := s.MissingCategories(context.Background(), []int64{f.Necessary.ID, 77, f.Unnecessary.ID, 78})
		require.NoError(t, err)
		assert.Equal(t, []int64{77, 78}, missing)

		missing, err = s.MissingCategories(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, missing)
	})

	t.Run("delete category cascades", func(t *testing.T) {
		s := newStore(t)
		f := Seed(t, s)
		ctx := context.Background()

		_, err := s.CreateExpense(ctx, core.Expense{
			Name:       "Arcade",
			Amount:     decimal.RequireFromString("5.00"),
			Date:       core.NewDate(2020, 6, 1),
			CategoryID: core.CategoryRef(f.Unnecessary.ID),
		})
		require.NoError(t, err)

		removed, err := s.DeleteCategory(ctx, f.Unnecessary.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, removed)

		left, err := s.FindExpenses(ctx, query.AllExpenses())
		require.NoError(t, err)
		assert.Equal(t, []int64{f.Groceries.ID}, expenseIDs(left))

		_, err = s.GetCategory(ctx, f.Unnecessary.ID)
		assert.ErrorIs(t, err, core.ErrNotFound)

		_, err = s.DeleteCategory(ctx, f.Unnecessary.ID)
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("ping", func(t *testing.T) {
		s := newStore(t)
		assert.NoError(t, s.Ping(context.Background()))
	})
}

func expenseIDs(rows []core.Expense) []int64 {
	out := make([]int64, 0, len(rows))
	for _, e := range rows {
		out = append(out, e.ID)
	}
	return out
}

func ptr[T any](v T) *T {
	return &v
}
