package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"expenses/internal/amqp"
	"expenses/internal/core"
	"expenses/internal/forms"
	"expenses/internal/query"
	"expenses/internal/report"
	"expenses/internal/storage"
)

// CategoryService lists categories with live expense counts and guards the
// cascade on delete.
type CategoryService struct {
	store  storage.Store
	events EventPublisher
}

// NewCategoryService wires the service. events may be nil.
func NewCategoryService(store storage.Store, events EventPublisher) *CategoryService {
	return &CategoryService{store: store, events: events}
}

// CategoryListing is one page of categories, each with its expense count.
type CategoryListing struct {
	Search query.CategorySearch
	Errors *core.ValidationError
	Page   query.Page[core.CategoryWithCount]
}

// CategoryDetail is a category with its live count and monthly totals.
type CategoryDetail struct {
	core.CategoryWithCount
	PerYearMonth []report.MonthEntry
}

// List runs the category listing for raw request parameters. Counts are
// computed for the rows of the requested page at request time.
func (s *CategoryService) List(ctx context.Context, values url.Values) (CategoryListing, error) {
	search, err := query.ParseCategorySearch(values)
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		search = query.CategorySearch{}
	}
	number, err := query.ParsePageNumber(values.Get(query.ParamPage))
	if err != nil {
		return CategoryListing{}, err
	}

	rows, err := s.store.FindCategories(ctx, query.BuildCategoryView(query.AllCategories(), search))
	if err != nil {
		return CategoryListing{}, fmt.Errorf("find categories: %w", err)
	}
	page, err := query.Paginate(rows, search.PageSize(), number)
	if err != nil {
		return CategoryListing{}, err
	}

	counted := make([]core.CategoryWithCount, len(page.Items))
	for i, c := range page.Items {
		if counted[i], err = s.withCount(ctx, c); err != nil {
			return CategoryListing{}, err
		}
	}

	return CategoryListing{
		Search: search,
		Errors: verr,
		Page: query.Page[core.CategoryWithCount]{
			Items:    counted,
			Number:   page.Number,
			NumPages: page.NumPages,
			PerPage:  page.PerPage,
			Total:    page.Total,
		},
	}, nil
}

func (s *CategoryService) Get(ctx context.Context, id int64) (core.Category, error) {
	return s.store.GetCategory(ctx, id)
}

// Detail loads a category with its live count and per-month summary.
func (s *CategoryService) Detail(ctx context.Context, id int64) (CategoryDetail, error) {
	c, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return CategoryDetail{}, err
	}
	rows, err := s.store.FindExpenses(ctx, query.ExpensesOfCategory(id).Unordered())
	if err != nil {
		return CategoryDetail{}, fmt.Errorf("find category expenses: %w", err)
	}
	return CategoryDetail{
		CategoryWithCount: core.CategoryWithCount{Category: c, Expenses: len(rows)},
		PerYearMonth:      report.PerYearMonth(rows),
	}, nil
}

// ConfirmDelete returns the category with the number of expenses a delete
// would remove.
func (s *CategoryService) ConfirmDelete(ctx context.Context, id int64) (core.CategoryWithCount, error) {
	c, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return core.CategoryWithCount{}, err
	}
	return s.withCount(ctx, c)
}

// Delete removes the category and its expenses and returns how many
// expenses were removed.
func (s *CategoryService) Delete(ctx context.Context, id int64) (int, error) {
	removed, err := s.store.DeleteCategory(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("delete category: %w", err)
	}
	event := amqp.NewLedgerEvent(amqp.CategoryDeleted, id)
	event.CascadedExpenses = removed
	publish(ctx, s.events, event)

	slog.InfoContext(ctx, "Category removed with its expenses", "id", id, "expenses_removed", removed)
	return removed, nil
}

func (s *CategoryService) Create(ctx context.Context, form forms.CategoryForm) (core.Category, error) {
	c, err := form.Bind()
	if err != nil {
		return core.Category{}, err
	}
	created, err := s.store.CreateCategory(ctx, c)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	publish(ctx, s.events, amqp.NewLedgerEvent(amqp.CategoryCreated, created.ID))
	return created, nil
}

func (s *CategoryService) Update(ctx context.Context, id int64, form forms.CategoryForm) (core.Category, error) {
	if _, err := s.store.GetCategory(ctx, id); err != nil {
		return core.Category{}, err
	}
	c, err := form.Bind()
	if err != nil {
		return core.Category{}, err
	}
	c.ID = id
	updated, err := s.store.UpdateCategory(ctx, c)
	if err != nil {
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}
	publish(ctx, s.events, amqp.NewLedgerEvent(amqp.CategoryUpdated, id))
	return updated, nil
}

func (s *CategoryService) withCount(ctx context.Context, c core.Category) (core.CategoryWithCount, error) {
	n, err := s.store.CountExpenses(ctx, query.ExpensesOfCategory(c.ID))
	if err != nil {
		return core.CategoryWithCount{}, fmt.Errorf("count expenses of category %d: %w", c.ID, err)
	}
	return core.CategoryWithCount{Category: c, Expenses: n}, nil
}
