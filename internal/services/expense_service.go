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

// ExpenseService runs the expense listing pipeline and expense mutations.
type ExpenseService struct {
	store  storage.Store
	events EventPublisher
}

// NewExpenseService wires the service. events may be nil.
func NewExpenseService(store storage.Store, events EventPublisher) *ExpenseService {
	return &ExpenseService{store: store, events: events}
}

// ExpenseListing is one page of a search plus summaries of the whole
// filtered view.
type ExpenseListing struct {
	Search query.ExpenseSearch
	// Errors is set when the submitted search was rejected; Search is then
	// the empty search and the listing shows the unfiltered view.
	Errors  *core.ValidationError
	Page    query.Page[core.Expense]
	Summary report.Summary
}

// Search resolves raw parameters to a search. A rejected search falls back to
// the empty search and is reported through the returned *core.ValidationError.
func (s *ExpenseService) Search(ctx context.Context, values url.Values) (query.ExpenseSearch, *core.ValidationError, error) {
	search, err := query.ParseExpenseSearch(ctx, values, s.store)
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		slog.DebugContext(ctx, "Rejected expense search", "error", verr)
		return query.ExpenseSearch{}, verr, nil
	case err != nil:
		return query.ExpenseSearch{}, nil, err
	}
	return search, nil, nil
}

// Find returns every expense matching search, in view order.
func (s *ExpenseService) Find(ctx context.Context, search query.ExpenseSearch) ([]core.Expense, error) {
	rows, err := s.store.FindExpenses(ctx, query.BuildExpenseView(query.AllExpenses(), search))
	if err != nil {
		return nil, fmt.Errorf("find expenses: %w", err)
	}
	return rows, nil
}

// List runs the listing pipeline for raw request parameters. An invalid or
// out-of-range page yields query.ErrInvalidPage.
func (s *ExpenseService) List(ctx context.Context, values url.Values) (ExpenseListing, error) {
	search, verr, err := s.Search(ctx, values)
	if err != nil {
		return ExpenseListing{}, err
	}
	number, err := query.ParsePageNumber(values.Get(query.ParamPage))
	if err != nil {
		return ExpenseListing{}, err
	}

	rows, err := s.Find(ctx, search)
	if err != nil {
		return ExpenseListing{}, err
	}
	page, err := query.Paginate(rows, search.PageSize(), number)
	if err != nil {
		return ExpenseListing{}, err
	}

	return ExpenseListing{
		Search:  search,
		Errors:  verr,
		Page:    page,
		Summary: report.Summarize(rows),
	}, nil
}

func (s *ExpenseService) Get(ctx context.Context, id int64) (core.Expense, error) {
	return s.store.GetExpense(ctx, id)
}

// Create validates form and stores the expense.
func (s *ExpenseService) Create(ctx context.Context, form forms.ExpenseForm) (core.Expense, error) {
	e, err := form.Bind(ctx, s.store)
	if err != nil {
		return core.Expense{}, err
	}
	created, err := s.store.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	publish(ctx, s.events, amqp.NewLedgerEvent(amqp.ExpenseCreated, created.ID))
	return created, nil
}

// Update validates form and replaces expense id with it.
func (s *ExpenseService) Update(ctx context.Context, id int64, form forms.ExpenseForm) (core.Expense, error) {
	if _, err := s.store.GetExpense(ctx, id); err != nil {
		return core.Expense{}, err
	}
	e, err := form.Bind(ctx, s.store)
	if err != nil {
		return core.Expense{}, err
	}
	e.ID = id
	updated, err := s.store.UpdateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	publish(ctx, s.events, amqp.NewLedgerEvent(amqp.ExpenseUpdated, id))
	return updated, nil
}

func (s *ExpenseService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	publish(ctx, s.events, amqp.NewLedgerEvent(amqp.ExpenseDeleted, id))
	return nil
}

// Categories returns every category, for form choices.
func (s *ExpenseService) Categories(ctx context.Context) ([]core.Category, error) {
	return s.store.FindCategories(ctx, query.AllCategories())
}
