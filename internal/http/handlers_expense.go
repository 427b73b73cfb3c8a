package http

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"

	"expenses/internal/core"
	"expenses/internal/export"
	"expenses/internal/forms"
	"expenses/internal/log"
	"expenses/internal/query"
	"expenses/internal/services"
)

type expenseListPage struct {
	Listing services.ExpenseListing
	// Form echoes the submitted search, Query is the same search without
	// the page number, for pagination links.
	Form         url.Values
	Query        url.Values
	Categories   []core.Category
	SortChoices  []string
	GroupChoices []string
}

type expenseFormPage struct {
	ID         int64
	Form       forms.ExpenseForm
	Errors     *core.ValidationError
	Categories []core.Category
}

type expenseDeletePage struct {
	Expense core.Expense
}

func (s *Server) handleExpenseList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	values := r.URL.Query()

	listing, err := s.expenses.List(ctx, values)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	categories, err := s.expenses.Categories(ctx)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	q := cloneValues(values)
	q.Del(query.ParamPage)
	s.render(w, r, http.StatusOK, pageExpenseList, expenseListPage{
		Listing:      listing,
		Form:         values,
		Query:        q,
		Categories:   categories,
		SortChoices:  query.SortChoices,
		GroupChoices: query.GroupChoices,
	})
}

// handleExpenseExport writes the whole filtered, ordered view as CSV.
func (s *Server) handleExpenseExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	search, verr, err := s.expenses.Search(ctx, r.URL.Query())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if verr != nil {
		log.FromContext(ctx).InfoContext(ctx, "Exporting unfiltered view after rejected search", log.FieldError, verr)
	}

	rows, err := s.expenses.Find(ctx, search)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, rows); err != nil {
		s.fail(w, r, err)
		return
	}

	NewResponse().
		Header("Content-Type", "text/csv; charset=utf-8").
		Header("Content-Disposition", `attachment; filename="expenses.csv"`).
		Body(buf.Bytes()).
		Write(w)
}

func (s *Server) handleExpenseCreateForm(w http.ResponseWriter, r *http.Request) {
	s.renderExpenseForm(w, r, http.StatusOK, 0, forms.ExpenseForm{}, nil)
}

func (s *Server) handleExpenseCreate(w http.ResponseWriter, r *http.Request) {
	values, err := NewRequestBodyParser(w, r).Values()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	form := forms.ExpenseFormFromValues(values)

	created, err := s.expenses.Create(r.Context(), form)
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		s.renderExpenseForm(w, r, http.StatusUnprocessableEntity, 0, form, verr)
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Expense created", "id", created.ID)
	NewResponse().Redirect(routeExpenseList).Write(w)
}

func (s *Server) handleExpenseEditForm(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	e, err := s.expenses.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.renderExpenseForm(w, r, http.StatusOK, id, forms.ExpenseFormFromExpense(e), nil)
}

func (s *Server) handleExpenseEdit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	values, err := NewRequestBodyParser(w, r).Values()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	form := forms.ExpenseFormFromValues(values)

	_, err = s.expenses.Update(r.Context(), id, form)
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		s.renderExpenseForm(w, r, http.StatusUnprocessableEntity, id, form, verr)
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Expense updated", "id", id)
	NewResponse().Redirect(routeExpenseList).Write(w)
}

func (s *Server) handleExpenseDeleteConfirm(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	e, err := s.expenses.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, pageExpenseDelete, expenseDeletePage{Expense: e})
}

func (s *Server) handleExpenseDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.expenses.Delete(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Expense deleted", "id", id)
	NewResponse().Redirect(routeExpenseList).Write(w)
}

func (s *Server) renderExpenseForm(w http.ResponseWriter, r *http.Request, status int, id int64, form forms.ExpenseForm, verr *core.ValidationError) {
	categories, err := s.expenses.Categories(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, status, pageExpenseForm, expenseFormPage{
		ID:         id,
		Form:       form,
		Errors:     verr,
		Categories: categories,
	})
}
