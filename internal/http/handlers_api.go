package http

import (
	"net/http"

	"expenses/internal/core"
	"expenses/internal/forms"
	"expenses/internal/report"
	"expenses/internal/services"
)

type apiCategoryRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type apiExpense struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Amount   string          `json:"amount"`
	Date     string          `json:"date"`
	Category *apiCategoryRef `json:"category"`
}

type apiTotal struct {
	Label string `json:"label"`
	Total string `json:"total"`
}

type apiPagination struct {
	Page         int  `json:"page"`
	NumPages     int  `json:"num_pages"`
	PerPage      int  `json:"items_per_page"`
	HasPrevious  bool `json:"has_previous"`
	HasNext      bool `json:"has_next"`
	TotalObjects int  `json:"total_objects"`
}

type apiExpenseList struct {
	apiPagination
	Results             []apiExpense        `json:"results"`
	SummaryPerCategory  []apiTotal          `json:"summary_per_category"`
	SummaryPerYearMonth []apiTotal          `json:"summary_per_year_month"`
	SummaryOverall      apiTotal            `json:"summary_overall"`
	Errors              map[string][]string `json:"errors,omitempty"`
}

type apiCategory struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Expenses int    `json:"expenses"`
}

type apiCategoryList struct {
	apiPagination
	Results []apiCategory       `json:"results"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

type apiCategoryDetail struct {
	apiCategory
	SummaryPerYearMonth []apiTotal `json:"summary_per_year_month"`
}

func (s *Server) handleAPIExpenses(w http.ResponseWriter, r *http.Request) {
	listing, err := s.expenses.List(r.Context(), r.URL.Query())
	if err != nil {
		s.failJSON(w, r, err)
		return
	}
	NewResponse().JSON(expenseListJSON(listing)).Write(w)
}

// handleAPIExpenseCreate accepts the same fields as the HTML form, as JSON
// or form-encoded, and answers 201 with the stored expense.
func (s *Server) handleAPIExpenseCreate(w http.ResponseWriter, r *http.Request) {
	values, err := NewRequestBodyParser(w, r).Values()
	if err != nil {
		s.failJSON(w, r, err)
		return
	}
	created, err := s.expenses.Create(r.Context(), forms.ExpenseFormFromValues(values))
	if err != nil {
		s.failJSON(w, r, err)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(expenseJSON(created)).Write(w)
}

func (s *Server) handleAPICategories(w http.ResponseWriter, r *http.Request) {
	listing, err := s.categories.List(r.Context(), r.URL.Query())
	if err != nil {
		s.failJSON(w, r, err)
		return
	}

	out := apiCategoryList{
		apiPagination: paginationJSON(listing.Page.Number, listing.Page.NumPages, listing.Page.PerPage, listing.Page.Total),
		Results:       make([]apiCategory, len(listing.Page.Items)),
		Errors:        errorFields(listing.Errors),
	}
	for i, c := range listing.Page.Items {
		out.Results[i] = categoryJSON(c)
	}
	NewResponse().JSON(out).Write(w)
}

func (s *Server) handleAPICategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.failJSON(w, r, err)
		return
	}
	detail, err := s.categories.Detail(r.Context(), id)
	if err != nil {
		s.failJSON(w, r, err)
		return
	}
	NewResponse().JSON(apiCategoryDetail{
		apiCategory:         categoryJSON(detail.CategoryWithCount),
		SummaryPerYearMonth: monthTotalsJSON(detail.PerYearMonth),
	}).Write(w)
}

func expenseListJSON(l services.ExpenseListing) apiExpenseList {
	out := apiExpenseList{
		apiPagination:       paginationJSON(l.Page.Number, l.Page.NumPages, l.Page.PerPage, l.Page.Total),
		Results:             make([]apiExpense, len(l.Page.Items)),
		SummaryPerCategory:  make([]apiTotal, len(l.Summary.PerCategory)),
		SummaryPerYearMonth: monthTotalsJSON(l.Summary.PerYearMonth),
		SummaryOverall:      totalJSON(l.Summary.Overall),
		Errors:              errorFields(l.Errors),
	}
	for i, e := range l.Page.Items {
		out.Results[i] = expenseJSON(e)
	}
	for i, e := range l.Summary.PerCategory {
		out.SummaryPerCategory[i] = totalJSON(e)
	}
	return out
}

func expenseJSON(e core.Expense) apiExpense {
	out := apiExpense{
		ID:     e.ID,
		Name:   e.Name,
		Amount: core.FormatAmount(e.Amount),
		Date:   e.Date.String(),
	}
	if e.HasCategory() {
		out.Category = &apiCategoryRef{ID: *e.CategoryID, Name: e.CategoryName}
	}
	return out
}

func categoryJSON(c core.CategoryWithCount) apiCategory {
	return apiCategory{ID: c.ID, Name: c.Name, Expenses: c.Expenses}
}

func totalJSON(e report.Entry) apiTotal {
	return apiTotal{Label: e.Label, Total: core.FormatAmount(e.Total)}
}

func monthTotalsJSON(entries []report.MonthEntry) []apiTotal {
	out := make([]apiTotal, len(entries))
	for i, m := range entries {
		out[i] = apiTotal{Label: m.Label(), Total: core.FormatAmount(m.Total)}
	}
	return out
}

func paginationJSON(number, numPages, perPage, total int) apiPagination {
	return apiPagination{
		Page:         number,
		NumPages:     numPages,
		PerPage:      perPage,
		HasPrevious:  number > 1,
		HasNext:      number < numPages,
		TotalObjects: total,
	}
}

func errorFields(verr *core.ValidationError) map[string][]string {
	if verr.Empty() {
		return nil
	}
	return verr.Fields
}
