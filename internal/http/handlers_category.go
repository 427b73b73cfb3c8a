package http

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"expenses/internal/core"
	"expenses/internal/forms"
	"expenses/internal/log"
	"expenses/internal/query"
	"expenses/internal/services"
)

type categoryListPage struct {
	Listing services.CategoryListing
	Form    url.Values
	Query   url.Values
}

type categoryDetailPage struct {
	Detail services.CategoryDetail
}

type categoryFormPage struct {
	ID     int64
	Form   forms.CategoryForm
	Errors *core.ValidationError
}

type categoryDeletePage struct {
	Category core.CategoryWithCount
}

func (s *Server) handleCategoryList(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	listing, err := s.categories.List(r.Context(), values)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	q := cloneValues(values)
	q.Del(query.ParamPage)
	s.render(w, r, http.StatusOK, pageCategoryList, categoryListPage{
		Listing: listing,
		Form:    values,
		Query:   q,
	})
}

func (s *Server) handleCategoryDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	detail, err := s.categories.Detail(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, pageCategoryDetail, categoryDetailPage{Detail: detail})
}

func (s *Server) handleCategoryCreateForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, pageCategoryForm, categoryFormPage{})
}

func (s *Server) handleCategoryCreate(w http.ResponseWriter, r *http.Request) {
	values, err := NewRequestBodyParser(w, r).Values()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	form := forms.CategoryFormFromValues(values)

	created, err := s.categories.Create(r.Context(), form)
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		s.render(w, r, http.StatusUnprocessableEntity, pageCategoryForm, categoryFormPage{Form: form, Errors: verr})
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Category created", "id", created.ID)
	NewResponse().Redirect(routeCategoryList).Write(w)
}

func (s *Server) handleCategoryEditForm(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	c, err := s.categories.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, pageCategoryForm, categoryFormPage{ID: id, Form: forms.CategoryFormFromCategory(c)})
}

func (s *Server) handleCategoryEdit(w http.ResponseWriter, r *http.Request) {
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
	form := forms.CategoryFormFromValues(values)

	_, err = s.categories.Update(r.Context(), id, form)
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		s.render(w, r, http.StatusUnprocessableEntity, pageCategoryForm, categoryFormPage{ID: id, Form: form, Errors: verr})
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Category updated", "id", id)
	NewResponse().Redirect(routeCategoryList).Write(w)
}

func (s *Server) handleCategoryDeleteConfirm(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	c, err := s.categories.ConfirmDelete(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, pageCategoryDelete, categoryDeletePage{Category: c})
}

// handleCategoryDelete commits the cascade and returns to the listing.
func (s *Server) handleCategoryDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	removed, err := s.categories.Delete(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	NewResponse().
		Header("X-Deleted-Expenses", strconv.Itoa(removed)).
		Redirect(routeCategoryList).
		Write(w)
}
