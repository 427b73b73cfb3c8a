package http

import (
	"errors"
	"net/http"
	"strconv"

	"expenses/internal/core"
	"expenses/internal/log"
	"expenses/internal/query"
)

type errorPage struct {
	Status  int
	Title   string
	Message string
}

// render writes page with status, or a plain 500 when the template fails.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	body, err := s.pages.render(page, data)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			log.FieldTemplate, page,
			log.FieldError, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	NewResponse().Status(status).BodyHTML(body).Write(w)
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.render(w, r, status, pageError, errorPage{
		Status:  status,
		Title:   http.StatusText(status),
		Message: message,
	})
}

// fail maps err onto an HTML error page. Missing rows and pages are 404 and
// unreadable bodies are 4xx; anything else is logged and answered with 500.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch status := statusFor(err); status {
	case http.StatusNotFound:
		s.renderError(w, r, status, "The requested page does not exist.")
	case http.StatusBadRequest, http.StatusUnsupportedMediaType, http.StatusRequestEntityTooLarge:
		s.renderError(w, r, status, "The submitted data could not be read.")
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed", log.FieldError, err)
		s.renderError(w, r, status, "Something went wrong. Please try again later.")
	}
}

// failJSON is fail for the JSON API.
func (s *Server) failJSON(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		NewResponse().Status(status).JSON(apiError{Error: "validation failed", Fields: verr.Fields}).Write(w)
	case status < http.StatusInternalServerError:
		JSONError(status, err.Error()).Write(w)
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "API request failed", log.FieldError, err)
		JSONError(status, http.StatusText(status)).Write(w)
	}
}

func statusFor(err error) int {
	var verr *core.ValidationError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, core.ErrNotFound), errors.Is(err, query.ErrInvalidPage):
		return http.StatusNotFound
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errMalformedBody):
		return http.StatusBadRequest
	case errors.Is(err, errUnsupportedBody):
		return http.StatusUnsupportedMediaType
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// pathID reads the {id} wildcard. Malformed ids are reported as not found.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, core.ErrNotFound
	}
	return id, nil
}
