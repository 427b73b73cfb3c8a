package http

import (
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewResponse().
		Status(http.StatusOK).
		Body([]byte("test")).
		Write(w)

	if w.Code != http.StatusOK {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusOK)
	}
	if w.Body.String() != "test" {
		t.Errorf("Body = %q, want %q", w.Body.String(), "test")
	}
}

func TestResponseBuilder_HTML(t *testing.T) {
	w := httptest.NewRecorder()

	NewResponse().
		Status(http.StatusUnprocessableEntity).
		BodyHTML([]byte("<p>x</p>")).
		Write(w)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusUnprocessableEntity)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestResponseBuilder_Redirect(t *testing.T) {
	w := httptest.NewRecorder()

	NewResponse().Body([]byte("ignored")).Redirect("/expense/list/").Write(w)

	if w.Code != http.StatusSeeOther {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusSeeOther)
	}
	if loc := w.Header().Get("Location"); loc != "/expense/list/" {
		t.Errorf("Location = %q", loc)
	}
	if w.Body.Len() != 0 {
		t.Errorf("Body = %q, want empty", w.Body.String())
	}
}

func TestResponseBuilder_JSON(t *testing.T) {
	w := httptest.NewRecorder()

	NewResponse().JSON(map[string]string{"total": "150.55"}).Write(w)

	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"total":"150.55"}` {
		t.Errorf("Body = %s", got)
	}
}

func TestResponseBuilder_JSONEncodingFailure(t *testing.T) {
	w := httptest.NewRecorder()

	NewResponse().JSON(math.Inf(1)).Write(w)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestJSONError(t *testing.T) {
	w := httptest.NewRecorder()
	JSONError(http.StatusNotFound, "not found").Write(w)
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), `"error":"not found"`) {
		t.Errorf("JSONError = %d %s", w.Code, w.Body.String())
	}
}
