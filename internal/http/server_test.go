package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenses/internal/amqp"
	"expenses/internal/query"
	"expenses/internal/storage"
	"expenses/internal/storage/memory"
	"expenses/internal/storage/storetest"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []amqp.LedgerEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e amqp.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) snapshot() []amqp.LedgerEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]amqp.LedgerEvent(nil), p.events...)
}

type testServer struct {
	*Server
	store   *memory.Store
	fixture storetest.Fixture
	events  *recordingPublisher
}

func newTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()
	store := memory.New()
	f := storetest.Seed(t, store)
	pub := &recordingPublisher{}

	opts.Store = store
	opts.Events = pub
	srv, err := NewServer(":0", opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &testServer{Server: srv, store: store, fixture: f, events: pub}
}

func (ts *testServer) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	ts.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func (ts *testServer) postForm(t *testing.T, target string, values url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	ts.Handler.ServeHTTP(rec, req)
	return rec
}

func idPath(format string, id int64) string {
	return strings.Replace(format, "{id}", strconv.FormatInt(id, 10), 1)
}

func countExpenses(t *testing.T, s storage.ExpenseStore) int {
	t.Helper()
	n, err := s.CountExpenses(context.Background(), query.AllExpenses())
	require.NoError(t, err)
	return n
}

func TestIndexRedirectsToExpenseList(t *testing.T) {
	ts := newTestServer(t, Options{})
	rec := ts.get(t, "/")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/expense/list/", rec.Header().Get("Location"))
}

func TestExpenseList(t *testing.T) {
	ts := newTestServer(t, Options{})

	t.Run("unfiltered", func(t *testing.T) {
		rec := ts.get(t, "/expense/list/")
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "Nintendo DS")
		assert.Contains(t, body, "Groceries")
		assert.Contains(t, body, "150.55")
		assert.Contains(t, body, "2020-05")
		assert.Contains(t, body, "2 total")
	})

	t.Run("name filter", func(t *testing.T) {
		rec := ts.get(t, "/expense/list/?name=nintendo")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Nintendo DS")
		assert.NotContains(t, rec.Body.String(), "Groceries")
	})

	t.Run("rejected search shows everything", func(t *testing.T) {
		rec := ts.get(t, "/expense/list/?name=nintendo&sort_by=bogus")
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "The search was not valid")
		assert.Contains(t, body, "Groceries")
		assert.Contains(t, body, "Select a valid choice")
	})

	t.Run("one item per page", func(t *testing.T) {
		rec := ts.get(t, "/expense/list/?items_per_page=1")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Page 1 of 2.")
		assert.Contains(t, rec.Body.String(), "items_per_page=1&amp;page=2")
	})

	t.Run("largest page size", func(t *testing.T) {
		rec := ts.get(t, "/expense/list/?items_per_page=9223372036854775807")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Nintendo DS")
		assert.Contains(t, rec.Body.String(), "Groceries")
	})

	t.Run("page out of range", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, ts.get(t, "/expense/list/?page=7").Code)
		assert.Equal(t, http.StatusNotFound, ts.get(t, "/expense/list/?page=abc").Code)
	})
}

func TestExpenseCreate(t *testing.T) {
	ts := newTestServer(t, Options{})

	rec := ts.get(t, "/expense/create/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "unnecessary")

	rec = ts.postForm(t, "/expense/create/", url.Values{
		"name":     {"Cinema"},
		"amount":   {"9,50"},
		"date":     {"2020-06-01"},
		"category": {strconv.FormatInt(ts.fixture.Necessary.ID, 10)},
	})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/expense/list/", rec.Header().Get("Location"))
	assert.Equal(t, 3, countExpenses(t, ts.store))
	require.Len(t, ts.events.snapshot(), 1)
	assert.Equal(t, amqp.ExpenseCreated, ts.events.snapshot()[0].Kind)

	rec = ts.postForm(t, "/expense/create/", url.Values{
		"name":   {"Cinema"},
		"amount": {"9.999"},
		"date":   {"06/01/2020"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Ensure that there are no more than 2 decimal places.")
	assert.Contains(t, body, "Enter a valid date.")
	assert.Contains(t, body, `value="Cinema"`, "submitted values are rendered back")
	assert.Equal(t, 3, countExpenses(t, ts.store))
}

func TestExpenseEditAndDelete(t *testing.T) {
	ts := newTestServer(t, Options{})
	id := ts.fixture.Console.ID

	rec := ts.get(t, idPath("/expense/{id}/edit/", id))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="100.15"`)

	rec = ts.postForm(t, idPath("/expense/{id}/edit/", id), url.Values{
		"name": {"Nintendo DS Lite"}, "amount": {"120"}, "date": {"2020-05-08"},
	})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	e, err := ts.store.GetExpense(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Nintendo DS Lite", e.Name)
	assert.False(t, e.HasCategory())

	rec = ts.postForm(t, idPath("/expense/{id}/edit/", id), url.Values{"name": {""}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "This field is required.")

	assert.Equal(t, http.StatusOK, ts.get(t, idPath("/expense/{id}/delete/", id)).Code)
	rec = ts.postForm(t, idPath("/expense/{id}/delete/", id), nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, 1, countExpenses(t, ts.store))

	for _, path := range []string{"/expense/{id}/edit/", "/expense/{id}/delete/"} {
		assert.Equal(t, http.StatusNotFound, ts.get(t, idPath(path, id)).Code, path)
		assert.Equal(t, http.StatusNotFound, ts.postForm(t, idPath(path, id), url.Values{
			"name": {"x"}, "amount": {"1"}, "date": {"2020-01-01"},
		}).Code, path)
	}
	assert.Equal(t, http.StatusNotFound, ts.get(t, "/expense/abc/edit/").Code)
}

func TestExpenseExport(t *testing.T) {
	ts := newTestServer(t, Options{})

	rec := ts.get(t, "/expense/export.csv?sort_by=date:asc&page=2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 3, "the whole view is exported, not one page")
	assert.Equal(t, "id,date,name,amount,category", lines[0])
	assert.Contains(t, lines[1], "Groceries")
	assert.Contains(t, lines[2], "Nintendo DS")
}

func TestCategoryPages(t *testing.T) {
	ts := newTestServer(t, Options{})
	f := ts.fixture

	rec := ts.get(t, "/category/list/?name=NEC")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "unnecessary")
	assert.Contains(t, rec.Body.String(), "2 total")

	rec = ts.get(t, idPath("/category/{id}/", f.Necessary.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "2020-05")
	assert.Contains(t, rec.Body.String(), "50.40")

	assert.Equal(t, http.StatusNotFound, ts.get(t, "/category/999/").Code)
	assert.Equal(t, http.StatusNotFound, ts.get(t, "/category/list/?page=2").Code)
}

func TestCategoryCreateAndEdit(t *testing.T) {
	ts := newTestServer(t, Options{})

	rec := ts.postForm(t, "/category/create/", url.Values{"name": {"Travel"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/category/list/", rec.Header().Get("Location"))

	rec = ts.postForm(t, "/category/create/", url.Values{"name": {strings.Repeat("x", 101)}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "at most 100 characters")

	rec = ts.postForm(t, idPath("/category/{id}/edit/", ts.fixture.Necessary.ID), url.Values{"name": {"essential"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	c, err := ts.store.GetCategory(context.Background(), ts.fixture.Necessary.ID)
	require.NoError(t, err)
	assert.Equal(t, "essential", c.Name)

	assert.Equal(t, http.StatusNotFound, ts.postForm(t, "/category/999/edit/", url.Values{"name": {"x"}}).Code)
}

func TestCategoryDeleteCascades(t *testing.T) {
	ts := newTestServer(t, Options{})
	id := ts.fixture.Unnecessary.ID

	rec := ts.get(t, idPath("/category/{id}/delete/", id))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "This will also delete 1 expense(s).")

	rec = ts.postForm(t, idPath("/category/{id}/delete/", id), nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/category/list/", rec.Header().Get("Location"))
	assert.Equal(t, "1", rec.Header().Get("X-Deleted-Expenses"))
	assert.Equal(t, 1, countExpenses(t, ts.store))

	assert.Equal(t, http.StatusNotFound, ts.postForm(t, idPath("/category/{id}/delete/", id), nil).Code)
}

func TestAPIExpenses(t *testing.T) {
	ts := newTestServer(t, Options{})

	rec := ts.get(t, "/api/expenses?sort_by=date:desc")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got apiExpenseList
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 2, got.TotalObjects)
	assert.False(t, got.HasNext)
	require.Len(t, got.Results, 2)
	assert.Equal(t, "Nintendo DS", got.Results[0].Name)
	assert.Equal(t, "100.15", got.Results[0].Amount)
	require.NotNil(t, got.Results[0].Category)
	assert.Equal(t, "unnecessary", got.Results[0].Category.Name)
	assert.Equal(t, apiTotal{Label: "overall", Total: "150.55"}, got.SummaryOverall)
	assert.Equal(t, []apiTotal{{Label: "2020-05", Total: "150.55"}}, got.SummaryPerYearMonth)
	assert.Equal(t, []apiTotal{{Label: "necessary", Total: "50.40"}, {Label: "unnecessary", Total: "100.15"}}, got.SummaryPerCategory)
	assert.Empty(t, got.Errors)

	rec = ts.get(t, "/api/expenses?categories=999")
	require.Equal(t, http.StatusOK, rec.Code)
	got = apiExpenseList{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Contains(t, got.Errors, "categories")
	assert.Equal(t, 2, got.TotalObjects)

	rec = ts.get(t, "/api/expenses?page=3")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error"`)
}

func TestAPIExpenseCreate(t *testing.T) {
	ts := newTestServer(t, Options{})

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/expenses", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		ts.Handler.ServeHTTP(rec, req)
		return rec
	}

	rec := post(`{"name":"Bus","amount":"2.50","date":"2021-01-01"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created apiExpense
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotZero(t, created.ID)
	assert.Nil(t, created.Category)

	rec = post(`{"name":"","amount":"-1","date":"2021-01-01"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var apiErr apiError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Contains(t, apiErr.Fields, "name")
	assert.Contains(t, apiErr.Fields, "amount")

	assert.Equal(t, http.StatusBadRequest, post(`{"name":`).Code)
}

func TestAPICategories(t *testing.T) {
	ts := newTestServer(t, Options{})

	rec := ts.get(t, "/api/categories")
	require.Equal(t, http.StatusOK, rec.Code)
	var list apiCategoryList
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Results, 2)
	assert.Equal(t, apiCategory{ID: ts.fixture.Unnecessary.ID, Name: "unnecessary", Expenses: 1}, list.Results[0])

	rec = ts.get(t, idPath("/api/categories/{id}", ts.fixture.Necessary.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	var detail apiCategoryDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, 1, detail.Expenses)
	assert.Equal(t, []apiTotal{{Label: "2020-05", Total: "50.40"}}, detail.SummaryPerYearMonth)

	assert.Equal(t, http.StatusNotFound, ts.get(t, "/api/categories/999").Code)

	rec = httptest.NewRecorder()
	ts.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/categories", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

type pingFailingStore struct {
	*memory.Store
}

func (pingFailingStore) Ping(context.Context) error { return errors.New("database is locked") }

func TestHealthAndReadiness(t *testing.T) {
	ts := newTestServer(t, Options{})

	rec := ts.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = ts.get(t, "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ready"`)

	srv, err := NewServer(":0", Options{Store: pingFailingStore{memory.New()}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "database is locked")
}

func TestMiddlewareChain(t *testing.T) {
	ts := newTestServer(t, Options{RateLimitPerMinute: 1})

	rec := ts.get(t, "/static/style.css")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	assert.Equal(t, http.StatusNotFound, ts.get(t, "/nope").Code)

	values := url.Values{"name": {"Travel"}}
	assert.Equal(t, http.StatusSeeOther, ts.postForm(t, "/category/create/", values).Code)
	limited := ts.postForm(t, "/category/create/", values)
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "60", limited.Header().Get("Retry-After"))
	assert.Equal(t, http.StatusOK, ts.get(t, "/category/list/").Code, "reads are not limited")
}
