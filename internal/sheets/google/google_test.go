package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"expenses/internal/report"
)

type recordedCall struct {
	method string
	path   string
	query  string
	body   string
}

func fakeSheets(t *testing.T, status int) (*Client, *[]recordedCall) {
	t.Helper()
	var (
		mu    sync.Mutex
		calls []recordedCall
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		calls = append(calls, recordedCall{r.Method, r.URL.Path, r.URL.RawQuery, string(body)})
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, "{}")
	}))
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication())
	require.NoError(t, err)
	return NewWithService(svc, "sheet-id", ""), &calls
}

func TestWriteSummary(t *testing.T) {
	client, calls := fakeSheets(t, http.StatusOK)

	require.NoError(t, client.WriteSummary(context.Background(), report.Summarize(nil)))
	require.Len(t, *calls, 2)

	clear := (*calls)[0]
	assert.Equal(t, http.MethodPost, clear.method)
	assert.Contains(t, clear.path, "/spreadsheets/sheet-id/values/Summary!A:C:clear")

	update := (*calls)[1]
	assert.Equal(t, http.MethodPut, update.method)
	assert.Contains(t, update.path, "/spreadsheets/sheet-id/values/Summary!A1:C2")
	assert.Contains(t, update.query, "valueInputOption=RAW")

	var vr struct {
		Values [][]string `json:"values"`
	}
	require.NoError(t, json.Unmarshal([]byte(update.body), &vr))
	assert.Equal(t, [][]string{{"section", "label", "total"}, {"overall", "overall", "0.00"}}, vr.Values)
}

func TestWriteSummary_APIError(t *testing.T) {
	client, _ := fakeSheets(t, http.StatusForbidden)
	err := client.WriteSummary(context.Background(), report.Summarize(nil))
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "clear Summary!A:C"))
}

func TestWriteSummary_NoService(t *testing.T) {
	err := (&Client{}).WriteSummary(context.Background(), report.Summarize(nil))
	assert.EqualError(t, err, "sheets service not initialized")
}

func TestNew_Validation(t *testing.T) {
	_, err := New(context.Background(), Options{})
	assert.EqualError(t, err, "missing spreadsheet id")

	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err = New(context.Background(), Options{SpreadsheetID: "id"})
	assert.ErrorContains(t, err, "missing service account credentials")

	_, err = New(context.Background(), Options{SpreadsheetID: "id", CredentialsFile: "/does/not/exist.json"})
	assert.ErrorContains(t, err, "read service account file")
}
