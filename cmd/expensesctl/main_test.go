package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenses/internal/config"
	"expenses/internal/query"
)

const fixturesYAML = `categories:
  - name: necessary
  - name: unnecessary
expenses:
  - name: Groceries
    amount: "50.40"
    date: "2020-05-04"
    category: necessary
  - name: Nintendo DS
    amount: "100.15"
    date: "2020-05-08"
    category: unnecessary
`

// useSQLite points the commands at a fresh database file holding the
// fixtures above.
func useSQLite(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	cfg = &config.Config{DataBackend: config.BackendSQLite, SQLiteDBPath: filepath.Join(dir, "expenses.db")}
	logger = slog.Default()

	seedFile := filepath.Join(dir, "seed.yaml")
	require.NoError(t, os.WriteFile(seedFile, []byte(fixturesYAML), 0o644))
	out, err := run(t, seedCmd(), "--file", seedFile)
	require.NoError(t, err)
	assert.Equal(t, "created 2 categories and 2 expenses\n", out)
}

func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSearchFlagsValues(t *testing.T) {
	flags := searchFlags{name: "nec", categories: []string{"1", "2"}, sortBy: query.SortDateDesc}
	values := flags.values()

	assert.Equal(t, "nec", values.Get(query.ParamName))
	assert.Equal(t, []string{"1", "2"}, values[query.ParamCategories])
	assert.Equal(t, query.SortDateDesc, values.Get(query.ParamSortBy))
	assert.NotContains(t, values, query.ParamDate)
	assert.NotContains(t, values, query.ParamGroupBy)
}

func TestMigrateRequiresSQLBackend(t *testing.T) {
	cfg = &config.Config{DataBackend: config.BackendMemory}
	logger = slog.Default()

	_, err := run(t, migrateCmd())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "needs a SQL backend")
}

func TestReport(t *testing.T) {
	useSQLite(t)

	out, err := run(t, reportCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "unnecessary")
	assert.Contains(t, out, "2020-05")
	assert.Contains(t, out, "150.55")

	out, err = run(t, reportCmd(), "--name", "ninten")
	require.NoError(t, err)
	assert.Contains(t, out, "100.15")
	assert.NotContains(t, out, "150.55")

	out, err = run(t, reportCmd(), "--category", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "50.40")
	assert.NotContains(t, out, "unnecessary")

	_, err = run(t, reportCmd(), "--sort-by", "price")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid search")
}

func TestExport(t *testing.T) {
	useSQLite(t)
	file := filepath.Join(t.TempDir(), "out.csv")

	_, err := run(t, exportCmd(), "--out", file, "--sort-by", query.SortDateAsc)
	require.NoError(t, err)

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "id,date,name,amount,category\n"+
		"1,2020-05-04,Groceries,50.40,necessary\n"+
		"2,2020-05-08,Nintendo DS,100.15,unnecessary\n", string(data))
}
