package forms

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenses/internal/core"
)

type categories map[int64]bool

func (c categories) MissingCategories(_ context.Context, ids []int64) ([]int64, error) {
	var missing []int64
	for _, id := range ids {
		if !c[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func TestExpenseFormBind_Valid(t *testing.T) {
	form := ExpenseFormFromValues(url.Values{
		"name":     {"  Nintendo DS\x00 "},
		"amount":   {"100,15"},
		"date":     {"2020-05-08"},
		"category": {"1"},
	})
	assert.Equal(t, "Nintendo DS", form.Name)

	e, err := form.Bind(context.Background(), categories{1: true})
	require.NoError(t, err)
	assert.Equal(t, "Nintendo DS", e.Name)
	assert.Equal(t, "100.15", core.FormatAmount(e.Amount))
	assert.True(t, e.Date.Equal(core.NewDate(2020, 5, 8)))
	require.NotNil(t, e.CategoryID)
	assert.Equal(t, int64(1), *e.CategoryID)
}

func TestExpenseFormBind_CategoryIsOptional(t *testing.T) {
	e, err := ExpenseForm{Name: "Tip", Amount: "2", Date: "2021-01-01"}.Bind(context.Background(), categories{})
	require.NoError(t, err)
	assert.False(t, e.HasCategory())
}

func TestExpenseFormBind_Invalid(t *testing.T) {
	valid := ExpenseForm{Name: "Lunch", Amount: "12.50", Date: "2021-01-01"}

	tests := []struct {
		name    string
		mutate  func(f *ExpenseForm)
		field   string
		message string
	}{
		{"missing name", func(f *ExpenseForm) { f.Name = "" }, FieldName, msgRequired},
		{"long name", func(f *ExpenseForm) { f.Name = strings.Repeat("x", 201) }, FieldName,
			"Ensure this value has at most 200 characters (it has 201)."},
		{"missing amount", func(f *ExpenseForm) { f.Amount = "" }, FieldAmount, msgRequired},
		{"amount not a number", func(f *ExpenseForm) { f.Amount = "ten" }, FieldAmount, msgInvalidNumber},
		{"amount with exponent", func(f *ExpenseForm) { f.Amount = "1e3" }, FieldAmount, msgInvalidNumber},
		{"zero amount", func(f *ExpenseForm) { f.Amount = "0" }, FieldAmount, msgNotPositive},
		{"negative amount", func(f *ExpenseForm) { f.Amount = "-4.00" }, FieldAmount, msgNotPositive},
		{"three decimal places", func(f *ExpenseForm) { f.Amount = "1.005" }, FieldAmount, msgTooManyPlaces},
		{"amount too large", func(f *ExpenseForm) { f.Amount = "100000000000.00" }, FieldAmount, msgTooManyDigits},
		{"missing date", func(f *ExpenseForm) { f.Date = "" }, FieldDate, msgRequired},
		{"bad date", func(f *ExpenseForm) { f.Date = "2021-02-30" }, FieldDate, msgInvalidDate},
		{"category not an id", func(f *ExpenseForm) { f.Category = "food" }, FieldCategory, msgInvalidChoice},
		{"unknown category", func(f *ExpenseForm) { f.Category = "9" }, FieldCategory, msgInvalidChoice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := valid
			tt.mutate(&f)
			_, err := f.Bind(context.Background(), categories{1: true})
			var verr *core.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, []string{tt.message}, verr.Fields[tt.field])
			assert.Len(t, verr.Fields, 1)
		})
	}
}

func TestExpenseFormFromExpense(t *testing.T) {
	f := ExpenseFormFromExpense(core.Expense{
		Name:       "Groceries",
		Amount:     mustAmount(t, "50.4"),
		Date:       core.NewDate(2020, 5, 4),
		CategoryID: core.CategoryRef(2),
	})
	assert.Equal(t, ExpenseForm{Name: "Groceries", Amount: "50.40", Date: "2020-05-04", Category: "2"}, f)
}

func TestCategoryFormBind(t *testing.T) {
	c, err := CategoryFormFromValues(url.Values{"name": {" necessary "}}).Bind()
	require.NoError(t, err)
	assert.Equal(t, "necessary", c.Name)

	_, err = CategoryForm{}.Bind()
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has(FieldName))

	_, err = CategoryForm{Name: strings.Repeat("é", 101)}.Bind()
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"Ensure this value has at most 100 characters (it has 101)."}, verr.Fields[FieldName])

	_, err = CategoryForm{Name: strings.Repeat("é", 100)}.Bind()
	assert.NoError(t, err)
}

func mustAmount(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := core.ParseAmount(s)
	require.NoError(t, err)
	return d
}
