package core

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2020-05-08")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2020, 5, 8), d)
	assert.Equal(t, "2020-05-08", d.String())

	for _, in := range []string{"08-05-2020", "2020/05/08", "2020-13-01", "yesterday", ""} {
		_, err := ParseDate(in)
		assert.ErrorIs(t, err, ErrInvalidDate, in)
	}
}

func TestDateMonthStart(t *testing.T) {
	assert.Equal(t, NewDate(2020, 5, 1), NewDate(2020, 5, 31).MonthStart())
	assert.Equal(t, NewDate(2021, 12, 1), NewDate(2021, 12, 1).MonthStart())
}

func TestDateValidate(t *testing.T) {
	assert.NoError(t, NewDate(2025, 1, 1).Validate())
	assert.Error(t, Date{Time: time.Time{}}.Validate())
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		Name:   "Nintendo DS",
		Amount: decimal.RequireFromString("50.40"),
		Date:   NewDate(2020, 5, 4),
	}
	require.NoError(t, good.Validate())

	cases := map[string]struct {
		mutate func(*Expense)
		want   error
	}{
		"empty name":      {func(e *Expense) { e.Name = "  " }, ErrEmptyName},
		"long name":       {func(e *Expense) { e.Name = strings.Repeat("x", MaxExpenseNameLength+1) }, ErrNameTooLong},
		"zero amount":     {func(e *Expense) { e.Amount = decimal.Zero }, ErrInvalidAmount},
		"fractional cent": {func(e *Expense) { e.Amount = decimal.RequireFromString("1.005") }, ErrInvalidAmount},
		"zero date":       {func(e *Expense) { e.Date = Date{} }, ErrInvalidDate},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			e := good
			tc.mutate(&e)
			assert.True(t, errors.Is(e.Validate(), tc.want))
		})
	}
}

func TestCategoryValidate(t *testing.T) {
	assert.NoError(t, Category{Name: "necessary"}.Validate())
	assert.ErrorIs(t, Category{Name: ""}.Validate(), ErrEmptyName)
	assert.ErrorIs(t, Category{Name: strings.Repeat("n", MaxCategoryNameLength+1)}.Validate(), ErrNameTooLong)
}

func TestValidationError(t *testing.T) {
	v := NewValidationError()
	assert.True(t, v.Empty())
	assert.NoError(t, v.OrNil())

	v.Add("date", "Enter a valid date.")
	v.Add("categories", "Select a valid choice.")
	require.Error(t, v.OrNil())
	assert.True(t, v.Has("date"))
	assert.False(t, v.Has("name"))
	assert.Equal(t, "validation failed: categories: Select a valid choice., date: Enter a valid date.", v.Error())

	var target *ValidationError
	assert.True(t, errors.As(v.OrNil(), &target))
}
