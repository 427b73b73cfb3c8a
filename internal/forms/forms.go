// Package forms binds submitted create/edit forms to domain values.
//
// Forms keep the raw submitted strings so a rejected submission can be
// rendered back to the user unchanged, next to its field errors.
package forms

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"expenses/internal/core"
	"expenses/internal/query"
)

// Form field names.
const (
	FieldName     = "name"
	FieldAmount   = "amount"
	FieldDate     = "date"
	FieldCategory = "category"
)

const (
	msgRequired       = "This field is required."
	msgInvalidChoice  = "Select a valid choice. That choice is not one of the available choices."
	msgInvalidDate    = "Enter a valid date."
	msgInvalidNumber  = "Enter a number."
	msgNotPositive    = "Ensure this value is greater than 0."
	msgTooManyPlaces  = "Ensure that there are no more than 2 decimal places."
	msgTooManyDigits  = "Ensure that there are no more than 12 digits in total."
	msgTooLongPattern = "Ensure this value has at most %d characters (it has %d)."
)

// ExpenseForm holds the raw values of an expense create/edit submission.
type ExpenseForm struct {
	Name     string
	Amount   string
	Date     string
	Category string
}

// ExpenseFormFromValues reads an expense form from submitted values.
func ExpenseFormFromValues(values url.Values) ExpenseForm {
	return ExpenseForm{
		Name:     clean(values.Get(FieldName)),
		Amount:   clean(values.Get(FieldAmount)),
		Date:     clean(values.Get(FieldDate)),
		Category: clean(values.Get(FieldCategory)),
	}
}

// ExpenseFormFromExpense pre-fills an edit form.
func ExpenseFormFromExpense(e core.Expense) ExpenseForm {
	f := ExpenseForm{
		Name:   e.Name,
		Amount: core.FormatAmount(e.Amount),
		Date:   e.Date.String(),
	}
	if e.CategoryID != nil {
		f.Category = strconv.FormatInt(*e.CategoryID, 10)
	}
	return f
}

// Bind validates the form and returns the expense it describes, without an
// id. Field problems are reported together as a *core.ValidationError.
func (f ExpenseForm) Bind(ctx context.Context, checker query.CategoryChecker) (core.Expense, error) {
	verr := core.NewValidationError()
	var e core.Expense

	e.Name = requiredText(verr, FieldName, f.Name, core.MaxExpenseNameLength)

	if f.Amount == "" {
		verr.Add(FieldAmount, msgRequired)
	} else if amount, err := core.ParseAmount(f.Amount); err != nil {
		verr.Add(FieldAmount, amountMessage(f.Amount))
	} else {
		e.Amount = amount
	}

	if f.Date == "" {
		verr.Add(FieldDate, msgRequired)
	} else if date, err := core.ParseDate(f.Date); err != nil {
		verr.Add(FieldDate, msgInvalidDate)
	} else {
		e.Date = date
	}

	if f.Category != "" {
		id, err := strconv.ParseInt(f.Category, 10, 64)
		if err != nil {
			verr.Add(FieldCategory, msgInvalidChoice)
		} else {
			missing, err := checker.MissingCategories(ctx, []int64{id})
			if err != nil {
				return core.Expense{}, fmt.Errorf("check category: %w", err)
			}
			if len(missing) > 0 {
				verr.Add(FieldCategory, msgInvalidChoice)
			} else {
				e.CategoryID = core.CategoryRef(id)
			}
		}
	}

	if err := verr.OrNil(); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

// CategoryForm holds the raw values of a category create/edit submission.
type CategoryForm struct {
	Name string
}

// CategoryFormFromValues reads a category form from submitted values.
func CategoryFormFromValues(values url.Values) CategoryForm {
	return CategoryForm{Name: clean(values.Get(FieldName))}
}

// CategoryFormFromCategory pre-fills an edit form.
func CategoryFormFromCategory(c core.Category) CategoryForm {
	return CategoryForm{Name: c.Name}
}

// Bind validates the form and returns the category it describes, without an id.
func (f CategoryForm) Bind() (core.Category, error) {
	verr := core.NewValidationError()
	c := core.Category{Name: requiredText(verr, FieldName, f.Name, core.MaxCategoryNameLength)}
	if err := verr.OrNil(); err != nil {
		return core.Category{}, err
	}
	return c, nil
}

func requiredText(verr *core.ValidationError, field, value string, max int) string {
	value = strings.TrimSpace(value)
	if value == "" {
		verr.Add(field, msgRequired)
		return ""
	}
	if n := utf8.RuneCountInString(value); n > max {
		verr.Add(field, fmt.Sprintf(msgTooLongPattern, max, n))
		return ""
	}
	return value
}

// amountMessage explains why raw was rejected as an amount.
func amountMessage(raw string) string {
	d, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", "."))
	switch {
	case err != nil || strings.HasPrefix(raw, "+") || strings.ContainsAny(raw, "eE"):
		return msgInvalidNumber
	case !d.IsPositive():
		return msgNotPositive
	case d.GreaterThanOrEqual(core.MaxAmount):
		return msgTooManyDigits
	default:
		return msgTooManyPlaces
	}
}

// clean trims value and drops control characters other than tab and newlines.
func clean(value string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, value))
}
