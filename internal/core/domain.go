package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	MaxExpenseNameLength  = 200
	MaxCategoryNameLength = 100
)

type (
	// Date is a calendar date without time of day, always normalised to UTC midnight.
	Date struct {
		time.Time
	}

	Category struct {
		ID   int64
		Name string
	}

	Expense struct {
		ID     int64
		Name   string
		Amount decimal.Decimal
		Date   Date
		// CategoryID is nil for expenses without a category.
		CategoryID *int64
		// CategoryName is filled by the store on read; empty without a category.
		CategoryName string
	}

	// CategoryWithCount pairs a category with the number of expenses
	// referencing it at read time.
	CategoryWithCount struct {
		Category
		Expenses int
	}
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyName       = errors.New("empty name")
	ErrNameTooLong     = errors.New("name too long")
	ErrUnknownCategory = errors.New("unknown category")
)

const dateLayout = "2006-01-02"

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO calendar date (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// MonthStart truncates the date to the first day of its month.
func (d Date) MonthStart() Date {
	return NewDate(d.Year(), int(d.Month()), 1)
}

// Equal reports whether both values denote the same calendar day.
func (d Date) Equal(o Date) bool {
	return d.Time.Equal(o.Time)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// HasCategory reports whether the expense references a category.
func (e Expense) HasCategory() bool {
	return e.CategoryID != nil
}

func (e Expense) Validate() error {
	if err := validateName(e.Name, MaxExpenseNameLength); err != nil {
		return err
	}
	if err := ValidateAmount(e.Amount); err != nil {
		return err
	}
	return e.Date.Validate()
}

func (c Category) Validate() error {
	return validateName(c.Name, MaxCategoryNameLength)
}

func validateName(name string, max int) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if len([]rune(name)) > max {
		return ErrNameTooLong
	}
	return nil
}

// CategoryRef returns a pointer suitable for Expense.CategoryID.
func CategoryRef(id int64) *int64 {
	return &id
}
