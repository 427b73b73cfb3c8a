package query

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"expenses/internal/core"
)

// Request parameter names shared by the HTTP layer and the CLI.
const (
	ParamName         = "name"
	ParamCategories   = "categories"
	ParamDate         = "date"
	ParamSortBy       = "sort_by"
	ParamGroupBy      = "group_by"
	ParamItemsPerPage = "items_per_page"
	ParamPage         = "page"
)

// CategoryChecker reports which of the given category ids do not exist.
type CategoryChecker interface {
	MissingCategories(ctx context.Context, ids []int64) ([]int64, error)
}

// ParseExpenseSearch validates raw expense listing parameters.
//
// Every field is optional. A *core.ValidationError is returned when any
// field is malformed; in that case the returned search is the zero value
// and must not be applied. Errors from the checker are returned wrapped.
func ParseExpenseSearch(ctx context.Context, values url.Values, checker CategoryChecker) (ExpenseSearch, error) {
	verr := core.NewValidationError()

	search := ExpenseSearch{
		Name:         optionalString(values, ParamName),
		Categories:   optionalIDs(values, ParamCategories, verr),
		Date:         optionalDate(values, ParamDate, verr),
		SortBy:       optionalChoice(values, ParamSortBy, SortChoices, verr),
		GroupBy:      optionalChoice(values, ParamGroupBy, GroupChoices, verr),
		ItemsPerPage: optionalInt(values, ParamItemsPerPage, verr),
	}

	if len(search.Categories) > 0 && !verr.Has(ParamCategories) {
		missing, err := checker.MissingCategories(ctx, search.Categories)
		if err != nil {
			return ExpenseSearch{}, fmt.Errorf("check categories: %w", err)
		}
		for _, id := range missing {
			verr.Add(ParamCategories, fmt.Sprintf("Select a valid choice. %d is not one of the available choices.", id))
		}
	}

	if err := verr.OrNil(); err != nil {
		return ExpenseSearch{}, err
	}
	return search, nil
}

// ParseCategorySearch validates raw category listing parameters.
func ParseCategorySearch(values url.Values) (CategorySearch, error) {
	verr := core.NewValidationError()
	search := CategorySearch{
		Name:         optionalString(values, ParamName),
		ItemsPerPage: optionalInt(values, ParamItemsPerPage, verr),
	}
	if err := verr.OrNil(); err != nil {
		return CategorySearch{}, err
	}
	return search, nil
}

// ParsePageNumber parses the 1-based page parameter; empty means the first page.
func ParsePageNumber(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, ErrInvalidPage
	}
	return n, nil
}

func optionalString(values url.Values, key string) string {
	return values.Get(key)
}

func optionalDate(values url.Values, key string, verr *core.ValidationError) *core.Date {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return nil
	}
	d, err := core.ParseDate(raw)
	if err != nil {
		verr.Add(key, "Enter a valid date.")
		return nil
	}
	return &d
}

func optionalInt(values url.Values, key string, verr *core.ValidationError) int {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		verr.Add(key, "Enter a whole number.")
		return 0
	}
	return n
}

func optionalChoice(values url.Values, key string, choices []string, verr *core.ValidationError) string {
	raw := values.Get(key)
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	token := NormalizeToken(raw)
	if !slices.Contains(choices, token) {
		verr.Add(key, fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", raw))
		return ""
	}
	return token
}

func optionalIDs(values url.Values, key string, verr *core.ValidationError) []int64 {
	var ids []int64
	for _, raw := range values[key] {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			verr.Add(key, fmt.Sprintf("%q is not a valid value.", raw))
			continue
		}
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	return ids
}

// NormalizeToken trims an ordering token and the blanks around its colon,
// so "category: asc" and "category:asc" name the same choice.
func NormalizeToken(raw string) string {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return strings.Join(parts, ":")
}
