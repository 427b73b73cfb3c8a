package query

import "errors"

// ErrInvalidPage is returned for malformed or out-of-range page numbers.
var ErrInvalidPage = errors.New("invalid page")

// Page is one slice of an evaluated view.
type Page[T any] struct {
	Items    []T
	Number   int
	NumPages int
	PerPage  int
	Total    int
}

// Paginate cuts page number (1-based) out of items. The first page of an
// empty list is valid; any other page beyond the end is ErrInvalidPage.
func Paginate[T any](items []T, perPage, number int) (Page[T], error) {
	if perPage < 1 {
		perPage = DefaultItemsPerPage
	}
	total := len(items)
	numPages := total / perPage
	if total%perPage != 0 || numPages == 0 {
		numPages++
	}
	if number < 1 || number > numPages {
		return Page[T]{}, ErrInvalidPage
	}

	start := (number - 1) * perPage
	end := start + min(perPage, total-start)
	return Page[T]{
		Items:    append([]T(nil), items[start:end]...),
		Number:   number,
		NumPages: numPages,
		PerPage:  perPage,
		Total:    total,
	}, nil
}

func (p Page[T]) HasPrevious() bool { return p.Number > 1 }
func (p Page[T]) HasNext() bool { return p.Number < p.NumPages }
func (p Page[T]) PreviousNumber() int { return p.Number - 1 }
func (p Page[T]) NextNumber() int { return p.Number + 1 }
