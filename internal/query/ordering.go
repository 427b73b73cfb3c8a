package query

import "strings"

// OrderField names a column a view can be ordered by.
type OrderField int

const (
	OrderByCategoryName OrderField = iota + 1
	OrderByDate
	OrderByID
)

func (f OrderField) String() string {
	switch f {
	case OrderByCategoryName:
		return "category"
	case OrderByDate:
		return "date"
	case OrderByID:
		return "id"
	default:
		return "unknown"
	}
}

// OrderKey is one ordering criterion.
type OrderKey struct {
	Field      OrderField
	Descending bool
}

// Asc and Desc build order keys.
func Asc(f OrderField) OrderKey { return OrderKey{Field: f} }
func Desc(f OrderField) OrderKey { return OrderKey{Field: f, Descending: true} }

// DecodeOrdering decodes a "field[:direction]" token.
//
// Without a colon the direction is ascending. With a colon, the trimmed part
// after it selects the direction: "asc" is ascending, anything else is
// descending. Fields other than category and date decode to ok == false,
// which callers treat as "leave the ordering alone". The parser already
// rejects such tokens, so that branch only guards direct callers.
func DecodeOrdering(token string) (key OrderKey, ok bool) {
	parts := strings.Split(token, ":")
	if len(parts) > 1 {
		key.Descending = strings.TrimSpace(parts[1]) != "asc"
	}
	switch strings.TrimSpace(parts[0]) {
	case "category":
		key.Field = OrderByCategoryName
	case "date":
		key.Field = OrderByDate
	default:
		return OrderKey{}, false
	}
	return key, true
}
