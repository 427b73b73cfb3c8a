package storage

import (
	"fmt"
	"strconv"
)

// Dialect captures the SQL differences between the supported databases.
type Dialect struct {
	Name string
	// Driver is the database/sql driver name.
	Driver string

	numbered  bool
	dateExpr  string
	textCast  bool
	nameOrder string
}

var (
	// SQLite stores amounts and dates as TEXT.
	SQLite = Dialect{
		Name:      "sqlite",
		Driver:    "sqlite",
		dateExpr:  "e.date",
		nameOrder: "COALESCE(c.name, '')",
	}

	// Postgres stores amounts as NUMERIC(12,2) and dates as DATE.
	Postgres = Dialect{
		Name:      "postgres",
		Driver:    "pgx",
		numbered:  true,
		dateExpr:  "to_char(e.date, 'YYYY-MM-DD')",
		textCast:  true,
		nameOrder: `COALESCE(c.name, '') COLLATE "C"`,
	}
)

// placeholder returns the n-th (1-based) bind parameter.
func (d Dialect) placeholder(n int) string {
	if d.numbered {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// typed wraps a text parameter so the database converts it to sqlType.
func (d Dialect) typed(ph, sqlType string) string {
	if !d.textCast {
		return ph
	}
	return fmt.Sprintf("CAST(CAST(%s AS TEXT) AS %s)", ph, sqlType)
}

func (d Dialect) amountSelect() string {
	if d.textCast {
		return "CAST(e.amount AS TEXT)"
	}
	return "e.amount"
}

// containsFold matches ph as a case-insensitive substring of column.
// SQLite's lower() folds ASCII letters only, so on SQLite "été" does not
// match "ÉTÉ"; Postgres folds according to the database locale.
func (d Dialect) containsFold(column, ph string) string {
	if d.numbered {
		return fmt.Sprintf("strpos(lower(%s), lower(%s)) > 0", column, ph)
	}
	return fmt.Sprintf("instr(lower(%s), lower(%s)) > 0", column, ph)
}
