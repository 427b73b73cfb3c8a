package storage

import (
	"strings"

	"expenses/internal/query"
)

// statement accumulates SQL text and its bind arguments.
type statement struct {
	dialect Dialect
	sql     strings.Builder
	args    []any
}

func newStatement(d Dialect, prefix string) *statement {
	s := &statement{dialect: d}
	s.sql.WriteString(prefix)
	return s
}

// bind appends arg and returns its placeholder.
func (s *statement) bind(arg any) string {
	s.args = append(s.args, arg)
	return s.dialect.placeholder(len(s.args))
}

func (s *statement) String() string {
	return s.sql.String()
}

// where appends a WHERE clause for predicates. Predicates that do not apply
// to the selected table are skipped.
func (s *statement) where(predicates []query.Predicate, nameColumn string, expenses bool) {
	var conds []string
	for _, p := range predicates {
		switch p := p.(type) {
		case query.NameContains:
			conds = append(conds, s.dialect.containsFold(nameColumn, s.bind(p.Substring)))
		case query.CategoryIn:
			if !expenses {
				continue
			}
			phs := make([]string, len(p.IDs))
			for i, id := range p.IDs {
				phs[i] = s.bind(id)
			}
			conds = append(conds, "e.category_id IN ("+strings.Join(phs, ", ")+")")
		case query.DateEquals:
			if !expenses {
				continue
			}
			conds = append(conds, "e.date = "+s.dialect.typed(s.bind(p.Date.String()), "DATE"))
		}
	}
	if len(conds) == 0 {
		return
	}
	s.sql.WriteString(" WHERE ")
	s.sql.WriteString(strings.Join(conds, " AND "))
}

// orderBy appends an ORDER BY clause for an expense view ordering.
func (s *statement) orderBy(keys []query.OrderKey) {
	terms := make([]string, 0, len(keys))
	for _, k := range keys {
		var col string
		switch k.Field {
		case query.OrderByCategoryName:
			col = s.dialect.nameOrder
		case query.OrderByDate:
			col = "e.date"
		case query.OrderByID:
			col = "e.id"
		default:
			continue
		}
		if k.Descending {
			col += " DESC"
		} else {
			col += " ASC"
		}
		terms = append(terms, col)
	}
	if len(terms) == 0 {
		return
	}
	s.sql.WriteString(" ORDER BY ")
	s.sql.WriteString(strings.Join(terms, ", "))
}

func (d Dialect) expenseColumns() string {
	return "e.id, e.name, " + d.amountSelect() + ", " + d.dateExpr + ", e.category_id, COALESCE(c.name, '')"
}

const expenseFrom = " FROM expenses e LEFT JOIN categories c ON c.id = e.category_id"

// compileExpenses builds the SELECT for an expense view.
func compileExpenses(d Dialect, view query.ExpenseView) *statement {
	s := newStatement(d, "SELECT "+d.expenseColumns()+expenseFrom)
	s.where(view.Predicates(), "e.name", true)
	s.orderBy(view.Ordering())
	return s
}

// compileExpenseCount builds the COUNT for an expense view.
func compileExpenseCount(d Dialect, view query.ExpenseView) *statement {
	s := newStatement(d, "SELECT COUNT(*)"+expenseFrom)
	s.where(view.Predicates(), "e.name", true)
	return s
}

// compileCategories builds the SELECT for a category view, ordered by id.
func compileCategories(d Dialect, view query.CategoryView) *statement {
	s := newStatement(d, "SELECT c.id, c.name FROM categories c")
	s.where(view.Predicates(), "c.name", false)
	s.sql.WriteString(" ORDER BY c.id ASC")
	return s
}
