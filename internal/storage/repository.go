package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"expenses/internal/core"
	"expenses/internal/query"

	_ "modernc.org/sqlite"
)

// SQLRepository implements Store on top of database/sql.
type SQLRepository struct {
	db      *sql.DB
	dialect Dialect
}

var _ Store = (*SQLRepository)(nil)

// sqliteDSN enables foreign keys and a busy timeout on every connection.
func sqliteDSN(path string) string {
	return path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// OpenSQLite opens (creating if needed) the database file at path and
// migrates it to the latest schema.
func OpenSQLite(ctx context.Context, path string) (*SQLRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := MigrateSQLite(path); err != nil {
		return nil, err
	}

	db, err := sql.Open(SQLite.Driver, sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &SQLRepository{db: db, dialect: SQLite}, nil
}

// OpenPostgres connects to the database described by dsn and migrates it.
func OpenPostgres(ctx context.Context, dsn string) (*SQLRepository, error) {
	if err := MigratePostgres(dsn); err != nil {
		return nil, err
	}

	db, err := openPgx(dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &SQLRepository{db: db, dialect: Postgres}, nil
}

func openPgx(dsn string) (*sql.DB, error) {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	return stdlib.OpenDB(*cfg), nil
}

func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLRepository) FindExpenses(ctx context.Context, view query.ExpenseView) ([]core.Expense, error) {
	stmt := compileExpenses(r.dialect, view)
	rows, err := r.db.QueryContext(ctx, stmt.String(), stmt.args...)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

func (r *SQLRepository) CountExpenses(ctx context.Context, view query.ExpenseView) (int, error) {
	stmt := compileExpenseCount(r.dialect, view)
	var n int
	if err := r.db.QueryRowContext(ctx, stmt.String(), stmt.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count expenses: %w", err)
	}
	return n, nil
}

func (r *SQLRepository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	return r.getExpense(ctx, r.db, id)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *SQLRepository) getExpense(ctx context.Context, q queryer, id int64) (core.Expense, error) {
	d := r.dialect
	row := q.QueryRowContext(ctx,
		"SELECT "+d.expenseColumns()+expenseFrom+" WHERE e.id = "+d.placeholder(1), id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.ErrNotFound
	}
	return e, err
}

func (r *SQLRepository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	d := r.dialect
	var created core.Expense
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		if err := r.checkCategory(ctx, tx, e.CategoryID); err != nil {
			return err
		}
		insert := fmt.Sprintf(
			"INSERT INTO expenses (name, amount, date, category_id) VALUES (%s, %s, %s, %s) RETURNING id",
			d.placeholder(1), d.typed(d.placeholder(2), "NUMERIC"), d.typed(d.placeholder(3), "DATE"), d.placeholder(4))
		var id int64
		if err := tx.QueryRowContext(ctx, insert, expenseArgs(e)...).Scan(&id); err != nil {
			return fmt.Errorf("insert expense: %w", err)
		}
		var err error
		created, err = r.getExpense(ctx, tx, id)
		return err
	})
	if err != nil {
		return core.Expense{}, err
	}

	slog.InfoContext(ctx, "Expense stored",
		"id", created.ID,
		"name", created.Name,
		"amount", core.FormatAmount(created.Amount),
		"date", created.Date.String())
	return created, nil
}

func (r *SQLRepository) UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	d := r.dialect
	var updated core.Expense
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		if err := r.checkCategory(ctx, tx, e.CategoryID); err != nil {
			return err
		}
		update := fmt.Sprintf(
			"UPDATE expenses SET name = %s, amount = %s, date = %s, category_id = %s WHERE id = %s",
			d.placeholder(1), d.typed(d.placeholder(2), "NUMERIC"), d.typed(d.placeholder(3), "DATE"), d.placeholder(4), d.placeholder(5))
		res, err := tx.ExecContext(ctx, update, append(expenseArgs(e), e.ID)...)
		if err != nil {
			return fmt.Errorf("update expense: %w", err)
		}
		if err := expectAffected(res); err != nil {
			return err
		}
		updated, err = r.getExpense(ctx, tx, e.ID)
		return err
	})
	if err != nil {
		return core.Expense{}, err
	}
	return updated, nil
}

func (r *SQLRepository) DeleteExpense(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = "+r.dialect.placeholder(1), id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return expectAffected(res)
}

func (r *SQLRepository) FindCategories(ctx context.Context, view query.CategoryView) ([]core.Category, error) {
	stmt := compileCategories(r.dialect, view)
	rows, err := r.db.QueryContext(ctx, stmt.String(), stmt.args...)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}

func (r *SQLRepository) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	var c core.Category
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name FROM categories WHERE id = "+r.dialect.placeholder(1), id).Scan(&c.ID, &c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (r *SQLRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	err := r.db.QueryRowContext(ctx,
		"INSERT INTO categories (name) VALUES ("+r.dialect.placeholder(1)+") RETURNING id", c.Name).Scan(&c.ID)
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	slog.InfoContext(ctx, "Category stored", "id", c.ID, "name", c.Name)
	return c, nil
}

func (r *SQLRepository) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	d := r.dialect
	res, err := r.db.ExecContext(ctx,
		"UPDATE categories SET name = "+d.placeholder(1)+" WHERE id = "+d.placeholder(2), c.Name, c.ID)
	if err != nil {
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}
	if err := expectAffected(res); err != nil {
		return core.Category{}, err
	}
	return c, nil
}

func (r *SQLRepository) DeleteCategory(ctx context.Context, id int64) (int, error) {
	ph := r.dialect.placeholder(1)
	var removed int64
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM expenses WHERE category_id = "+ph, id)
		if err != nil {
			return fmt.Errorf("delete category expenses: %w", err)
		}
		if removed, err = res.RowsAffected(); err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		res, err = tx.ExecContext(ctx, "DELETE FROM categories WHERE id = "+ph, id)
		if err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		return expectAffected(res)
	})
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "Category deleted", "id", id, "expenses_removed", removed)
	return int(removed), nil
}

func (r *SQLRepository) MissingCategories(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	stmt := newStatement(r.dialect, "SELECT id FROM categories WHERE id IN (")
	phs := make([]string, len(ids))
	for i, id := range ids {
		phs[i] = stmt.bind(id)
	}
	stmt.sql.WriteString(strings.Join(phs, ", ") + ")")

	rows, err := r.db.QueryContext(ctx, stmt.String(), stmt.args...)
	if err != nil {
		return nil, fmt.Errorf("query category ids: %w", err)
	}
	defer rows.Close()

	found := make(map[int64]bool, len(ids))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan category id: %w", err)
		}
		found[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category ids: %w", err)
	}

	var missing []int64
	for _, id := range ids {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (r *SQLRepository) checkCategory(ctx context.Context, tx *sql.Tx, id *int64) error {
	if id == nil {
		return nil
	}
	var one int
	err := tx.QueryRowContext(ctx, "SELECT 1 FROM categories WHERE id = "+r.dialect.placeholder(1), *id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrUnknownCategory
	}
	if err != nil {
		return fmt.Errorf("check category: %w", err)
	}
	return nil
}

// inTx runs fn in a transaction, committing only when fn succeeds.
func (r *SQLRepository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func expenseArgs(e core.Expense) []any {
	var category any
	if e.CategoryID != nil {
		category = *e.CategoryID
	}
	return []any{e.Name, core.FormatAmount(e.Amount), e.Date.String(), category}
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExpense(s scanner) (core.Expense, error) {
	var (
		e        core.Expense
		amount   string
		date     string
		category sql.NullInt64
	)
	if err := s.Scan(&e.ID, &e.Name, &amount, &date, &category, &e.CategoryName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Expense{}, err
		}
		return core.Expense{}, fmt.Errorf("scan expense: %w", err)
	}

	var err error
	if e.Amount, err = decimal.NewFromString(amount); err != nil {
		return core.Expense{}, fmt.Errorf("decode amount %q: %w", amount, err)
	}
	if e.Date, err = core.ParseDate(date); err != nil {
		return core.Expense{}, fmt.Errorf("decode date %q: %w", date, err)
	}
	if category.Valid {
		e.CategoryID = core.CategoryRef(category.Int64)
	}
	return e, nil
}
