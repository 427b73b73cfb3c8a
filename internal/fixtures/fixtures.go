// Package fixtures loads categories and expenses from YAML seed files.
package fixtures

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"gopkg.in/yaml.v3"

	"expenses/internal/core"
	"expenses/internal/forms"
	"expenses/internal/storage"
)

// File is the seed file layout. Expenses reference categories by name.
type File struct {
	Categories []Category `yaml:"categories"`
	Expenses   []Expense  `yaml:"expenses"`
}

type Category struct {
	Name string `yaml:"name"`
}

type Expense struct {
	Name     string `yaml:"name"`
	Amount   string `yaml:"amount"`
	Date     string `yaml:"date"`
	Category string `yaml:"category,omitempty"`
}

// Result counts the rows a seed created.
type Result struct {
	Categories int
	Expenses   int
}

// Decode reads a seed file.
func Decode(r io.Reader) (File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return File{}, fmt.Errorf("decode fixtures: %w", err)
	}
	return f, nil
}

// Seed creates every category and expense of f in store. Expenses are
// validated like submitted forms; the first invalid row stops the seed.
func Seed(ctx context.Context, store storage.Store, f File) (Result, error) {
	var res Result
	ids := make(map[string]int64, len(f.Categories))

	for i, c := range f.Categories {
		category, err := forms.CategoryForm{Name: c.Name}.Bind()
		if err != nil {
			return res, fmt.Errorf("category %d: %w", i+1, err)
		}
		created, err := store.CreateCategory(ctx, category)
		if err != nil {
			return res, fmt.Errorf("create category %q: %w", c.Name, err)
		}
		ids[created.Name] = created.ID
		res.Categories++
	}

	for i, e := range f.Expenses {
		form := forms.ExpenseForm{Name: e.Name, Amount: e.Amount, Date: e.Date}
		if e.Category != "" {
			id, ok := ids[e.Category]
			if !ok {
				return res, fmt.Errorf("expense %d: %w: %q", i+1, core.ErrUnknownCategory, e.Category)
			}
			form.Category = strconv.FormatInt(id, 10)
		}
		expense, err := form.Bind(ctx, store)
		if err != nil {
			return res, fmt.Errorf("expense %d: %w", i+1, err)
		}
		if _, err := store.CreateExpense(ctx, expense); err != nil {
			return res, fmt.Errorf("create expense %q: %w", e.Name, err)
		}
		res.Expenses++
	}

	slog.InfoContext(ctx, "Fixtures loaded", "categories", res.Categories, "expenses", res.Expenses)
	return res, nil
}
