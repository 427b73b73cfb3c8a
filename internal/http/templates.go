package http

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/url"
	"slices"
	"strconv"

	"github.com/shopspring/decimal"

	"expenses/internal/core"
	"expenses/internal/query"
)

const (
	layoutTemplate   = "layout.html"
	partialsTemplate = "partials.html"
)

// Pages rendered inside the layout.
const (
	pageExpenseList    = "expense_list.html"
	pageExpenseForm    = "expense_form.html"
	pageExpenseDelete  = "expense_delete.html"
	pageCategoryList   = "category_list.html"
	pageCategoryDetail = "category_detail.html"
	pageCategoryForm   = "category_form.html"
	pageCategoryDelete = "category_delete.html"
	pageError          = "error.html"
)

var pageNames = []string{
	pageExpenseList, pageExpenseForm, pageExpenseDelete,
	pageCategoryList, pageCategoryDetail, pageCategoryForm, pageCategoryDelete,
	pageError,
}

// renderer holds one template set per page, each a clone of the layout
// with the page's blocks parsed on top.
type renderer struct {
	pages map[string]*template.Template
}

func newRenderer(fsys fs.FS) (*renderer, error) {
	base, err := template.New(layoutTemplate).Funcs(templateFuncs()).ParseFS(fsys, "templates/"+layoutTemplate, "templates/"+partialsTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	r := &renderer{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout for %s: %w", name, err)
		}
		if _, err := t.ParseFS(fsys, "templates/"+name); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// render executes page into a buffer so a failing template never leaves a
// half-written response.
func (r *renderer) render(page string, data any) ([]byte, error) {
	t, ok := r.pages[page]
	if !ok {
		return nil, fmt.Errorf("unknown page %q", page)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return nil, fmt.Errorf("execute %s: %w", page, err)
	}
	return buf.Bytes(), nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"amount": func(d decimal.Decimal) string { return core.FormatAmount(d) },
		"fieldErrors": func(verr *core.ValidationError, field string) []string {
			if verr == nil {
				return nil
			}
			return verr.Fields[field]
		},
		"selected": func(values url.Values, key string, id int64) bool {
			return slices.Contains(values[key], strconv.FormatInt(id, 10))
		},
		"rowNumber": func(number, perPage, i int) int {
			return (number-1)*perPage + i + 1
		},
		"pager": func(page any, values url.Values) map[string]any {
			return map[string]any{"Page": page, "Query": values}
		},
		"pageURL": pageURL,
		"csvURL": func(values url.Values) string {
			q := cloneValues(values)
			q.Del(query.ParamPage)
			return withQuery(routeExpenseExport, q)
		},
	}
}

// pageURL keeps every search parameter and replaces page.
func pageURL(values url.Values, number int) string {
	q := cloneValues(values)
	q.Set(query.ParamPage, strconv.Itoa(number))
	return "?" + q.Encode()
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vs := range v {
		out[k] = append([]string(nil), vs...)
	}
	return out
}
