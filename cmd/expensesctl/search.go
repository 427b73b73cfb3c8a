package main

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"expenses/internal/query"
)

// searchFlags mirrors the expense listing parameters.
type searchFlags struct {
	name       string
	date       string
	categories []string
	sortBy     string
	groupBy    string
}

func (f *searchFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "case-insensitive name substring")
	cmd.Flags().StringVar(&f.date, "date", "", "exact date (YYYY-MM-DD)")
	cmd.Flags().StringSliceVar(&f.categories, "category", nil, "category id, repeatable")
	cmd.Flags().StringVar(&f.sortBy, "sort-by", "", fmt.Sprintf("ordering (%s)", strings.Join(query.SortChoices, ", ")))
	cmd.Flags().StringVar(&f.groupBy, "group-by", "", fmt.Sprintf("grouping (%s)", strings.Join(query.GroupChoices, ", ")))
}

func (f *searchFlags) values() url.Values {
	values := url.Values{}
	set := func(key, value string) {
		if value != "" {
			values.Set(key, value)
		}
	}
	set(query.ParamName, f.name)
	set(query.ParamDate, f.date)
	set(query.ParamSortBy, f.sortBy)
	set(query.ParamGroupBy, f.groupBy)
	for _, c := range f.categories {
		values.Add(query.ParamCategories, c)
	}
	return values
}
