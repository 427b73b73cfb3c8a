package query

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}

	tests := []struct {
		name     string
		perPage  int
		number   int
		want     []int
		numPages int
		prev     bool
		next     bool
	}{
		{"first page", 5, 1, []int{1, 2, 3, 4, 5}, 2, false, true},
		{"last partial page", 5, 2, []int{6, 7}, 2, true, false},
		{"one per page", 1, 4, []int{4}, 7, true, true},
		{"page larger than list", 10, 1, items, 1, false, false},
		{"non-positive page size falls back to default", 0, 2, []int{6, 7}, 2, true, false},
		{"largest page size", math.MaxInt, 1, items, 1, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := Paginate(items, tt.perPage, tt.number)
			require.NoError(t, err)
			assert.Equal(t, tt.want, page.Items)
			assert.Equal(t, tt.numPages, page.NumPages)
			assert.Equal(t, len(items), page.Total)
			assert.Equal(t, tt.prev, page.HasPrevious())
			assert.Equal(t, tt.next, page.HasNext())
		})
	}
}

func TestPaginate_OutOfRange(t *testing.T) {
	items := []int{1, 2, 3}
	for _, number := range []int{0, -1, 2, 100} {
		_, err := Paginate(items, 5, number)
		assert.ErrorIs(t, err, ErrInvalidPage, "page %d", number)
	}
}

func TestPaginate_EmptyFirstPage(t *testing.T) {
	page, err := Paginate([]string{}, 5, 1)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 1, page.NumPages)
	assert.False(t, page.HasNext())

	_, err = Paginate([]string{}, 5, 2)
	assert.ErrorIs(t, err, ErrInvalidPage)
}

func TestPage_Neighbours(t *testing.T) {
	page, err := Paginate([]int{1, 2, 3}, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, page.PreviousNumber())
	assert.Equal(t, 3, page.NextNumber())
}
