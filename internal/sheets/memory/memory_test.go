package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenses/internal/report"
)

func TestWriterKeepsLastSummary(t *testing.T) {
	w := New()
	assert.Empty(t, w.Rows())

	require.NoError(t, w.WriteSummary(context.Background(), report.Summarize(nil)))
	require.NoError(t, w.WriteSummary(context.Background(), report.Summarize(nil)))

	assert.Equal(t, 2, w.Writes())
	assert.Len(t, w.Rows(), 2)
}
