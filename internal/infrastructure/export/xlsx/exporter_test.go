package xlsx

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/notewise/internal/core/domain"
)

func TestExportWritesHeaderAndRows(t *testing.T) {
	title := "Standup"
	notes := []domain.Note{
		{ID: 2, Title: &title, Content: "sync with infra team", Categories: []string{"Work", "Tech"}, Bookmarked: true, Timestamp: 0},
		{ID: 1, Content: "buy oat milk", Categories: []string{"Shopping"}, Timestamp: 0},
	}

	var buf bytes.Buffer
	require.NoError(t, NewExporter(nil).Export(context.Background(), notes, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, header, rows[0])
	assert.Equal(t, []string{"2", "Standup", "sync with infra team", "Work, Tech", "yes", "1970-01-01T00:00:00Z"}, rows[1])
	assert.Equal(t, "", rows[2][1])
	assert.Equal(t, "Shopping", rows[2][3])
}

func TestExportStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	err := NewExporter(nil).Export(ctx, []domain.Note{{ID: 1, Content: "x"}}, &buf)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, buf.Len())
}
