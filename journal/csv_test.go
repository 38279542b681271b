package journal

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, Demo()[:2]))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, []string{
		"demo-1", "EUR/USD", "2024-12-10T14:30:00Z", "BUY", "87",
		"1.082", "1.089", "1.078", "completed", "profit", "245", "2.1",
		"Double Bottom; Support Bounce",
	}, rows[1])
	assert.Equal(t, "320", rows[2][10])
}
