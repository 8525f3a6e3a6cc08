package journal

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ponmo-books/ponmo/internal/model"
)

func TestWriteEntries(t *testing.T) {
	entries := []model.JournalEntry{
		{
			ID:          "e1",
			Date:        date(2025, 1, 3),
			Kind:        model.KindSale,
			Status:      model.StatusPosted,
			Reference:   "INV-1",
			Description: "Sale to customer Acme, Inc - Invoice INV-1",
			CustomerID:  "c1",
			Lines: []model.JournalLine{
				model.Debit("1000", dec("4")),
				model.Credit("4000", dec("4")),
			},
		},
		{
			ID:     "e2",
			Date:   date(2025, 1, 4),
			Kind:   model.KindExpense,
			Status: model.StatusReversed,
			Lines: []model.JournalLine{
				model.Debit("5500", dec("9.5")),
				model.Credit("1100", dec("9.5")),
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteEntries(&buf, entries))

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, strings.Split(Header, ","), records[0])

	assert.Equal(t, "e1", records[1][colEntryID])
	assert.Equal(t, "2025-01-03", records[1][colDate])
	assert.Equal(t, "Sale to customer Acme, Inc - Invoice INV-1", records[1][colDesc])
	assert.Equal(t, "4.00", records[1][colDebit])
	assert.Empty(t, records[1][colCredit])
	assert.Equal(t, "4.00", records[2][colCredit])
	assert.Empty(t, records[2][colDebit])

	assert.Equal(t, "reversed", records[3][colStatus])
	assert.Equal(t, "9.50", records[3][colDebit])
	assert.Equal(t, "1100", records[4][colAccount])
}

func TestWriteEntries_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteEntries(&buf, nil))
	assert.Equal(t, Header+"\n", buf.String())
}
