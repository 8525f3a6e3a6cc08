package id

import (
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDocumentID(t *testing.T) {
	ids := make([]string, 50)
	for i := range ids {
		ids[i] = NewDocumentID()
	}

	parsed, err := uuid.Parse(ids[0])
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())

	assert.True(t, sort.StringsAreSorted(ids), "ids must sort in creation order")

	seen := make(map[string]bool)
	for _, v := range ids {
		assert.False(t, seen[v])
		seen[v] = true
	}
}

func TestTimestampedReferences(t *testing.T) {
	ts := time.Date(2025, 1, 15, 9, 30, 5, 0, time.UTC)
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"deposit", Deposit(ts), "DEP-20250115093005"},
		{"deposit usage", DepositUsage(ts), "DEP-USE-20250115093005"},
		{"payment", Payment(ts), "PAY-20250115093005"},
		{"payment received", PaymentReceived(ts), "PMT-20250115093005"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestDerivedReferences(t *testing.T) {
	assert.Equal(t, "PROD-B7", ProductionTransfer("B7"))
	assert.Equal(t, "COMP-B7", ProductionComplete("B7"))
	assert.Equal(t, "REV-INV-1", Reversal("INV-1", "abc"))
	assert.Equal(t, "REV-abc", Reversal("", "abc"))
	assert.Equal(t, "open-C1", Opening("C1"))
}
