package google

import (
	"context"
	"testing"

	"budgetwise/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{CredentialsJSON: "{}"})
	require.Error(t, err)
	assert.Equal(t, "missing spreadsheet ID", err.Error())
}

func TestNew_MissingCredentials(t *testing.T) {
	_, err := New(context.Background(), Config{SpreadsheetID: "sheet"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing service account credentials")
}

func TestNew_UnreadableCredentialsFile(t *testing.T) {
	_, err := New(context.Background(), Config{SpreadsheetID: "sheet", CredentialsFile: "/non/existent.json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read service account file")
}

func TestClient_ExportValidatesFirst(t *testing.T) {
	c := &Client{spreadsheetID: "test", sheetBase: "Transactions"}

	_, err := c.Export(context.Background(), "alice", core.Transaction{Description: "x", TransactionDate: core.NewDate(2024, 1, 1)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")

	_, err = c.Export(context.Background(), "alice", core.Transaction{
		Amount: decimal.NewFromInt(1), Description: "x", TransactionDate: core.NewDate(2024, 1, 1),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not initialized")
}

func TestRowFor(t *testing.T) {
	goalID := int64(4)
	row := rowFor("alice", core.Transaction{
		ID:              17,
		Amount:          decimal.RequireFromString("-12.5"),
		Description:     "Lunch",
		Category:        "Food",
		TransactionDate: core.NewDate(2024, 3, 9),
		GoalID:          &goalID,
	})

	assert.Equal(t, []any{int64(17), "2024-03-09", "alice", "Lunch", "Food", "-12.50", "4", ""}, row)
	assert.Len(t, row, len(Header))
}

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		base string
		year int
		want string
	}{
		{"Transactions", 2024, "2024 Transactions"},
		{"2023 Transactions", 2024, "2023 Transactions"},
		{" Spending ", 2025, "2025 Spending"},
		{"", 2024, ""},
		{"1234", 2024, "2024 1234"},
	}
	for _, tt := range tests {
		t.Run(tt.base, func(t *testing.T) {
			assert.Equal(t, tt.want, yearPrefixedName(tt.base, tt.year))
		})
	}
}
