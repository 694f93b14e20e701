package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"budgetwise/internal/core"
	"budgetwise/internal/log"
	ports "budgetwise/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

var _ ports.TransactionExporter = (*Client)(nil)

// Header is the column layout of an export sheet.
var Header = []any{"ID", "Date", "User", "Description", "Category", "Amount", "Goal", "Budget"}

type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsFile string
	CredentialsJSON string
}

// Client appends one row per transaction to a per-year sheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBase     string
}

func New(ctx context.Context, cfg Config) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	sheetBase := strings.TrimSpace(cfg.SheetName)
	if sheetBase == "" {
		sheetBase = "Transactions"
	}

	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetBase: sheetBase}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Inline JSON wins over the file.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		credentialsJSON = []byte(cfg.CredentialsJSON)
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	log.FromContext(ctx).WithComponent(log.ComponentSheets).InfoContext(ctx, "Google Sheets service created")
	return service, nil
}

// Export appends tx below the last row of the sheet for its year.
func (c *Client) Export(ctx context.Context, username string, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	sheet := yearPrefixedName(c.sheetBase, tx.TransactionDate.Year())
	vr := &gsheet.ValueRange{Values: [][]any{rowFor(username, tx)}}

	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, sheet+"!A:H", vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", sheet, err)
	}

	ref := sheet
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	log.FromContext(ctx).WithComponent(log.ComponentSheets).DebugContext(ctx, "Transaction exported to Google Sheets",
		log.FieldTransactionID, tx.ID, "range", ref)
	return ref, nil
}

// rowFor renders tx in Header order. Amounts go out as plain decimals so the
// sheet's own number format applies.
func rowFor(username string, tx core.Transaction) []any {
	return []any{
		tx.ID,
		tx.TransactionDate.String(),
		username,
		tx.Description,
		tx.Category,
		tx.Amount.StringFixed(2),
		optionalID(tx.GoalID),
		optionalID(tx.BudgetID),
	}
}

func optionalID(id *int64) string {
	if id == nil {
		return ""
	}
	return strconv.FormatInt(*id, 10)
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
