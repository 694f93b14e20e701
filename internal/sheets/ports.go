package sheets

import (
	"context"

	"budgetwise/internal/core"
)

// TransactionExporter appends transactions to an external spreadsheet.
type TransactionExporter interface {
	Export(ctx context.Context, username string, tx core.Transaction) (rowRef string, err error)
}
