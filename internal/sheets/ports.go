// Package sheets defines the ports for exporting the household ledger to a
// spreadsheet backend.
package sheets

import (
	"context"

	"foyer/internal/core"
)

// Ports for outbound adapters.
type (
	TransactionWriter interface {
		Append(ctx context.Context, e core.LedgerEntry) (rowRef string, err error)
	}

	// CategoryReader lists the category names the export sheet knows about.
	CategoryReader interface {
		List(ctx context.Context) (categories []string, err error)
	}
)
