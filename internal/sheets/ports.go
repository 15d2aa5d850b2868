package sheets

import (
	"context"

	"bilancio/internal/core"
)

// Ports for outbound adapters.
type (
	// RowAppender writes one transaction row to the ledger sheet.
	RowAppender interface {
		Append(ctx context.Context, t core.Transaction) (rowRef string, err error)
	}

	// RowRemover deletes exported rows when their source records go away.
	RowRemover interface {
		RemoveTransactionRow(ctx context.Context, transactionID int64) error
		RemoveUserRows(ctx context.Context, userID int64) error
	}
)
