// Package export defines the outbound port for pushing recorded
// transactions to an external sheet.
package export

import (
	"context"

	"fintrack/internal/core"
)

// TransactionWriter appends one transaction to the external sheet and
// returns a reference to the written row.
type TransactionWriter interface {
	Append(ctx context.Context, t core.Transaction) (rowRef string, err error)
}
