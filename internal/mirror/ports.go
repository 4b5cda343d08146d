// Package mirror defines the outbound port used to copy recorded
// transactions to an external spreadsheet.
package mirror

import "context"

// Row is a transaction flattened for export.
type Row struct {
	ID          int64
	Date        string
	Kind        string
	Amount      string
	Account     string
	Category    string
	Destination string
	Description string
}

// RowAppender appends one row to the mirror destination and returns a
// reference to where it landed.
type RowAppender interface {
	Append(ctx context.Context, r Row) (rowRef string, err error)
}
