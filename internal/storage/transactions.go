package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"financas/internal/core"
)

// RecordParams carries the inputs for recording a transaction. Optional
// references are nil pointers; a zero Date means "now at persistence".
type RecordParams struct {
	Kind                 core.TransactionKind
	Amount               core.Money
	Date                 time.Time
	SourceAccountID      int64
	CategoryID           *int64
	DestinationAccountID *int64
	Description          string
}

// RecordTransaction validates and persists one transaction atomically:
// every check runs inside the same SQL transaction as the insert, so a
// failed validation writes nothing.
//
// Validation order follows the ledger contract: amount, source account,
// then the kind-specific reference checks. For transfers the supplied
// category is ignored and stored as NULL.
func (l *Ledger) RecordTransaction(ctx context.Context, p RecordParams) (core.Transaction, error) {
	tx := core.Transaction{
		Kind:                 p.Kind,
		Amount:               p.Amount,
		Date:                 p.Date,
		SourceAccountID:      p.SourceAccountID,
		CategoryID:           p.CategoryID,
		DestinationAccountID: p.DestinationAccountID,
		Description:          p.Description,
	}
	if tx.Kind == core.KindTransfer {
		tx.CategoryID = nil
	}
	if !tx.Kind.Valid() {
		return core.Transaction{}, core.ErrInvalidKind
	}
	if err := tx.Amount.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if tx.Date.IsZero() {
		tx.Date = l.now()
	}

	dbTx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	ok, err := accountExists(ctx, dbTx, tx.SourceAccountID)
	if err != nil {
		return core.Transaction{}, err
	}
	if !ok {
		return core.Transaction{}, fmt.Errorf("source account %d: %w", tx.SourceAccountID, core.ErrAccountNotFound)
	}

	if err := tx.ValidateReferences(); err != nil {
		return core.Transaction{}, err
	}

	switch tx.Kind {
	case core.KindTransfer:
		ok, err := accountExists(ctx, dbTx, *tx.DestinationAccountID)
		if err != nil {
			return core.Transaction{}, err
		}
		if !ok {
			return core.Transaction{}, fmt.Errorf("destination account %d: %w", *tx.DestinationAccountID, core.ErrAccountNotFound)
		}
	default:
		var categoryKind string
		err := dbTx.QueryRowContext(ctx,
			"SELECT kind FROM categories WHERE id = ?", *tx.CategoryID).Scan(&categoryKind)
		if err != nil {
			if isNoRows(err) {
				return core.Transaction{}, fmt.Errorf("category %d: %w", *tx.CategoryID, core.ErrCategoryNotFound)
			}
			return core.Transaction{}, fmt.Errorf("query category kind: %w", err)
		}
		if categoryKind != string(tx.Kind) {
			return core.Transaction{}, core.ErrCategoryKindMismatch
		}
	}

	res, err := dbTx.ExecContext(ctx, `
		INSERT INTO transactions (kind, amount, date, source_account_id, category_id, destination_account_id, description)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(tx.Kind),
		tx.Amount.Cents,
		tx.Date.Format(dateLayout),
		tx.SourceAccountID,
		tx.CategoryID,
		tx.DestinationAccountID,
		nullableString(tx.Description),
	)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction id: %w", err)
	}
	tx.ID = id

	if err := dbTx.Commit(); err != nil {
		return core.Transaction{}, fmt.Errorf("commit transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction recorded",
		"id", tx.ID,
		"kind", tx.Kind,
		"amount_cents", tx.Amount.Cents,
		"source_account_id", tx.SourceAccountID)

	return tx, nil
}

// ListTransactions returns the transactions touching accountID as source or
// destination, ordered by date then id. A non-nil month restricts the result
// to that calendar month.
func (l *Ledger) ListTransactions(ctx context.Context, accountID int64, month *core.MonthRef) ([]core.Transaction, error) {
	query := `
		SELECT id, kind, amount, date, source_account_id, category_id, destination_account_id, description, mirrored
		FROM transactions
		WHERE (source_account_id = ? OR destination_account_id = ?)`
	args := []any{accountID, accountID}

	if month != nil {
		start, end := monthBounds(*month)
		query += " AND date >= ? AND date < ?"
		args = append(args, start, end)
	}
	query += " ORDER BY date, id"

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// GetTransaction returns a single transaction or core.ErrTransactionNotFound.
func (l *Ledger) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := l.db.QueryRowContext(ctx, `
		SELECT id, kind, amount, date, source_account_id, category_id, destination_account_id, description, mirrored
		FROM transactions WHERE id = ?`, id)
	tx, err := scanTransaction(row)
	if err != nil {
		if isNoRows(err) {
			return core.Transaction{}, core.ErrTransactionNotFound
		}
		return core.Transaction{}, err
	}
	return tx, nil
}

// ListUnmirrored returns ids of transactions not yet appended to the mirror,
// oldest first.
func (l *Ledger) ListUnmirrored(ctx context.Context, limit int) ([]int64, error) {
	rows, err := l.db.QueryContext(ctx,
		"SELECT id FROM transactions WHERE mirrored = 0 ORDER BY id LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query unmirrored transactions: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan transaction id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// MarkMirrored flags a transaction as appended to the mirror.
func (l *Ledger) MarkMirrored(ctx context.Context, id int64) error {
	_, err := l.db.ExecContext(ctx,
		"UPDATE transactions SET mirrored = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("mark transaction mirrored: %w", err)
	}
	return nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner) (core.Transaction, error) {
	var (
		tx          core.Transaction
		kindStr     string
		dateStr     string
		categoryID  sql.NullInt64
		destination sql.NullInt64
		description sql.NullString
		mirrored    int
	)
	if err := s.Scan(&tx.ID, &kindStr, &tx.Amount.Cents, &dateStr,
		&tx.SourceAccountID, &categoryID, &destination, &description, &mirrored); err != nil {
		if isNoRows(err) {
			return core.Transaction{}, err
		}
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}

	tx.Kind = core.TransactionKind(kindStr)
	date, err := time.ParseInLocation(dateLayout, dateStr, time.Local)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction date %q: %w", dateStr, err)
	}
	tx.Date = date
	if categoryID.Valid {
		tx.CategoryID = &categoryID.Int64
	}
	if destination.Valid {
		tx.DestinationAccountID = &destination.Int64
	}
	tx.Description = description.String
	tx.Mirrored = mirrored != 0
	return tx, nil
}

func accountExists(ctx context.Context, dbTx *sql.Tx, id int64) (bool, error) {
	var count int
	err := dbTx.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM accounts WHERE id = ?", id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check account %d: %w", id, err)
	}
	return count > 0, nil
}

// monthBounds returns the half-open [start, end) date range for a month,
// formatted like stored dates so the comparison stays lexicographic.
func monthBounds(m core.MonthRef) (string, string) {
	start := time.Date(m.Year, time.Month(m.Month), 1, 0, 0, 0, 0, time.Local)
	end := start.AddDate(0, 1, 0)
	return start.Format(dateLayout), end.Format(dateLayout)
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
