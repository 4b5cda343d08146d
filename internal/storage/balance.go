package storage

import (
	"context"
	"fmt"

	"financas/internal/core"
)

// Balance computes an account's current balance from its opening balance and
// the full transaction history:
//
//	opening + incomes(source) - expenses(source) - transfers out + transfers in
//
// It is a pure read recomputed on every call; the data volume of a personal
// ledger does not justify a derived cache.
func (l *Ledger) Balance(ctx context.Context, accountID int64) (core.Money, error) {
	var opening int64
	err := l.db.QueryRowContext(ctx,
		"SELECT opening_balance FROM accounts WHERE id = ?", accountID).Scan(&opening)
	if err != nil {
		if isNoRows(err) {
			return core.Money{}, core.ErrAccountNotFound
		}
		return core.Money{}, fmt.Errorf("query opening balance: %w", err)
	}

	income, err := l.sumByKind(ctx, accountID, core.KindIncome)
	if err != nil {
		return core.Money{}, err
	}
	expenses, err := l.sumByKind(ctx, accountID, core.KindExpense)
	if err != nil {
		return core.Money{}, err
	}
	transfersOut, err := l.sumByKind(ctx, accountID, core.KindTransfer)
	if err != nil {
		return core.Money{}, err
	}

	var transfersIn core.Money
	err = l.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE destination_account_id = ? AND kind = 'transfer'",
		accountID).Scan(&transfersIn.Cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum incoming transfers: %w", err)
	}

	balance := core.Money{Cents: opening}.
		Add(income).Sub(expenses).Sub(transfersOut).Add(transfersIn)
	return balance, nil
}

func (l *Ledger) sumByKind(ctx context.Context, accountID int64, kind core.TransactionKind) (core.Money, error) {
	var sum core.Money
	err := l.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE source_account_id = ? AND kind = ?",
		accountID, string(kind)).Scan(&sum.Cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum %s transactions: %w", kind, err)
	}
	return sum, nil
}

// MonthSummary totals a month's incomes and expenses across all accounts and
// breaks expenses down by category. Transfers are excluded: they move money
// between accounts without changing the overall position.
func (l *Ledger) MonthSummary(ctx context.Context, month core.MonthRef) (core.MonthSummary, error) {
	summary := core.MonthSummary{Month: month}
	start, end := monthBounds(month)

	err := l.db.QueryRowContext(ctx, `
		SELECT
		  COALESCE(SUM(CASE WHEN kind = 'income' THEN amount END), 0),
		  COALESCE(SUM(CASE WHEN kind = 'expense' THEN amount END), 0)
		FROM transactions
		WHERE date >= ? AND date < ?`,
		start, end).Scan(&summary.Income.Cents, &summary.Expenses.Cents)
	if err != nil {
		return core.MonthSummary{}, fmt.Errorf("sum month totals: %w", err)
	}
	summary.Net = summary.Income.Sub(summary.Expenses)

	rows, err := l.db.QueryContext(ctx, `
		SELECT c.name, SUM(t.amount)
		FROM transactions t
		JOIN categories c ON c.id = t.category_id
		WHERE t.kind = 'expense' AND t.date >= ? AND t.date < ?
		GROUP BY c.name
		ORDER BY SUM(t.amount) DESC, c.name`,
		start, end)
	if err != nil {
		return core.MonthSummary{}, fmt.Errorf("query category sums: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ca core.CategoryAmount
		if err := rows.Scan(&ca.Name, &ca.Amount.Cents); err != nil {
			return core.MonthSummary{}, fmt.Errorf("scan category sum: %w", err)
		}
		summary.ByCategory = append(summary.ByCategory, ca)
	}
	return summary, rows.Err()
}
